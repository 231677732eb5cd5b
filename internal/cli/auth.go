package cli

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pmdesk/internal/domain"
)

func newLoginCommand(app func() *App) *cobra.Command {
	var userName, password string

	cmd := &cobra.Command{
		Use:   "login",
		Args:  cobra.NoArgs,
		Short: "Log in and store the session cookie",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if userName == "" {
				if userName, err = promptLine(in, out, "User name: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword(in, out); err != nil {
					return err
				}
			}

			env, err := a.Session.Login(cmd.Context(), a.Services.AppUsers, domain.LoginRequest{
				UserName: userName,
				Password: password,
			})
			if err != nil {
				return err
			}
			if !env.IsSuccess {
				desc, _ := env.FirstError()
				return fmt.Errorf("%s %s", env.Message, desc)
			}

			user := a.Session.User()
			if user == nil {
				return errors.New("logged in, but the user profile could not be loaded")
			}
			fmt.Fprintf(out, "Logged in as %s\n", user.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVarP(&userName, "user", "u", "", "user name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")

	return cmd
}

func newLogoutCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Args:  cobra.NoArgs,
		Short: "Forget the session and the cached data",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := a.Session.Logout(cmd.Context(), a.Cache); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Args:  cobra.NoArgs,
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireLogin(); err != nil {
				return err
			}
			u := a.Session.User()
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) <%s>\nid: %s\n", u.DisplayName(), u.UserName, u.Email, u.ID)
			return nil
		},
	}
}
