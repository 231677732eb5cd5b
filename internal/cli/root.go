package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Factory builds the App for one invocation.
type Factory func(ctx context.Context) (*App, error)

// NewRootCmd creates the pmdesk command tree. The App is built before any
// subcommand runs and its cache snapshot is saved afterwards.
func NewRootCmd(factory Factory) *cobra.Command {
	var app *App
	current := func() *App { return app }

	rootCmd := &cobra.Command{
		Use:           "pmdesk",
		Short:         "Project management from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app == nil {
				return nil
			}
			return app.Close(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		newLoginCommand(current),
		newLogoutCommand(current),
		newWhoamiCommand(current),
		newWorkspacesCommand(current),
		newProjectsCommand(current),
		newIssuesCommand(current),
		newTasksCommand(current),
		newUsersCommand(current),
		newBoardCommand(current),
		newDashboardCommand(current),
		newWatchCommand(current),
	)

	return rootCmd
}
