package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pmdesk/internal/dashboard"
	"pmdesk/internal/domain"
)

func newDashboardCommand(app func() *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Args:  cobra.NoArgs,
		Short: "Summarize tasks by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireLogin(); err != nil {
				return err
			}

			f := domain.DefaultFilter()
			f.PageSize = domain.Int(100)
			b, err := dashboard.Load(cmd.Context(), a.Resources.Tasks, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, b)
			}

			rows := make([][]string, 0, len(b.Slices))
			for _, s := range b.Slices {
				rows = append(rows, []string{s.Label, strconv.Itoa(s.Count), fmt.Sprintf("%.1f%%", s.Percent)})
			}
			printTable(out, []string{"STATUS", "COUNT", "SHARE"}, rows)
			fmt.Fprintf(out, "%d tasks\n", b.Total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	return cmd
}
