package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pmdesk/internal/domain"
	"pmdesk/internal/kanban"
)

// boardFilter loads the whole task list in one page where the server allows it.
func boardFilter() domain.Filter {
	f := domain.DefaultFilter()
	f.PageSize = domain.Int(100)
	return f
}

func newBoardCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Args:  cobra.NoArgs,
		Short: "Show and rearrange the task board",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Args:  cobra.NoArgs,
			Short: "Print the board columns",
			RunE: func(cmd *cobra.Command, args []string) error {
				a := app()
				if err := a.requireLogin(); err != nil {
					return err
				}

				board := kanban.NewBoard(a.Resources.Tasks, boardFilter(), a.Log)
				if err := board.Load(cmd.Context()); err != nil {
					return err
				}
				printBoard(cmd, board.State())
				return nil
			},
		},
		&cobra.Command{
			Use:   "move <task-id> <column>",
			Args:  cobra.ExactArgs(2),
			Short: "Move a task to another column",
			RunE: func(cmd *cobra.Command, args []string) error {
				a := app()
				if err := a.requireLogin(); err != nil {
					return err
				}

				board := kanban.NewBoard(a.Resources.Tasks, boardFilter(), a.Log)
				if err := board.Load(cmd.Context()); err != nil {
					return err
				}
				if err := board.Move(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", args[0], args[1])
				return nil
			},
		},
	)
	return cmd
}

func printBoard(cmd *cobra.Command, st kanban.State) {
	out := cmd.OutOrStdout()
	for i, col := range st.Columns {
		if i > 0 {
			fmt.Fprintln(out)
		}
		cards := st.ColumnCards(col.ID)
		fmt.Fprintf(out, "%s (%d)\n", col.Title, len(cards))
		for _, c := range cards {
			fmt.Fprintf(out, "  %s  %s\n", c.ID, c.Title)
		}
	}
}
