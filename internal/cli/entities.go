package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"pmdesk/internal/domain"
	"pmdesk/internal/query"
)

type entityDef[T, C, U any] struct {
	use      string
	aliases  []string
	singular string
	resource func(*App) *query.Resource[T, C, U]
	header   []string
	row      func(T) []string
}

func newEntityCommand[T, C, U any](app func() *App, def entityDef[T, C, U]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     def.use,
		Aliases: def.aliases,
		Args:    cobra.NoArgs,
		Short:   fmt.Sprintf("Manage %s", def.use),
	}

	cmd.AddCommand(
		newListCommand(app, def),
		newGetCommand(app, def),
		newCreateCommand(app, def),
		newUpdateCommand(app, def),
		newDeleteCommand(app, def),
	)
	return cmd
}

type listFlags struct {
	search   string
	page     int
	pageSize int
	sort     string
	order    string
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "search term")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 10, "page size")
	cmd.Flags().StringVar(&f.sort, "sort", "name", "sort column")
	cmd.Flags().StringVar(&f.order, "order", "asc", "sort order (asc or desc)")
}

func (f *listFlags) filter() domain.Filter {
	return domain.Filter{
		SearchTerm: domain.String(f.search),
		Page:       domain.Int(f.page),
		PageSize:   domain.Int(f.pageSize),
		SortColumn: domain.String(f.sort),
		SortOrder:  domain.String(f.order),
	}
}

func newListCommand[T, C, U any](app func() *App, def entityDef[T, C, U]) *cobra.Command {
	var flags listFlags
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list",
		Args:  cobra.NoArgs,
		Short: fmt.Sprintf("List %s", def.use),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireLogin(); err != nil {
				return err
			}

			res := def.resource(a)
			f := flags.filter()
			var result query.Result[domain.Page[T]]
			if refresh {
				result = res.Refresh(cmd.Context(), f)
			} else {
				result = res.Find(cmd.Context(), f)
			}
			if result.Err != nil {
				return result.Err
			}
			a.Views.Sync(res.Entity(), f)

			page := result.Data
			rows := make([][]string, 0, len(page.Items))
			for _, item := range page.Items {
				rows = append(rows, def.row(item))
			}
			out := cmd.OutOrStdout()
			printTable(out, def.header, rows)
			fmt.Fprintf(out, "page %d of %d, %d total\n", page.Page, page.TotalPages, page.TotalCount)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached data")
	return cmd
}

func newGetCommand[T, C, U any](app func() *App, def entityDef[T, C, U]) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Args:  cobra.ExactArgs(1),
		Short: fmt.Sprintf("Show one %s", def.singular),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireLogin(); err != nil {
				return err
			}

			result := def.resource(a).FindOne(cmd.Context(), domain.ByID(args[0]))
			if result.Err != nil {
				return result.Err
			}
			return printJSON(cmd.OutOrStdout(), result.Data)
		},
	}
}

func newCreateCommand[T, C, U any](app func() *App, def entityDef[T, C, U]) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "create",
		Args:  cobra.NoArgs,
		Short: fmt.Sprintf("Create a %s from a JSON body", def.singular),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireLogin(); err != nil {
				return err
			}

			var req C
			if err := readBody(cmd.InOrStdin(), data, &req); err != nil {
				return err
			}

			res := def.resource(a).Create(cmd.Context(), req)
			if res.IsError {
				return errors.New(res.Message)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message)
			if res.Data != nil && res.Data.Data != nil {
				fmt.Fprintf(out, "id: %s\n", *res.Data.Data)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", `JSON body, or "-" to read stdin`)
	cmd.MarkFlagRequired("data")
	return cmd
}

func newUpdateCommand[T, C, U any](app func() *App, def entityDef[T, C, U]) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Args:  cobra.ExactArgs(1),
		Short: fmt.Sprintf("Replace the editable fields of a %s", def.singular),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireLogin(); err != nil {
				return err
			}

			var req U
			if err := readBody(cmd.InOrStdin(), data, &req); err != nil {
				return err
			}

			res := def.resource(a).Update(cmd.Context(), domain.UpdateRequest[U]{
				DataID: domain.IDRef{ID: args[0]},
				Data:   req,
			})
			if res.IsError {
				return errors.New(res.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", `JSON body, or "-" to read stdin`)
	cmd.MarkFlagRequired("data")
	return cmd
}

func newDeleteCommand[T, C, U any](app func() *App, def entityDef[T, C, U]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Args:  cobra.ExactArgs(1),
		Short: fmt.Sprintf("Delete a %s", def.singular),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireLogin(); err != nil {
				return err
			}

			res := def.resource(a).Delete(cmd.Context(), domain.DeleteRequest{DataID: domain.IDRef{ID: args[0]}})
			if res.IsError {
				return errors.New(res.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func readBody(stdin io.Reader, data string, v any) error {
	var raw []byte
	if data == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = b
	} else {
		raw = []byte(data)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func newWorkspacesCommand(app func() *App) *cobra.Command {
	return newEntityCommand(app, entityDef[domain.Workspace, domain.CreateWorkspaceRequest, domain.UpdateWorkspaceRequest]{
		use:      "workspaces",
		aliases:  []string{"ws"},
		singular: "workspace",
		resource: func(a *App) *query.WorkspaceResource { return a.Resources.Workspaces },
		header:   []string{"ID", "NAME", "DESCRIPTION"},
		row: func(w domain.Workspace) []string {
			return []string{w.ID, w.Name, w.Description}
		},
	})
}

func newProjectsCommand(app func() *App) *cobra.Command {
	return newEntityCommand(app, entityDef[domain.Project, domain.CreateProjectRequest, domain.UpdateProjectRequest]{
		use:      "projects",
		singular: "project",
		resource: func(a *App) *query.ProjectResource { return a.Resources.Projects },
		header:   []string{"ID", "NAME", "STATUS", "WORKSPACE"},
		row: func(p domain.Project) []string {
			workspace := p.WorkspaceID
			if p.Workspace != nil {
				workspace = p.Workspace.Name
			}
			return []string{p.ID, p.Name, p.Status, workspace}
		},
	})
}

func newIssuesCommand(app func() *App) *cobra.Command {
	return newEntityCommand(app, entityDef[domain.Issue, domain.CreateIssueRequest, domain.UpdateIssueRequest]{
		use:      "issues",
		singular: "issue",
		resource: func(a *App) *query.IssueResource { return a.Resources.Issues },
		header:   []string{"ID", "NAME", "STATUS", "PROJECT"},
		row: func(i domain.Issue) []string {
			return []string{i.ID, i.Name, i.Status, projectName(i.ProjectID, i.Project)}
		},
	})
}

func newTasksCommand(app func() *App) *cobra.Command {
	return newEntityCommand(app, entityDef[domain.Task, domain.CreateTaskRequest, domain.UpdateTaskRequest]{
		use:      "tasks",
		singular: "task",
		resource: func(a *App) *query.TaskResource { return a.Resources.Tasks },
		header:   []string{"ID", "NAME", "STATUS", "PROJECT"},
		row: func(t domain.Task) []string {
			return []string{t.ID, t.Name, t.Status, projectName(t.ProjectID, t.Project)}
		},
	})
}

func newUsersCommand(app func() *App) *cobra.Command {
	return newEntityCommand(app, entityDef[domain.AppUser, domain.CreateAppUserRequest, domain.UpdateAppUserRequest]{
		use:      "users",
		singular: "user",
		resource: func(a *App) *query.AppUserResource { return a.Resources.AppUsers },
		header:   []string{"ID", "USER NAME", "NAME", "EMAIL", "ACCESS"},
		row: func(u domain.AppUser) []string {
			return []string{u.ID, u.UserName, u.DisplayName(), u.Email, strconv.Itoa(u.UserDataAccessLevel)}
		},
	})
}

func projectName(id string, p *domain.Project) string {
	if p != nil {
		return p.Name
	}
	return id
}
