package stubapi

import (
	"fmt"

	"github.com/google/uuid"

	"pmdesk/internal/domain"
)

const (
	DemoUserName = "demo"
	DemoPassword = "demo12345"
)

// SeedDemo loads a small workspace with a demo user able to log in.
func (b *Backend) SeedDemo() error {
	user := domain.NewAppUser(uuid.New().String(), domain.CreateAppUserRequest{
		FirstName: domain.String("Demo"),
		LastName:  domain.String("User"),
		UserName:  DemoUserName,
		Email:     "demo@example.com",
		Password:  DemoPassword,
	})
	if err := b.Users.Seed(user); err != nil {
		return fmt.Errorf("failed to seed user: %w", err)
	}

	ws := domain.NewWorkspace(uuid.New().String(), domain.CreateWorkspaceRequest{
		Name:        "Acme",
		Description: "Demo workspace",
	})
	if err := b.Workspaces.Seed(ws); err != nil {
		return fmt.Errorf("failed to seed workspace: %w", err)
	}

	project := domain.NewProject(uuid.New().String(), domain.CreateProjectRequest{
		Name:        "Website",
		Description: "Public site relaunch",
		Status:      "active",
		WorkspaceID: ws.ID,
	})
	if err := b.Projects.Seed(project); err != nil {
		return fmt.Errorf("failed to seed project: %w", err)
	}

	tasks := []domain.CreateTaskRequest{
		{Name: "Draft landing copy", Status: domain.TaskStatusTodo},
		{Name: "Pick color palette", Status: domain.TaskStatusTodo},
		{Name: "Build pricing page", Status: domain.TaskStatusInProgress},
		{Name: "Set up CI", Status: domain.TaskStatusDone},
	}
	for _, req := range tasks {
		req.ProjectID = project.ID
		if err := b.Tasks.Seed(domain.NewTask(uuid.New().String(), req)); err != nil {
			return fmt.Errorf("failed to seed task: %w", err)
		}
	}

	issue := domain.NewIssue(uuid.New().String(), domain.CreateIssueRequest{
		Name:        "Broken footer links",
		Description: "Links in the footer point to the old domain",
		Status:      "open",
		ProjectID:   project.ID,
	})
	if err := b.Issues.Seed(issue); err != nil {
		return fmt.Errorf("failed to seed issue: %w", err)
	}
	return nil
}
