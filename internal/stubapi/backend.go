package stubapi

import (
	"time"

	"github.com/sirupsen/logrus"

	"pmdesk/internal/domain"
	"pmdesk/internal/logging"
	"pmdesk/internal/repository"
	"pmdesk/pkg/hash"
)

type (
	WorkspaceService = EntityService[domain.Workspace, domain.CreateWorkspaceRequest, domain.UpdateWorkspaceRequest]
	ProjectService   = EntityService[domain.Project, domain.CreateProjectRequest, domain.UpdateProjectRequest]
	IssueService     = EntityService[domain.Issue, domain.CreateIssueRequest, domain.UpdateIssueRequest]
	TaskService      = EntityService[domain.Task, domain.CreateTaskRequest, domain.UpdateTaskRequest]
	UserService      = EntityService[domain.AppUser, domain.CreateAppUserRequest, domain.UpdateAppUserRequest]
)

type Options struct {
	JWTSecret     string
	JWTExpiration time.Duration
	BcryptCost    int
	Events        Broadcaster
	Logger        logrus.FieldLogger
}

// Backend is the in-memory implementation of the REST contract.
type Backend struct {
	Auth       *AuthService
	Workspaces *WorkspaceService
	Projects   *ProjectService
	Issues     *IssueService
	Tasks      *TaskService
	Users      *UserService
}

func NewBackend(opts Options) *Backend {
	log := logging.Component(opts.Logger, "stubapi")
	if opts.JWTExpiration <= 0 {
		opts.JWTExpiration = 24 * time.Hour
	}

	workspaces := repository.NewWorkspaceRepository()
	projects := repository.NewProjectRepository()
	issues := repository.NewIssueRepository()
	tasks := repository.NewTaskRepository()
	users := repository.NewUserRepository()

	auth := NewAuthService(users, hash.NewHasher(opts.BcryptCost), opts.JWTSecret, opts.JWTExpiration)

	expandProject := func(p domain.Project) domain.Project {
		if ws, err := workspaces.Get(p.WorkspaceID); err == nil {
			p.Workspace = &ws
		}
		return p
	}
	projectOf := func(id string) *domain.Project {
		p, err := projects.Get(id)
		if err != nil {
			return nil
		}
		p = expandProject(p)
		return &p
	}

	return &Backend{
		Auth: auth,
		Workspaces: NewEntityService("workspaces", "Workspace", workspaces, Behavior[domain.Workspace, domain.CreateWorkspaceRequest, domain.UpdateWorkspaceRequest]{
			New:   domain.NewWorkspace,
			Merge: domain.Workspace.Merge,
		}, opts.Events, log),
		Projects: NewEntityService("projects", "Project", projects, Behavior[domain.Project, domain.CreateProjectRequest, domain.UpdateProjectRequest]{
			New:   domain.NewProject,
			Merge: domain.Project.Merge,
			Prepare: func(p domain.Project) (domain.Project, error) {
				p.Workspace = nil
				return p, nil
			},
			Check: func(p domain.Project) error {
				if _, err := workspaces.Get(p.WorkspaceID); err != nil {
					return &ReferenceError{Entity: "Workspace", ID: p.WorkspaceID}
				}
				return nil
			},
			Expand: expandProject,
		}, opts.Events, log),
		Issues: NewEntityService("issues", "Issue", issues, Behavior[domain.Issue, domain.CreateIssueRequest, domain.UpdateIssueRequest]{
			New:   domain.NewIssue,
			Merge: domain.Issue.Merge,
			Prepare: func(i domain.Issue) (domain.Issue, error) {
				i.Project = nil
				return i, nil
			},
			Check: func(i domain.Issue) error {
				if _, err := projects.Get(i.ProjectID); err != nil {
					return &ReferenceError{Entity: "Project", ID: i.ProjectID}
				}
				return nil
			},
			Expand: func(i domain.Issue) domain.Issue {
				i.Project = projectOf(i.ProjectID)
				return i
			},
		}, opts.Events, log),
		Tasks: NewEntityService("tasks", "Task", tasks, Behavior[domain.Task, domain.CreateTaskRequest, domain.UpdateTaskRequest]{
			New:   domain.NewTask,
			Merge: domain.Task.Merge,
			Prepare: func(t domain.Task) (domain.Task, error) {
				t.Project = nil
				return t, nil
			},
			Check: func(t domain.Task) error {
				if _, err := projects.Get(t.ProjectID); err != nil {
					return &ReferenceError{Entity: "Project", ID: t.ProjectID}
				}
				return nil
			},
			Expand: func(t domain.Task) domain.Task {
				t.Project = projectOf(t.ProjectID)
				return t
			},
		}, opts.Events, log),
		Users: NewEntityService("app-users", "User", users, Behavior[domain.AppUser, domain.CreateAppUserRequest, domain.UpdateAppUserRequest]{
			New:     domain.NewAppUser,
			Merge:   domain.AppUser.Merge,
			Prepare: auth.HashPassword,
			Check: func(u domain.AppUser) error {
				if other, ok := findByUserName(users, u.UserName); ok && other.ID != u.ID {
					return ErrUserNameTaken
				}
				return nil
			},
			Expand: domain.AppUser.WithoutPassword,
		}, opts.Events, log),
	}
}
