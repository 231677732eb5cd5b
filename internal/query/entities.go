package query

import (
	"pmdesk/internal/domain"
	"pmdesk/internal/service"
)

// Cache entity names, one key space per entity.
const (
	WorkspacesEntity = "workspaces"
	ProjectsEntity   = "projects"
	IssuesEntity     = "issues"
	TasksEntity      = "tasks"
	AppUsersEntity   = "app-users"
)

type (
	WorkspaceResource = Resource[domain.Workspace, domain.CreateWorkspaceRequest, domain.UpdateWorkspaceRequest]
	ProjectResource   = Resource[domain.Project, domain.CreateProjectRequest, domain.UpdateProjectRequest]
	IssueResource     = Resource[domain.Issue, domain.CreateIssueRequest, domain.UpdateIssueRequest]
	TaskResource      = Resource[domain.Task, domain.CreateTaskRequest, domain.UpdateTaskRequest]
	AppUserResource   = Resource[domain.AppUser, domain.CreateAppUserRequest, domain.UpdateAppUserRequest]
)

func WorkspaceBinding() Binding[domain.Workspace, domain.CreateWorkspaceRequest, domain.UpdateWorkspaceRequest] {
	return Binding[domain.Workspace, domain.CreateWorkspaceRequest, domain.UpdateWorkspaceRequest]{
		ID:         func(w domain.Workspace) string { return w.ID },
		SetID:      func(w domain.Workspace, id string) domain.Workspace { w.ID = id; return w },
		FromCreate: domain.NewWorkspace,
		Merge:      domain.Workspace.Merge,
	}
}

func ProjectBinding() Binding[domain.Project, domain.CreateProjectRequest, domain.UpdateProjectRequest] {
	return Binding[domain.Project, domain.CreateProjectRequest, domain.UpdateProjectRequest]{
		ID:         func(p domain.Project) string { return p.ID },
		SetID:      func(p domain.Project, id string) domain.Project { p.ID = id; return p },
		FromCreate: domain.NewProject,
		Merge:      domain.Project.Merge,
	}
}

func IssueBinding() Binding[domain.Issue, domain.CreateIssueRequest, domain.UpdateIssueRequest] {
	return Binding[domain.Issue, domain.CreateIssueRequest, domain.UpdateIssueRequest]{
		ID:         func(i domain.Issue) string { return i.ID },
		SetID:      func(i domain.Issue, id string) domain.Issue { i.ID = id; return i },
		FromCreate: domain.NewIssue,
		Merge:      domain.Issue.Merge,
	}
}

func TaskBinding() Binding[domain.Task, domain.CreateTaskRequest, domain.UpdateTaskRequest] {
	return Binding[domain.Task, domain.CreateTaskRequest, domain.UpdateTaskRequest]{
		ID:         func(t domain.Task) string { return t.ID },
		SetID:      func(t domain.Task, id string) domain.Task { t.ID = id; return t },
		FromCreate: domain.NewTask,
		Merge:      domain.Task.Merge,
	}
}

func AppUserBinding() Binding[domain.AppUser, domain.CreateAppUserRequest, domain.UpdateAppUserRequest] {
	return Binding[domain.AppUser, domain.CreateAppUserRequest, domain.UpdateAppUserRequest]{
		ID:         func(u domain.AppUser) string { return u.ID },
		SetID:      func(u domain.AppUser, id string) domain.AppUser { u.ID = id; return u },
		// Passwords are write-only and never enter the cache.
		FromCreate: func(id string, req domain.CreateAppUserRequest) domain.AppUser {
			return domain.NewAppUser(id, req).WithoutPassword()
		},
		Merge: func(u domain.AppUser, req domain.UpdateAppUserRequest) domain.AppUser {
			return u.Merge(req).WithoutPassword()
		},
	}
}

// Resources is the full set of entity resources over one cache.
type Resources struct {
	Cache      *Cache
	Workspaces *WorkspaceResource
	Projects   *ProjectResource
	Issues     *IssueResource
	Tasks      *TaskResource
	AppUsers   *AppUserResource
}

func NewResources(cache *Cache, svc *service.Services, cfg ResourceConfig) *Resources {
	return &Resources{
		Cache:      cache,
		Workspaces: NewResource(cache, WorkspacesEntity, svc.Workspaces, WorkspaceBinding(), cfg),
		Projects:   NewResource(cache, ProjectsEntity, svc.Projects, ProjectBinding(), cfg),
		Issues:     NewResource(cache, IssuesEntity, svc.Issues, IssueBinding(), cfg),
		Tasks:      NewResource(cache, TasksEntity, svc.Tasks, TaskBinding(), cfg),
		AppUsers:   NewResource(cache, AppUsersEntity, svc.AppUsers, AppUserBinding(), cfg),
	}
}

// Entities lists the cache entity names.
func Entities() []string {
	return []string{WorkspacesEntity, ProjectsEntity, IssuesEntity, TasksEntity, AppUsersEntity}
}
