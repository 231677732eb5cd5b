package service

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"pmdesk/internal/domain"
	"pmdesk/pkg/response"
)

const (
	WorkspaceEndpoint = "/workspaces"
	ProjectEndpoint   = "/projects"
	IssueEndpoint     = "/issues"
	TaskEndpoint      = "/tasks"
	AppUserEndpoint   = "/app-users"
)

type (
	WorkspaceService = Adapter[domain.Workspace, domain.CreateWorkspaceRequest, domain.UpdateWorkspaceRequest]
	ProjectService   = Adapter[domain.Project, domain.CreateProjectRequest, domain.UpdateProjectRequest]
	IssueService     = Adapter[domain.Issue, domain.CreateIssueRequest, domain.UpdateIssueRequest]
	TaskService      = Adapter[domain.Task, domain.CreateTaskRequest, domain.UpdateTaskRequest]
)

func NewWorkspaceService(client Transport, log logrus.FieldLogger) *WorkspaceService {
	return NewAdapter[domain.Workspace, domain.CreateWorkspaceRequest, domain.UpdateWorkspaceRequest](client, WorkspaceEndpoint, "workspace", log)
}

func NewProjectService(client Transport, log logrus.FieldLogger) *ProjectService {
	return NewAdapter[domain.Project, domain.CreateProjectRequest, domain.UpdateProjectRequest](client, ProjectEndpoint, "project", log)
}

func NewIssueService(client Transport, log logrus.FieldLogger) *IssueService {
	return NewAdapter[domain.Issue, domain.CreateIssueRequest, domain.UpdateIssueRequest](client, IssueEndpoint, "issue", log)
}

func NewTaskService(client Transport, log logrus.FieldLogger) *TaskService {
	return NewAdapter[domain.Task, domain.CreateTaskRequest, domain.UpdateTaskRequest](client, TaskEndpoint, "task", log)
}

// AppUserService adds login to the generic adapter.
type AppUserService struct {
	*Adapter[domain.AppUser, domain.CreateAppUserRequest, domain.UpdateAppUserRequest]
}

func NewAppUserService(client Transport, log logrus.FieldLogger) *AppUserService {
	return &AppUserService{
		Adapter: NewAdapter[domain.AppUser, domain.CreateAppUserRequest, domain.UpdateAppUserRequest](client, AppUserEndpoint, "appUser", log),
	}
}

func (s *AppUserService) Login(ctx context.Context, req domain.LoginRequest) (*response.Envelope[domain.LoginResult], error) {
	if req.UserName == "" || req.Password == "" {
		s.log.WithField("op", OpLogin).Warn("missing credentials, request not sent")
		return response.BadRequest[domain.LoginResult]("Invalid username or password.", "Login failed. Please provide valid credentials."), nil
	}
	return call[domain.LoginResult](ctx, s.client, s.log, s.entity, OpLogin, http.MethodPost, s.endpoint+"/login", nil, req)
}

// Services bundles one adapter per entity over a shared transport.
type Services struct {
	Workspaces *WorkspaceService
	Projects   *ProjectService
	Issues     *IssueService
	Tasks      *TaskService
	AppUsers   *AppUserService
}

func NewServices(client Transport, log logrus.FieldLogger) *Services {
	return &Services{
		Workspaces: NewWorkspaceService(client, log),
		Projects:   NewProjectService(client, log),
		Issues:     NewIssueService(client, log),
		Tasks:      NewTaskService(client, log),
		AppUsers:   NewAppUserService(client, log),
	}
}
