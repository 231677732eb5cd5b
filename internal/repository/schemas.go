package repository

import (
	"strconv"

	"pmdesk/internal/domain"
)

type (
	WorkspaceRepository = MemoryRepository[domain.Workspace]
	ProjectRepository   = MemoryRepository[domain.Project]
	IssueRepository     = MemoryRepository[domain.Issue]
	TaskRepository      = MemoryRepository[domain.Task]
	UserRepository      = MemoryRepository[domain.AppUser]
)

func NewWorkspaceRepository() *WorkspaceRepository {
	return NewMemoryRepository(Schema[domain.Workspace]{
		ID: func(w domain.Workspace) string { return w.ID },
		Field: func(w domain.Workspace, column string) (string, bool) {
			switch column {
			case "id":
				return w.ID, true
			case "name":
				return w.Name, true
			case "description":
				return w.Description, true
			case "userDataAccessLevel":
				return strconv.Itoa(w.UserDataAccessLevel), true
			}
			return "", false
		},
		Searchable: []string{"name", "description"},
	})
}

func NewProjectRepository() *ProjectRepository {
	return NewMemoryRepository(Schema[domain.Project]{
		ID: func(p domain.Project) string { return p.ID },
		Field: func(p domain.Project, column string) (string, bool) {
			switch column {
			case "id":
				return p.ID, true
			case "name":
				return p.Name, true
			case "description":
				return p.Description, true
			case "status":
				return p.Status, true
			case "workspaceId":
				return p.WorkspaceID, true
			case "userDataAccessLevel":
				return strconv.Itoa(p.UserDataAccessLevel), true
			}
			return "", false
		},
		Searchable: []string{"name", "description", "status"},
	})
}

func NewIssueRepository() *IssueRepository {
	return NewMemoryRepository(Schema[domain.Issue]{
		ID: func(i domain.Issue) string { return i.ID },
		Field: workItemField(
			func(i domain.Issue) [5]string { return [5]string{i.ID, i.Name, i.Description, i.Status, i.ProjectID} },
			func(i domain.Issue) int { return i.UserDataAccessLevel },
		),
		Searchable: []string{"name", "description", "status"},
	})
}

func NewTaskRepository() *TaskRepository {
	return NewMemoryRepository(Schema[domain.Task]{
		ID: func(t domain.Task) string { return t.ID },
		Field: workItemField(
			func(t domain.Task) [5]string { return [5]string{t.ID, t.Name, t.Description, t.Status, t.ProjectID} },
			func(t domain.Task) int { return t.UserDataAccessLevel },
		),
		Searchable: []string{"name", "description", "status"},
	})
}

// workItemField reads the columns issues and tasks share.
func workItemField[T any](cols func(T) [5]string, level func(T) int) func(T, string) (string, bool) {
	return func(item T, column string) (string, bool) {
		c := cols(item)
		switch column {
		case "id":
			return c[0], true
		case "name":
			return c[1], true
		case "description":
			return c[2], true
		case "status":
			return c[3], true
		case "projectId":
			return c[4], true
		case "userDataAccessLevel":
			return strconv.Itoa(level(item)), true
		}
		return "", false
	}
}

// NewUserRepository sorts "name" by user name, the column list screens
// request by default.
func NewUserRepository() *UserRepository {
	return NewMemoryRepository(Schema[domain.AppUser]{
		ID: func(u domain.AppUser) string { return u.ID },
		Field: func(u domain.AppUser, column string) (string, bool) {
			switch column {
			case "id":
				return u.ID, true
			case "name", "userName":
				return u.UserName, true
			case "email":
				return u.Email, true
			case "firstName":
				return deref(u.FirstName), true
			case "lastName":
				return deref(u.LastName), true
			case "userDataAccessLevel":
				return strconv.Itoa(u.UserDataAccessLevel), true
			}
			return "", false
		},
		Searchable: []string{"userName", "email", "firstName", "lastName"},
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
