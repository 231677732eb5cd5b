package domain

// Task statuses double as kanban column ids.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"
)

type Task struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	Status              string   `json:"status"`
	ProjectID           string   `json:"projectId"`
	UserDataAccessLevel int      `json:"userDataAccessLevel"`
	Links               [][]Link `json:"links"`
	Project             *Project `json:"project,omitempty"`
}

type CreateTaskRequest struct {
	Name                string `json:"name" validate:"required,min=1,max=100"`
	Description         string `json:"description,omitempty" validate:"max=500"`
	Status              string `json:"status" validate:"required"`
	ProjectID           string `json:"projectId" validate:"required"`
	UserDataAccessLevel int    `json:"userDataAccessLevel" validate:"gte=0"`
}

type UpdateTaskRequest struct {
	Name                string `json:"name" validate:"required,min=1,max=100"`
	Description         string `json:"description,omitempty" validate:"max=500"`
	Status              string `json:"status" validate:"required"`
	ProjectID           string `json:"projectId" validate:"required"`
	UserDataAccessLevel int    `json:"userDataAccessLevel" validate:"gte=0"`
}

func NewTask(id string, req CreateTaskRequest) Task {
	return Task{
		ID:                  id,
		Name:                req.Name,
		Description:         req.Description,
		Status:              req.Status,
		ProjectID:           req.ProjectID,
		UserDataAccessLevel: req.UserDataAccessLevel,
		Links:               [][]Link{},
	}
}

func (t Task) Merge(req UpdateTaskRequest) Task {
	t.Name = req.Name
	t.Description = req.Description
	t.Status = req.Status
	t.ProjectID = req.ProjectID
	t.UserDataAccessLevel = req.UserDataAccessLevel
	return t
}

// UpdateRequest returns the full editable subset of t, as an update sends it.
func (t Task) UpdateRequest() UpdateTaskRequest {
	return UpdateTaskRequest{
		Name:                t.Name,
		Description:         t.Description,
		Status:              t.Status,
		ProjectID:           t.ProjectID,
		UserDataAccessLevel: t.UserDataAccessLevel,
	}
}
