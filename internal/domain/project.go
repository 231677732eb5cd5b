package domain

type Project struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description,omitempty"`
	Status              string     `json:"status"`
	WorkspaceID         string     `json:"workspaceId"`
	UserDataAccessLevel int        `json:"userDataAccessLevel"`
	Links               [][]Link   `json:"links"`
	Workspace           *Workspace `json:"workspace,omitempty"`
}

type CreateProjectRequest struct {
	Name                string `json:"name" validate:"required,min=1,max=100"`
	Description         string `json:"description,omitempty" validate:"max=500"`
	Status              string `json:"status" validate:"required"`
	WorkspaceID         string `json:"workspaceId" validate:"required"`
	UserDataAccessLevel int    `json:"userDataAccessLevel" validate:"gte=0"`
}

type UpdateProjectRequest struct {
	Name                string `json:"name" validate:"required,min=1,max=100"`
	Description         string `json:"description,omitempty" validate:"max=500"`
	Status              string `json:"status" validate:"required"`
	WorkspaceID         string `json:"workspaceId" validate:"required"`
	UserDataAccessLevel int    `json:"userDataAccessLevel" validate:"gte=0"`
}

func NewProject(id string, req CreateProjectRequest) Project {
	return Project{
		ID:                  id,
		Name:                req.Name,
		Description:         req.Description,
		Status:              req.Status,
		WorkspaceID:         req.WorkspaceID,
		UserDataAccessLevel: req.UserDataAccessLevel,
		Links:               [][]Link{},
	}
}

// Merge overlays the editable fields of req. The embedded workspace is left
// as cached; a refetch resolves it if the parent changed.
func (p Project) Merge(req UpdateProjectRequest) Project {
	p.Name = req.Name
	p.Description = req.Description
	p.Status = req.Status
	p.WorkspaceID = req.WorkspaceID
	p.UserDataAccessLevel = req.UserDataAccessLevel
	return p
}
