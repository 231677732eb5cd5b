package domain

type Workspace struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	UserDataAccessLevel int      `json:"userDataAccessLevel"`
	Links               [][]Link `json:"links"`
}

type CreateWorkspaceRequest struct {
	Name                string `json:"name" validate:"required,min=1,max=100"`
	Description         string `json:"description,omitempty" validate:"max=500"`
	UserDataAccessLevel int    `json:"userDataAccessLevel" validate:"gte=0"`
}

type UpdateWorkspaceRequest struct {
	Name                string `json:"name" validate:"required,min=1,max=100"`
	Description         string `json:"description,omitempty" validate:"max=500"`
	UserDataAccessLevel int    `json:"userDataAccessLevel" validate:"gte=0"`
}

// NewWorkspace builds the record a create request will become once the server assigns id.
func NewWorkspace(id string, req CreateWorkspaceRequest) Workspace {
	return Workspace{
		ID:                  id,
		Name:                req.Name,
		Description:         req.Description,
		UserDataAccessLevel: req.UserDataAccessLevel,
		Links:               [][]Link{},
	}
}

// Merge overlays the editable fields of req onto w.
func (w Workspace) Merge(req UpdateWorkspaceRequest) Workspace {
	w.Name = req.Name
	w.Description = req.Description
	w.UserDataAccessLevel = req.UserDataAccessLevel
	return w
}
