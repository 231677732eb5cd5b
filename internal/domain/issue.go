package domain

type Issue struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	Status              string   `json:"status"`
	ProjectID           string   `json:"projectId"`
	UserDataAccessLevel int      `json:"userDataAccessLevel"`
	Links               [][]Link `json:"links"`
	Project             *Project `json:"project,omitempty"`
}

type CreateIssueRequest struct {
	Name                string `json:"name" validate:"required,min=1,max=100"`
	Description         string `json:"description,omitempty" validate:"max=500"`
	Status              string `json:"status" validate:"required"`
	ProjectID           string `json:"projectId" validate:"required"`
	UserDataAccessLevel int    `json:"userDataAccessLevel" validate:"gte=0"`
}

type UpdateIssueRequest struct {
	Name                string `json:"name" validate:"required,min=1,max=100"`
	Description         string `json:"description,omitempty" validate:"max=500"`
	Status              string `json:"status" validate:"required"`
	ProjectID           string `json:"projectId" validate:"required"`
	UserDataAccessLevel int    `json:"userDataAccessLevel" validate:"gte=0"`
}

func NewIssue(id string, req CreateIssueRequest) Issue {
	return Issue{
		ID:                  id,
		Name:                req.Name,
		Description:         req.Description,
		Status:              req.Status,
		ProjectID:           req.ProjectID,
		UserDataAccessLevel: req.UserDataAccessLevel,
		Links:               [][]Link{},
	}
}

func (i Issue) Merge(req UpdateIssueRequest) Issue {
	i.Name = req.Name
	i.Description = req.Description
	i.Status = req.Status
	i.ProjectID = req.ProjectID
	i.UserDataAccessLevel = req.UserDataAccessLevel
	return i
}
