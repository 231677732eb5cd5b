package domain

import (
	"encoding/json"
	"fmt"
)

type AppUser struct {
	ID                   string  `json:"id"`
	UserName             string  `json:"userName"`
	Email                string  `json:"email"`
	Password             string  `json:"password"`
	FirstName            *string `json:"firstName,omitempty"`
	LastName             *string `json:"lastName,omitempty"`
	UserType             *string `json:"userType,omitempty"`
	CreatedBy            *string `json:"createdBy,omitempty"`
	CreatedAt            *string `json:"createdAt,omitempty"`
	ModifiedAt           *string `json:"modifiedAt,omitempty"`
	UserAccessLevel      int     `json:"userAccessLevel,omitempty"`
	UserDataAccessLevel  int     `json:"userDataAccessLevel,omitempty"`
	NormalizedUserName   string  `json:"normalizedUserName,omitempty"`
	NormalizedEmail      string  `json:"normalizedEmail,omitempty"`
	EmailConfirmed       bool    `json:"emailConfirmed,omitempty"`
	SecurityStamp        string  `json:"securityStamp,omitempty"`
	ConcurrencyStamp     string  `json:"concurrencyStamp,omitempty"`
	PhoneNumber          *string `json:"phoneNumber,omitempty"`
	PhoneNumberConfirmed bool    `json:"phoneNumberConfirmed,omitempty"`
	TwoFactorEnabled     bool    `json:"twoFactorEnabled,omitempty"`
	LockoutEnd           *string `json:"lockoutEnd,omitempty"`
	LockoutEnabled       bool    `json:"lockoutEnabled,omitempty"`
	AccessFailedCount    int     `json:"accessFailedCount,omitempty"`
}

// DisplayName prefers "First Last" and falls back to the user name.
func (u AppUser) DisplayName() string {
	var first, last string
	if u.FirstName != nil {
		first = *u.FirstName
	}
	if u.LastName != nil {
		last = *u.LastName
	}
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return u.UserName
}

type CreateAppUserRequest struct {
	FirstName           *string `json:"firstName,omitempty"`
	LastName            *string `json:"lastName,omitempty"`
	UserDataAccessLevel int     `json:"userDataAccessLevel,omitempty" validate:"gte=0"`
	UserName            string  `json:"userName" validate:"required,min=3,max=30,alphanum"`
	Email               string  `json:"email" validate:"required,email"`
	Password            string  `json:"password" validate:"required,min=8"`
}

type UpdateAppUserRequest struct {
	FirstName           *string `json:"firstName,omitempty"`
	LastName            *string `json:"lastName,omitempty"`
	UserDataAccessLevel int     `json:"userDataAccessLevel,omitempty" validate:"gte=0"`
	UserName            string  `json:"userName" validate:"required,min=3,max=30,alphanum"`
	Email               string  `json:"email" validate:"required,email"`
	Password            string  `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	UserName   string `json:"userName" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe *bool  `json:"rememberMe,omitempty"`
}

// LoginResult is the data payload of a successful login.
type LoginResult struct {
	Token  string   `json:"token"`
	UserID string   `json:"userId,omitempty"`
	User   *AppUser `json:"user,omitempty"`
}

// UnmarshalJSON accepts either a bare token string or an object.
func (r *LoginResult) UnmarshalJSON(b []byte) error {
	var token string
	if err := json.Unmarshal(b, &token); err == nil {
		*r = LoginResult{Token: token}
		return nil
	}
	type plain LoginResult
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("login result: %w", err)
	}
	*r = LoginResult(p)
	return nil
}

func NewAppUser(id string, req CreateAppUserRequest) AppUser {
	return AppUser{
		ID:                  id,
		UserName:            req.UserName,
		Email:               req.Email,
		Password:            req.Password,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		UserDataAccessLevel: req.UserDataAccessLevel,
	}
}

func (u AppUser) Merge(req UpdateAppUserRequest) AppUser {
	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.UserDataAccessLevel = req.UserDataAccessLevel
	u.UserName = req.UserName
	u.Email = req.Email
	u.Password = req.Password
	return u
}

// WithoutPassword returns u with the password cleared.
func (u AppUser) WithoutPassword() AppUser {
	u.Password = ""
	return u
}
