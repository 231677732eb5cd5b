package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"pmdesk/internal/domain"
	"pmdesk/internal/stubapi"
	"pmdesk/internal/transport"
	"pmdesk/pkg/response"
)

const (
	loginFailedMessage     = "Invalid username or password."
	loginFailedDescription = "Login failed. Please provide valid credentials."
)

type AuthHandler struct {
	authService *stubapi.AuthService
	validator   *validator.Validate
}

func NewAuthHandler(authService *stubapi.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator.New(),
	}
}

// Login returns the token as data and also sets it as the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequestError(w, "Invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequestError(w, loginFailedMessage, loginFailedDescription)
		return
	}

	token, err := h.authService.Login(req)
	if err != nil {
		if errors.Is(err, stubapi.ErrInvalidCredentials) {
			response.Error(w, http.StatusUnauthorized, loginFailedMessage, loginFailedDescription)
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     transport.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.authService.Expiration()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	response.Success(w, token, "Login successful")
}
