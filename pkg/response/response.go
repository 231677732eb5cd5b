package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the shape of every body the API returns.
type Envelope[T any] struct {
	IsSuccess bool        `json:"isSuccess"`
	Data      *T          `json:"data"`
	Message   string      `json:"message"`
	Errors    []ErrorItem `json:"errors"`
}

// ErrorItem is one entry of Envelope.Errors.
type ErrorItem struct {
	StatusCode  int    `json:"statusCode"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// FirstError returns the description of the first error, if any.
func (e *Envelope[T]) FirstError() (string, bool) {
	if e == nil || len(e.Errors) == 0 {
		return "", false
	}
	return e.Errors[0].Description, true
}

// OK builds a successful envelope around data.
func OK[T any](data T, message string) *Envelope[T] {
	return &Envelope[T]{
		IsSuccess: true,
		Data:      &data,
		Message:   message,
		Errors:    nil,
	}
}

// Fail builds a failed envelope with a single error entry.
func Fail[T any](statusCode int, message, description string) *Envelope[T] {
	return &Envelope[T]{
		IsSuccess: false,
		Data:      nil,
		Message:   message,
		Errors: []ErrorItem{{
			StatusCode:  statusCode,
			Status:      StatusName(statusCode),
			Description: description,
		}},
	}
}

// BadRequest is the envelope returned for requests rejected before any network call.
func BadRequest[T any](message, description string) *Envelope[T] {
	return Fail[T](http.StatusBadRequest, message, description)
}

// StatusName maps a status code to the backend's error status names.
func StatusName(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "BadRequest"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "NotFound"
	case http.StatusConflict:
		return "Conflict"
	case http.StatusInternalServerError:
		return "InternalServerError"
	}
	return http.StatusText(code)
}

func JSON[T any](w http.ResponseWriter, statusCode int, env *Envelope[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(env)
}

func Success[T any](w http.ResponseWriter, data T, message string) {
	JSON(w, http.StatusOK, OK(data, message))
}

func Created[T any](w http.ResponseWriter, data T, message string) {
	JSON(w, http.StatusCreated, OK(data, message))
}

func Error(w http.ResponseWriter, statusCode int, message, description string) {
	JSON(w, statusCode, Fail[json.RawMessage](statusCode, message, description))
}

func BadRequestError(w http.ResponseWriter, message, description string) {
	Error(w, http.StatusBadRequest, message, description)
}

func Unauthorized(w http.ResponseWriter, description string) {
	Error(w, http.StatusUnauthorized, "Unauthorized", description)
}

func NotFound(w http.ResponseWriter, message, description string) {
	Error(w, http.StatusNotFound, message, description)
}

func InternalError(w http.ResponseWriter, description string) {
	Error(w, http.StatusInternalServerError, "Internal server error", description)
}

func Forbidden(w http.ResponseWriter, description string) {
	Error(w, http.StatusForbidden, "Forbidden", description)
}

func Conflict(w http.ResponseWriter, message, description string) {
	Error(w, http.StatusConflict, message, description)
}

// Message writes a successful envelope without data.
func Message(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, &Envelope[json.RawMessage]{IsSuccess: true, Message: message})
}
