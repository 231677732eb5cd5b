package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"pmdesk/internal/filter"
	"pmdesk/internal/repository"
	"pmdesk/internal/stubapi"
	"pmdesk/pkg/hash"
	"pmdesk/pkg/response"
)

// EntityHandler serves the REST routes of one entity.
type EntityHandler[T, C, U any] struct {
	svc *stubapi.EntityService[T, C, U]
}

func NewEntityHandler[T, C, U any](svc *stubapi.EntityService[T, C, U]) *EntityHandler[T, C, U] {
	return &EntityHandler[T, C, U]{svc: svc}
}

// Register mounts list, get, create, update and delete under path.
func (h *EntityHandler[T, C, U]) Register(r *mux.Router, path string) {
	r.HandleFunc(path, h.List).Methods("GET", "OPTIONS")
	r.HandleFunc(path, h.Create).Methods("POST", "OPTIONS")
	r.HandleFunc(path+"/{id}", h.Get).Methods("GET", "OPTIONS")
	r.HandleFunc(path+"/{id}", h.Update).Methods("PUT", "OPTIONS")
	r.HandleFunc(path+"/{id}", h.Delete).Methods("DELETE", "OPTIONS")
}

func (h *EntityHandler[T, C, U]) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Find(filter.Parse(r.URL.Query()))
	if err != nil {
		writeError(w, h.svc.Name(), err)
		return
	}

	response.Success(w, page, fmt.Sprintf("%s list retrieved", h.svc.Name()))
}

func (h *EntityHandler[T, C, U]) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.svc.Name(), err)
		return
	}

	response.Success(w, item, fmt.Sprintf("%s retrieved", h.svc.Name()))
}

func (h *EntityHandler[T, C, U]) Create(w http.ResponseWriter, r *http.Request) {
	var req C
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequestError(w, "Invalid request body", err.Error())
		return
	}

	id, err := h.svc.Create(req)
	if err != nil {
		writeError(w, h.svc.Name(), err)
		return
	}

	response.Created(w, id, fmt.Sprintf("%s created", h.svc.Name()))
}

func (h *EntityHandler[T, C, U]) Update(w http.ResponseWriter, r *http.Request) {
	var req U
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequestError(w, "Invalid request body", err.Error())
		return
	}

	if err := h.svc.Update(mux.Vars(r)["id"], req); err != nil {
		writeError(w, h.svc.Name(), err)
		return
	}

	response.Message(w, fmt.Sprintf("%s updated", h.svc.Name()))
}

func (h *EntityHandler[T, C, U]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, h.svc.Name(), err)
		return
	}

	response.Message(w, fmt.Sprintf("%s deleted", h.svc.Name()))
}

func writeError(w http.ResponseWriter, name string, err error) {
	var verr *stubapi.ValidationError
	var rerr *stubapi.ReferenceError

	switch {
	case errors.As(err, &verr):
		response.BadRequestError(w, "Validation failed", verr.Error())
	case errors.As(err, &rerr):
		response.BadRequestError(w, "Invalid reference", rerr.Entity+" not found")
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(w, "Not found", name+" not found")
	case errors.Is(err, repository.ErrInvalidSort), errors.Is(err, repository.ErrInvalidFilter):
		response.BadRequestError(w, "Invalid filter", err.Error())
	case errors.Is(err, hash.ErrPasswordTooShort):
		response.BadRequestError(w, "Validation failed", err.Error())
	case errors.Is(err, stubapi.ErrUserNameTaken), errors.Is(err, repository.ErrExists):
		response.Conflict(w, "Conflict", err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}
