package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"pmdesk/pkg/response"
)

// Op names an adapter operation.
type Op string

const (
	OpFind    Op = "find"
	OpFindOne Op = "findOne"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpLogin   Op = "login"
)

// Verb is the word used for op in failure messages.
func (o Op) Verb() string {
	switch o {
	case OpFind:
		return "retrieve"
	case OpFindOne:
		return "get"
	case OpLogin:
		return "log in"
	}
	return string(o)
}

// Error is returned by every adapter operation that fails after leaving
// the client.
type Error struct {
	Op     Op
	Entity string
	// Message is the server's first error description when one was
	// returned, else the underlying error text.
	Message    string
	StatusCode int
	Envelope   *response.Envelope[json.RawMessage]
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Failed to %s %s: %s", e.Op.Verb(), e.Entity, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrRejected is wrapped when a 2xx reply carries isSuccess=false.
var ErrRejected = errors.New("request rejected by server")

// IsSchemaError reports whether err comes from a reply that did not match
// the envelope schema. Such failures are never retried.
func IsSchemaError(err error) bool {
	return errors.Is(err, response.ErrInvalidEnvelope)
}

// StatusCode extracts the HTTP status of a failed call, or 0.
func StatusCode(err error) int {
	var se *Error
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
