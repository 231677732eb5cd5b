package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidEnvelope marks a body that does not match the envelope schema.
var ErrInvalidEnvelope = errors.New("invalid API response structure")

// wireEnvelope mirrors Envelope with pointers so missing keys can be told
// apart from zero values.
type wireEnvelope struct {
	IsSuccess *bool           `json:"isSuccess" validate:"required"`
	Data      json.RawMessage `json:"data"`
	Message   *string         `json:"message" validate:"required"`
	Errors    []wireError     `json:"errors" validate:"omitempty,dive"`
}

type wireError struct {
	StatusCode  *int    `json:"statusCode" validate:"required"`
	Status      *string `json:"status" validate:"required"`
	Description *string `json:"description" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(envelopeInvariant, wireEnvelope{})
	return v
}

// envelopeInvariant rejects failed envelopes that carry no errors.
func envelopeInvariant(sl validator.StructLevel) {
	env := sl.Current().Interface().(wireEnvelope)
	if env.IsSuccess != nil && !*env.IsSuccess && len(env.Errors) == 0 {
		sl.ReportError(env.Errors, "errors", "Errors", "required_on_failure", "")
	}
}

// Decode parses body as an Envelope, validating it against the schema
// before the payload is unmarshalled into T.
func Decode[T any](body []byte) (*Envelope[T], error) {
	var wire wireEnvelope
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := validate.Struct(wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	env := &Envelope[T]{
		IsSuccess: *wire.IsSuccess,
		Message:   *wire.Message,
	}
	if wire.Errors != nil {
		env.Errors = make([]ErrorItem, len(wire.Errors))
		for i, e := range wire.Errors {
			env.Errors[i] = ErrorItem{
				StatusCode:  *e.StatusCode,
				Status:      *e.Status,
				Description: *e.Description,
			}
		}
	}

	if len(wire.Data) > 0 && !bytes.Equal(bytes.TrimSpace(wire.Data), []byte("null")) {
		var data T
		if err := json.Unmarshal(wire.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrInvalidEnvelope, err)
		}
		env.Data = &data
	}

	return env, nil
}

// Peek extracts whatever envelope a failed response carried, without
// enforcing the schema. It returns nil when the body is not JSON.
func Peek(body []byte) *Envelope[json.RawMessage] {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	return &env
}
