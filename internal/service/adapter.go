package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"pmdesk/internal/domain"
	"pmdesk/internal/filter"
	"pmdesk/internal/logging"
	"pmdesk/internal/transport"
	"pmdesk/pkg/response"
)

// Transport is the part of transport.Client the adapters use.
type Transport interface {
	Do(ctx context.Context, method, path string, query url.Values, body any) (*transport.Response, error)
}

const missingIDDescription = "The ID is required for this request."

// Adapter maps typed requests for one entity onto its REST endpoint.
// T is the record, C the create body and U the update body.
type Adapter[T, C, U any] struct {
	client   Transport
	endpoint string
	entity   string
	log      *logrus.Entry
}

func NewAdapter[T, C, U any](client Transport, endpoint, entity string, log logrus.FieldLogger) *Adapter[T, C, U] {
	return &Adapter[T, C, U]{
		client:   client,
		endpoint: endpoint,
		entity:   entity,
		log:      logging.Component(log, "service").WithField("entity", entity),
	}
}

func (a *Adapter[T, C, U]) Entity() string { return a.entity }

func (a *Adapter[T, C, U]) Endpoint() string { return a.endpoint }

func (a *Adapter[T, C, U]) Find(ctx context.Context, f domain.Filter) (*response.Envelope[domain.Page[T]], error) {
	query, err := filter.Values(f)
	if err != nil {
		return nil, &Error{Op: OpFind, Entity: a.entity, Message: err.Error(), Err: err}
	}
	return call[domain.Page[T]](ctx, a.client, a.log, a.entity, OpFind, http.MethodGet, a.endpoint, query, nil)
}

func (a *Adapter[T, C, U]) FindOne(ctx context.Context, req domain.FindOneRequest) (*response.Envelope[T], error) {
	if req.DataID.ID == "" {
		return a.missingID(OpFindOne), nil
	}
	return call[T](ctx, a.client, a.log, a.entity, OpFindOne, http.MethodGet, a.recordPath(req.DataID.ID), nil, nil)
}

// CreateOne returns the server-assigned id as the envelope data.
func (a *Adapter[T, C, U]) CreateOne(ctx context.Context, data C) (*response.Envelope[string], error) {
	return call[string](ctx, a.client, a.log, a.entity, OpCreate, http.MethodPost, a.endpoint, nil, data)
}

func (a *Adapter[T, C, U]) UpdateOne(ctx context.Context, req domain.UpdateRequest[U]) (*response.Envelope[json.RawMessage], error) {
	if req.DataID.ID == "" {
		return missingIDEnvelope[json.RawMessage](OpUpdate, a.entity), nil
	}
	return call[json.RawMessage](ctx, a.client, a.log, a.entity, OpUpdate, http.MethodPut, a.recordPath(req.DataID.ID), nil, req.Data)
}

func (a *Adapter[T, C, U]) DeleteOne(ctx context.Context, req domain.DeleteRequest) (*response.Envelope[json.RawMessage], error) {
	if req.DataID.ID == "" {
		return missingIDEnvelope[json.RawMessage](OpDelete, a.entity), nil
	}
	return call[json.RawMessage](ctx, a.client, a.log, a.entity, OpDelete, http.MethodDelete, a.recordPath(req.DataID.ID), nil, nil)
}

func (a *Adapter[T, C, U]) recordPath(id string) string {
	return a.endpoint + "/" + url.PathEscape(id)
}

func (a *Adapter[T, C, U]) missingID(op Op) *response.Envelope[T] {
	a.log.WithField("op", op).Warn("missing id, request not sent")
	return missingIDEnvelope[T](op, a.entity)
}

func missingIDEnvelope[R any](op Op, entity string) *response.Envelope[R] {
	verb := string(op)
	if op == OpFindOne {
		verb = "fetch"
	}
	return response.BadRequest[R](fmt.Sprintf("ID is required to %s the %s.", verb, entity), missingIDDescription)
}

// call performs one round trip and turns every failure into *Error.
func call[R any](ctx context.Context, client Transport, log *logrus.Entry, entity string, op Op, method, path string, query url.Values, body any) (*response.Envelope[R], error) {
	log = log.WithFields(logrus.Fields{"op": op, "path": path})
	log.Debug("request")

	resp, err := client.Do(ctx, method, path, query, body)
	if err != nil {
		serr := transportError(entity, op, err)
		log.WithError(serr).Warn("request failed")
		return nil, serr
	}

	env, err := response.Decode[R](resp.Body)
	if err != nil {
		log.WithError(err).Warn("response does not match envelope schema")
		return nil, &Error{Op: op, Entity: entity, Message: err.Error(), StatusCode: resp.StatusCode, Err: err}
	}

	if !env.IsSuccess {
		msg, _ := env.FirstError()
		serr := &Error{
			Op:         op,
			Entity:     entity,
			Message:    msg,
			StatusCode: env.Errors[0].StatusCode,
			Envelope:   response.Peek(resp.Body),
			Err:        fmt.Errorf("%w: %s", ErrRejected, env.Message),
		}
		log.WithError(serr).Warn("request rejected")
		return env, serr
	}

	return env, nil
}

func transportError(entity string, op Op, err error) *Error {
	serr := &Error{Op: op, Entity: entity, Message: err.Error(), Err: err}

	var se *transport.StatusError
	if errors.As(err, &se) {
		serr.StatusCode = se.StatusCode
		if env := response.Peek(se.Body); env != nil {
			serr.Envelope = env
			if desc, ok := env.FirstError(); ok && desc != "" {
				serr.Message = desc
			}
		}
	}
	return serr
}
