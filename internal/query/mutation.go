package query

import (
	"context"

	"pmdesk/pkg/response"
)

// Mutation describes one write and its cache side effects. Callbacks run
// on the calling goroutine in the order OnMutate, Fn, OnSuccess or
// OnError, OnSettled. X is the rollback context OnMutate returns.
type Mutation[V, R, X any] struct {
	Fn        func(ctx context.Context, vars V) (R, error)
	OnMutate  func(ctx context.Context, vars V) X
	OnSuccess func(ctx context.Context, result R, vars V, rollback X)
	OnError   func(ctx context.Context, err error, vars V, rollback X)
	OnSettled func(ctx context.Context, result R, err error, vars V, rollback X)
}

// Mutate runs m once. Mutations are never retried.
func Mutate[V, R, X any](ctx context.Context, m Mutation[V, R, X], vars V) (R, error) {
	var rollback X
	if m.OnMutate != nil {
		rollback = m.OnMutate(ctx, vars)
	}

	result, err := m.Fn(ctx, vars)
	if err != nil {
		if m.OnError != nil {
			m.OnError(ctx, err, vars, rollback)
		}
	} else if m.OnSuccess != nil {
		m.OnSuccess(ctx, result, vars, rollback)
	}

	if m.OnSettled != nil {
		m.OnSettled(ctx, result, err, vars, rollback)
	}
	return result, err
}

// MutationResult is what callers of a resource mutation observe.
type MutationResult[R any] struct {
	IsError bool
	Message string
	Data    *response.Envelope[R]
	Err     error
}

func newMutationResult[R any](env *response.Envelope[R], err error, fallback string) MutationResult[R] {
	res := MutationResult[R]{Data: env, Err: err, IsError: err != nil}
	switch {
	case err != nil:
		res.Message = err.Error()
	case fallback != "":
		res.Message = fallback
	case env != nil:
		res.Message = env.Message
	}
	return res
}

// rejection turns an unsuccessful envelope returned without an error,
// such as a client-side guard, into a failure so the patch is rolled back.
type rejection struct{ message string }

func (r *rejection) Error() string { return r.message }

func checkEnvelope[R any](env *response.Envelope[R], err error) (*response.Envelope[R], error) {
	if err == nil && env != nil && !env.IsSuccess {
		return env, &rejection{message: env.Message}
	}
	return env, err
}
