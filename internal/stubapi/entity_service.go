package stubapi

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pmdesk/internal/domain"
	"pmdesk/internal/realtime"
	"pmdesk/internal/repository"
)

// Broadcaster receives an event after every successful write.
type Broadcaster interface {
	Broadcast(ev realtime.Event) error
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(realtime.Event) error { return nil }

// Behavior holds the per-entity hooks of an EntityService.
type Behavior[T, C, U any] struct {
	New   func(id string, data C) T
	Merge func(T, U) T
	// Prepare runs on every record before it is stored.
	Prepare func(T) (T, error)
	// Check validates references of a record about to be stored.
	Check func(T) error
	// Expand fills denormalized fields of a record being returned.
	Expand func(T) T
}

// EntityService implements the five REST operations for one entity.
type EntityService[T, C, U any] struct {
	entity   string
	name     string
	repo     repository.Repository[T]
	behavior Behavior[T, C, U]
	validate *validator.Validate
	events   Broadcaster
	log      *logrus.Entry
}

func NewEntityService[T, C, U any](entity, name string, repo repository.Repository[T], behavior Behavior[T, C, U], events Broadcaster, log *logrus.Entry) *EntityService[T, C, U] {
	if events == nil {
		events = nopBroadcaster{}
	}
	return &EntityService[T, C, U]{
		entity:   entity,
		name:     name,
		repo:     repo,
		behavior: behavior,
		validate: validator.New(),
		events:   events,
		log:      log.WithField("entity", entity),
	}
}

// Name is the display name used in response messages.
func (s *EntityService[T, C, U]) Name() string { return s.name }

func (s *EntityService[T, C, U]) Find(f domain.Filter) (domain.Page[T], error) {
	page, err := s.repo.Find(f)
	if err != nil {
		return page, err
	}
	for i, item := range page.Items {
		page.Items[i] = s.expand(item)
	}
	return page, nil
}

func (s *EntityService[T, C, U]) Get(id string) (T, error) {
	item, err := s.repo.Get(id)
	if err != nil {
		return item, err
	}
	return s.expand(item), nil
}

func (s *EntityService[T, C, U]) Create(data C) (string, error) {
	if err := s.validate.Struct(data); err != nil {
		return "", &ValidationError{Err: err}
	}

	id := uuid.New().String()
	item, err := s.store(s.behavior.New(id, data))
	if err != nil {
		return "", err
	}
	if err := s.repo.Create(item); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", s.entity, err)
	}

	s.publish(id, realtime.ActionCreated)
	return id, nil
}

func (s *EntityService[T, C, U]) Update(id string, data U) error {
	if err := s.validate.Struct(data); err != nil {
		return &ValidationError{Err: err}
	}

	existing, err := s.repo.Get(id)
	if err != nil {
		return err
	}
	item, err := s.store(s.behavior.Merge(existing, data))
	if err != nil {
		return err
	}
	if err := s.repo.Update(item); err != nil {
		return fmt.Errorf("failed to update %s: %w", s.entity, err)
	}

	s.publish(id, realtime.ActionUpdated)
	return nil
}

func (s *EntityService[T, C, U]) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.publish(id, realtime.ActionDeleted)
	return nil
}

// Seed stores item without validation or events.
func (s *EntityService[T, C, U]) Seed(item T) error {
	item, err := s.store(item)
	if err != nil {
		return err
	}
	return s.repo.Create(item)
}

func (s *EntityService[T, C, U]) store(item T) (T, error) {
	if s.behavior.Prepare != nil {
		var err error
		if item, err = s.behavior.Prepare(item); err != nil {
			return item, err
		}
	}
	if s.behavior.Check != nil {
		if err := s.behavior.Check(item); err != nil {
			return item, err
		}
	}
	return item, nil
}

func (s *EntityService[T, C, U]) expand(item T) T {
	if s.behavior.Expand == nil {
		return item
	}
	return s.behavior.Expand(item)
}

func (s *EntityService[T, C, U]) publish(id, action string) {
	if err := s.events.Broadcast(realtime.EntityChanged(s.entity, id, action)); err != nil {
		s.log.WithError(err).Warn("failed to broadcast change")
	}
}
