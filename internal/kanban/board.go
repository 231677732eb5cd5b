package kanban

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"pmdesk/internal/domain"
	"pmdesk/internal/logging"
	"pmdesk/internal/query"
)

var (
	ErrUnknownCard   = errors.New("unknown card")
	ErrUnknownColumn = errors.New("unknown column")
)

// TaskStore is the part of the task resource a board drives.
type TaskStore interface {
	Find(ctx context.Context, f domain.Filter) query.Result[domain.Page[domain.Task]]
	Update(ctx context.Context, req domain.UpdateRequest[domain.UpdateTaskRequest]) query.MutationResult[json.RawMessage]
}

// viewer is implemented by stores that patch one list view per mutation,
// such as *query.TaskResource.
type viewer interface {
	SetView(f domain.Filter)
}

// Board keeps reducer state for one task list and persists status changes.
type Board struct {
	tasks  TaskStore
	filter domain.Filter
	log    *logrus.Entry

	mu    sync.Mutex
	state State
}

func NewBoard(tasks TaskStore, f domain.Filter, log logrus.FieldLogger) *Board {
	b := &Board{
		tasks:  tasks,
		filter: f,
		log:    logging.Component(log, "kanban"),
		state:  NewState(nil),
	}
	b.focus()
	return b
}

// focus points the store's mutations at the board's list.
func (b *Board) focus() {
	if v, ok := b.tasks.(viewer); ok {
		v.SetView(b.filter)
	}
}

// Load replaces the cards with the current task list. Column order is kept.
func (b *Board) Load(ctx context.Context) error {
	res := b.tasks.Find(ctx, b.filter)
	if res.Err != nil {
		return res.Err
	}

	cards := make([]Card, 0, len(res.Data.Items))
	for _, t := range res.Data.Items {
		cards = append(cards, CardFromTask(t))
	}

	b.mu.Lock()
	b.state.Cards = cards
	b.mu.Unlock()
	return nil
}

func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.clone()
}

// Dispatch reduces ev, commits the result and then runs its effects. A
// failed status change reverts that card.
func (b *Board) Dispatch(ctx context.Context, ev Event) error {
	b.mu.Lock()
	pickedUp := b.state.PickedUp
	next, effects := Reduce(b.state, ev)
	b.state = next
	b.mu.Unlock()

	var errs []error
	for _, eff := range effects {
		switch e := eff.(type) {
		case StatusChange:
			if err := b.persist(ctx, e, pickedUp); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (b *Board) persist(ctx context.Context, change StatusChange, pickedUp string) error {
	b.mu.Lock()
	card, ok := b.state.Card(change.TaskID)
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCard, change.TaskID)
	}

	b.focus()
	res := b.tasks.Update(ctx, domain.UpdateRequest[domain.UpdateTaskRequest]{
		DataID: domain.IDRef{ID: card.ID},
		Data:   card.UpdateRequest(),
	})
	if !res.IsError {
		b.log.WithFields(logrus.Fields{"task_id": card.ID, "status": card.Status}).Debug("task moved")
		return nil
	}

	b.log.WithField("task_id", card.ID).Warn(res.Message)
	b.mu.Lock()
	if i := b.state.cardIndex(card.ID); i >= 0 && pickedUp != "" {
		b.state.Cards[i].Status = pickedUp
	}
	b.mu.Unlock()
	if res.Err != nil {
		return res.Err
	}
	return errors.New(res.Message)
}

// Move drags taskID onto column in one go.
func (b *Board) Move(ctx context.Context, taskID, column string) error {
	st := b.State()
	if _, ok := st.Card(taskID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCard, taskID)
	}
	if st.columnIndex(column) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}

	task := *TaskItem(taskID)
	for _, ev := range []Event{
		{Type: DragStart, Active: task},
		{Type: DragOver, Active: task, Over: ColumnItem(column)},
		{Type: DragEnd, Active: task, Over: ColumnItem(column)},
	} {
		if err := b.Dispatch(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
