package kanban

import (
	"slices"

	"pmdesk/internal/domain"
)

type Column struct {
	ID    string
	Title string
}

// DefaultColumns are the board columns; their ids are task statuses.
func DefaultColumns() []Column {
	return []Column{
		{ID: domain.TaskStatusTodo, Title: "Todo"},
		{ID: domain.TaskStatusInProgress, Title: "In progress"},
		{ID: domain.TaskStatusDone, Title: "Done"},
	}
}

// Card is the board view of a task.
type Card struct {
	ID                  string
	Status              string
	Title               string
	Description         string
	ProjectID           string
	UserDataAccessLevel int
}

func CardFromTask(t domain.Task) Card {
	return Card{
		ID:                  t.ID,
		Status:              t.Status,
		Title:               t.Name,
		Description:         t.Description,
		ProjectID:           t.ProjectID,
		UserDataAccessLevel: t.UserDataAccessLevel,
	}
}

// UpdateRequest is the full editable subset of the task behind c.
func (c Card) UpdateRequest() domain.UpdateTaskRequest {
	return domain.UpdateTaskRequest{
		Name:                c.Title,
		Description:         c.Description,
		Status:              c.Status,
		ProjectID:           c.ProjectID,
		UserDataAccessLevel: c.UserDataAccessLevel,
	}
}

type Kind int

const (
	KindTask Kind = iota
	KindColumn
)

// Item is something being dragged or dragged over.
type Item struct {
	Kind Kind
	ID   string
}

func TaskItem(id string) *Item { return &Item{Kind: KindTask, ID: id} }
func ColumnItem(id string) *Item { return &Item{Kind: KindColumn, ID: id} }

type EventType int

const (
	DragStart EventType = iota
	DragOver
	DragEnd
	DragCancel
)

// Event is one step of a drag. Over is nil when nothing is under the pointer.
type Event struct {
	Type   EventType
	Active Item
	Over   *Item
}

// Effect is work to run after a state is committed.
type Effect interface {
	effect()
}

// StatusChange persists the column a task was dropped into.
type StatusChange struct {
	TaskID string
	Status string
}

func (StatusChange) effect() {}

type State struct {
	Columns []Column
	Cards   []Card
	// ActiveTask and ActiveColumn name what is being dragged.
	ActiveTask   string
	ActiveColumn string
	// PickedUp is the status of the active task when the drag started.
	PickedUp string
}

func NewState(cards []Card) State {
	return State{Columns: DefaultColumns(), Cards: cards}
}

// ColumnCards lists the cards of column in board order.
func (s State) ColumnCards(column string) []Card {
	var out []Card
	for _, c := range s.Cards {
		if c.Status == column {
			out = append(out, c)
		}
	}
	return out
}

func (s State) Card(id string) (Card, bool) {
	i := s.cardIndex(id)
	if i < 0 {
		return Card{}, false
	}
	return s.Cards[i], true
}

func (s State) cardIndex(id string) int {
	return slices.IndexFunc(s.Cards, func(c Card) bool { return c.ID == id })
}

func (s State) columnIndex(id string) int {
	return slices.IndexFunc(s.Columns, func(c Column) bool { return c.ID == id })
}

func (s State) clone() State {
	s.Columns = slices.Clone(s.Columns)
	s.Cards = slices.Clone(s.Cards)
	return s
}

// Reduce applies ev to s. It never mutates s and performs no I/O; status
// changes are returned as effects for the caller to run after committing.
func Reduce(s State, ev Event) (State, []Effect) {
	next := s.clone()

	switch ev.Type {
	case DragStart:
		switch ev.Active.Kind {
		case KindTask:
			if c, ok := next.Card(ev.Active.ID); ok {
				next.ActiveTask = c.ID
				next.PickedUp = c.Status
			}
		case KindColumn:
			if next.columnIndex(ev.Active.ID) >= 0 {
				next.ActiveColumn = ev.Active.ID
			}
		}
		return next, nil

	case DragOver:
		if ev.Over == nil || ev.Active.Kind != KindTask || *ev.Over == ev.Active {
			return next, nil
		}
		next.dragTaskOver(ev.Active.ID, *ev.Over)
		return next, nil

	case DragEnd:
		var effects []Effect
		if ev.Active.Kind == KindColumn && ev.Over != nil && ev.Over.Kind == KindColumn {
			from, to := next.columnIndex(ev.Active.ID), next.columnIndex(ev.Over.ID)
			if from >= 0 && to >= 0 && from != to {
				next.Columns = move(next.Columns, from, to)
			}
		}
		if ev.Active.Kind == KindTask && next.PickedUp != "" {
			if c, ok := next.Card(ev.Active.ID); ok && c.Status != next.PickedUp {
				effects = append(effects, StatusChange{TaskID: c.ID, Status: c.Status})
			}
		}
		next.ActiveTask, next.ActiveColumn, next.PickedUp = "", "", ""
		return next, effects

	case DragCancel:
		if ev.Active.Kind == KindTask && next.PickedUp != "" {
			if i := next.cardIndex(ev.Active.ID); i >= 0 {
				next.Cards[i].Status = next.PickedUp
			}
		}
		next.ActiveTask, next.ActiveColumn, next.PickedUp = "", "", ""
		return next, nil
	}

	return next, nil
}

func (s *State) dragTaskOver(activeID string, over Item) {
	ai := s.cardIndex(activeID)
	if ai < 0 {
		return
	}

	switch over.Kind {
	case KindTask:
		oi := s.cardIndex(over.ID)
		if oi < 0 {
			return
		}
		if s.Cards[ai].Status == s.Cards[oi].Status {
			s.Cards = move(s.Cards, ai, oi)
			return
		}
		card := s.Cards[ai]
		card.Status = s.Cards[oi].Status
		rest := slices.Delete(slices.Clone(s.Cards), ai, ai+1)
		at := slices.IndexFunc(rest, func(c Card) bool { return c.ID == over.ID })
		s.Cards = slices.Insert(rest, at, card)

	case KindColumn:
		if s.columnIndex(over.ID) < 0 {
			return
		}
		s.Cards[ai].Status = over.ID
	}
}

// move returns items with the element at from moved to index to.
func move[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	v := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, v)
}
