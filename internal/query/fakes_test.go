package query

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"pmdesk/internal/domain"
	"pmdesk/internal/logging"
	"pmdesk/pkg/response"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeTasks is an in-memory task backend with hooks for observing the
// cache while a call is in flight.
type fakeTasks struct {
	mu    sync.Mutex
	items []domain.Task

	findCalls    atomic.Int32
	findOneCalls atomic.Int32
	writeCalls   atomic.Int32

	findErr   error
	findGate  chan struct{}
	findEnter chan struct{}

	createID  string
	createErr error
	updateErr error
	deleteErr error

	onWrite func()
}

func newFakeTasks(ids ...string) *fakeTasks {
	f := &fakeTasks{}
	for _, id := range ids {
		f.items = append(f.items, domain.Task{ID: id, Name: "task " + id, Status: domain.TaskStatusTodo, ProjectID: "p1", Links: [][]domain.Link{}})
	}
	return f
}

func (f *fakeTasks) Entity() string { return "task" }

func (f *fakeTasks) Find(ctx context.Context, _ domain.Filter) (*response.Envelope[domain.Page[domain.Task]], error) {
	f.findCalls.Add(1)
	if f.findEnter != nil {
		f.findEnter <- struct{}{}
	}
	if f.findGate != nil {
		<-f.findGate
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	items := append([]domain.Task(nil), f.items...)
	f.mu.Unlock()

	page := domain.EmptyPage[domain.Task]().WithItems(items)
	page.TotalCount = len(items)
	return response.OK(page, "ok"), nil
}

func (f *fakeTasks) FindOne(ctx context.Context, req domain.FindOneRequest) (*response.Envelope[domain.Task], error) {
	f.findOneCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.items {
		if t.ID == req.DataID.ID {
			return response.OK(t, "ok"), nil
		}
	}
	return nil, errors.New("Failed to get task: Task not found")
}

func (f *fakeTasks) hook() {
	f.writeCalls.Add(1)
	if f.onWrite != nil {
		f.onWrite()
	}
}

func (f *fakeTasks) CreateOne(ctx context.Context, data domain.CreateTaskRequest) (*response.Envelope[string], error) {
	f.hook()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	f.items = append(f.items, domain.NewTask(f.createID, data))
	f.mu.Unlock()
	return response.OK(f.createID, "Task created"), nil
}

func (f *fakeTasks) UpdateOne(ctx context.Context, req domain.UpdateRequest[domain.UpdateTaskRequest]) (*response.Envelope[json.RawMessage], error) {
	f.hook()
	if req.DataID.ID == "" {
		return response.BadRequest[json.RawMessage]("ID is required to update the task.", "The ID is required for this request."), nil
	}
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	for i, t := range f.items {
		if t.ID == req.DataID.ID {
			f.items[i] = t.Merge(req.Data)
		}
	}
	f.mu.Unlock()
	return &response.Envelope[json.RawMessage]{IsSuccess: true, Message: "Task updated"}, nil
}

func (f *fakeTasks) DeleteOne(ctx context.Context, req domain.DeleteRequest) (*response.Envelope[json.RawMessage], error) {
	f.hook()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.mu.Lock()
	kept := f.items[:0:0]
	for _, t := range f.items {
		if t.ID != req.DataID.ID {
			kept = append(kept, t)
		}
	}
	f.items = kept
	f.mu.Unlock()
	return &response.Envelope[json.RawMessage]{IsSuccess: true, Message: "Task deleted"}, nil
}

func newTestCache(clock *fakeClock) *Cache {
	opts := DefaultOptions()
	opts.Clock = clock.Now
	opts.Logger = logging.Discard()
	return NewCache(opts)
}

func newTaskResource(cache *Cache, svc *fakeTasks) *TaskResource {
	return NewResource(cache, TasksEntity, Service[domain.Task, domain.CreateTaskRequest, domain.UpdateTaskRequest](svc), TaskBinding(), ResourceConfig{})
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func newTask(name string) domain.CreateTaskRequest {
	return domain.CreateTaskRequest{Name: name, Status: domain.TaskStatusTodo, ProjectID: "p1"}
}

// fakeAppUsers answers like the backend: users come back without passwords.
type fakeAppUsers struct {
	mu    sync.Mutex
	items []domain.AppUser

	onWrite func()
}

func (f *fakeAppUsers) Entity() string { return "appuser" }

func (f *fakeAppUsers) Find(ctx context.Context, _ domain.Filter) (*response.Envelope[domain.Page[domain.AppUser]], error) {
	f.mu.Lock()
	items := append([]domain.AppUser(nil), f.items...)
	f.mu.Unlock()
	page := domain.EmptyPage[domain.AppUser]().WithItems(items)
	page.TotalCount = len(items)
	return response.OK(page, "ok"), nil
}

func (f *fakeAppUsers) FindOne(ctx context.Context, req domain.FindOneRequest) (*response.Envelope[domain.AppUser], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.items {
		if u.ID == req.DataID.ID {
			return response.OK(u, "ok"), nil
		}
	}
	return nil, errors.New("Failed to get user: User not found")
}

func (f *fakeAppUsers) CreateOne(ctx context.Context, data domain.CreateAppUserRequest) (*response.Envelope[string], error) {
	if f.onWrite != nil {
		f.onWrite()
	}
	f.mu.Lock()
	id := "u" + strconv.Itoa(len(f.items)+1)
	f.items = append(f.items, domain.NewAppUser(id, data).WithoutPassword())
	f.mu.Unlock()
	return response.OK(id, "User created"), nil
}

func (f *fakeAppUsers) UpdateOne(ctx context.Context, req domain.UpdateRequest[domain.UpdateAppUserRequest]) (*response.Envelope[json.RawMessage], error) {
	if f.onWrite != nil {
		f.onWrite()
	}
	f.mu.Lock()
	for i, u := range f.items {
		if u.ID == req.DataID.ID {
			f.items[i] = u.Merge(req.Data).WithoutPassword()
		}
	}
	f.mu.Unlock()
	return &response.Envelope[json.RawMessage]{IsSuccess: true, Message: "User updated"}, nil
}

func (f *fakeAppUsers) DeleteOne(ctx context.Context, req domain.DeleteRequest) (*response.Envelope[json.RawMessage], error) {
	return nil, errors.New("not supported")
}
