package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"pmdesk/internal/domain"
	"pmdesk/internal/logging"
	"pmdesk/internal/transport"
	"pmdesk/pkg/response"
)

type recordedCall struct {
	method string
	path   string
	query  url.Values
	body   any
}

type fakeTransport struct {
	calls   []recordedCall
	replies map[string]func() (*transport.Response, error)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{replies: make(map[string]func() (*transport.Response, error))}
}

func (f *fakeTransport) on(method, path string, reply func() (*transport.Response, error)) {
	f.replies[method+" "+path] = reply
}

func (f *fakeTransport) Do(ctx context.Context, method, path string, query url.Values, body any) (*transport.Response, error) {
	f.calls = append(f.calls, recordedCall{method: method, path: path, query: query, body: body})
	if reply, ok := f.replies[method+" "+path]; ok {
		return reply()
	}
	return nil, &transport.StatusError{Method: method, Path: path, StatusCode: http.StatusNotFound}
}

func ok(body string) func() (*transport.Response, error) {
	return func() (*transport.Response, error) {
		return &transport.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	}
}

func status(code int, body string) func() (*transport.Response, error) {
	return func() (*transport.Response, error) {
		return nil, &transport.StatusError{StatusCode: code, Body: []byte(body)}
	}
}

func TestMissingIDGuard(t *testing.T) {
	ft := newFakeTransport()
	svc := NewServices(ft, logging.Discard())
	ctx := context.Background()

	tests := []struct {
		name    string
		call    func() (bool, string, []response.ErrorItem, error)
		message string
	}{
		{
			name: "findOne",
			call: func() (bool, string, []response.ErrorItem, error) {
				env, err := svc.Tasks.FindOne(ctx, domain.ByID(""))
				return env.IsSuccess, env.Message, env.Errors, err
			},
			message: "ID is required to fetch the task.",
		},
		{
			name: "updateOne",
			call: func() (bool, string, []response.ErrorItem, error) {
				env, err := svc.Projects.UpdateOne(ctx, domain.UpdateRequest[domain.UpdateProjectRequest]{})
				return env.IsSuccess, env.Message, env.Errors, err
			},
			message: "ID is required to update the project.",
		},
		{
			name: "deleteOne",
			call: func() (bool, string, []response.ErrorItem, error) {
				env, err := svc.Workspaces.DeleteOne(ctx, domain.DeleteRequest{})
				return env.IsSuccess, env.Message, env.Errors, err
			},
			message: "ID is required to delete the workspace.",
		},
		{
			name: "appUser findOne",
			call: func() (bool, string, []response.ErrorItem, error) {
				env, err := svc.AppUsers.FindOne(ctx, domain.ByID(""))
				return env.IsSuccess, env.Message, env.Errors, err
			},
			message: "ID is required to fetch the appUser.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isSuccess, message, errs, err := tt.call()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if isSuccess {
				t.Error("expected isSuccess=false")
			}
			if message != tt.message {
				t.Errorf("message = %q, want %q", message, tt.message)
			}
			if len(errs) != 1 || errs[0].StatusCode != 400 || errs[0].Status != "BadRequest" || errs[0].Description != "The ID is required for this request." {
				t.Errorf("errors = %+v", errs)
			}
		})
	}

	if len(ft.calls) != 0 {
		t.Errorf("guard issued %d network calls", len(ft.calls))
	}
}

func TestLoginGuard(t *testing.T) {
	ft := newFakeTransport()
	users := NewAppUserService(ft, nil)

	env, err := users.Login(context.Background(), domain.LoginRequest{UserName: "ana"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if env.IsSuccess || env.Message != "Invalid username or password." {
		t.Errorf("unexpected envelope %+v", env)
	}
	if desc, _ := env.FirstError(); desc != "Login failed. Please provide valid credentials." {
		t.Errorf("description = %q", desc)
	}
	if len(ft.calls) != 0 {
		t.Error("login guard issued a network call")
	}
}

func TestFind(t *testing.T) {
	ft := newFakeTransport()
	ft.on(http.MethodGet, "/tasks", ok(`{"isSuccess":true,"message":"ok","errors":null,"data":{
		"items":[{"id":"1","name":"a","status":"todo","projectId":"p","userDataAccessLevel":0,"links":[]}],
		"page":1,"pageSize":10,"totalCount":1,"totalPages":1,"hasNextPage":false,"hasPreviousPage":false,"links":[]}}`))

	tasks := NewTaskService(ft, nil)
	env, err := tasks.Find(context.Background(), domain.DefaultFilter())
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if env.Data == nil || len(env.Data.Items) != 1 || env.Data.Items[0].ID != "1" {
		t.Errorf("unexpected page %+v", env.Data)
	}

	q := ft.calls[0].query
	if q.Has("searchTerm") {
		t.Error("empty searchTerm must not be sent")
	}
	if q.Get("page") != "1" || q.Get("pageSize") != "10" || q.Get("sortColumn") != "name" || q.Get("sortOrder") != "asc" {
		t.Errorf("query = %s", q.Encode())
	}
}

func TestFailureMessages(t *testing.T) {
	notFound := `{"isSuccess":false,"data":null,"message":"Not found","errors":[{"statusCode":404,"status":"NotFound","description":"Task not found"}]}`

	tests := []struct {
		name       string
		reply      func() (*transport.Response, error)
		call       func(*TaskService) error
		want       string
		wantStatus int
		schema     bool
	}{
		{
			name:  "non-2xx with envelope",
			reply: status(http.StatusNotFound, notFound),
			call: func(s *TaskService) error {
				_, err := s.FindOne(context.Background(), domain.ByID("9"))
				return err
			},
			want:       "Failed to get task: Task not found",
			wantStatus: http.StatusNotFound,
		},
		{
			name:  "non-2xx without envelope",
			reply: status(http.StatusBadGateway, "<html>bad gateway</html>"),
			call: func(s *TaskService) error {
				_, err := s.FindOne(context.Background(), domain.ByID("9"))
				return err
			},
			want:       "Failed to get task: request failed with status code 502",
			wantStatus: http.StatusBadGateway,
		},
		{
			name:  "network error",
			reply: func() (*transport.Response, error) { return nil, errors.New("connection refused") },
			call: func(s *TaskService) error {
				_, err := s.FindOne(context.Background(), domain.ByID("9"))
				return err
			},
			want: "Failed to get task: connection refused",
		},
		{
			name:  "2xx business failure",
			reply: ok(notFound),
			call: func(s *TaskService) error {
				_, err := s.FindOne(context.Background(), domain.ByID("9"))
				return err
			},
			want:       "Failed to get task: Task not found",
			wantStatus: http.StatusNotFound,
		},
		{
			name:  "schema mismatch",
			reply: ok(`{"data":{}}`),
			call: func(s *TaskService) error {
				_, err := s.FindOne(context.Background(), domain.ByID("9"))
				return err
			},
			schema: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := newFakeTransport()
			ft.on(http.MethodGet, "/tasks/9", tt.reply)

			err := tt.call(NewTaskService(ft, nil))
			if err == nil {
				t.Fatal("expected error")
			}

			var se *Error
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not *service.Error", err)
			}
			if tt.schema {
				if !IsSchemaError(err) {
					t.Errorf("expected schema error, got %v", err)
				}
				if !strings.HasPrefix(err.Error(), "Failed to get task: invalid API response structure") {
					t.Errorf("Error() = %q", err.Error())
				}
				return
			}
			if IsSchemaError(err) {
				t.Error("unexpected schema error")
			}
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
			if StatusCode(err) != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", StatusCode(err), tt.wantStatus)
			}
		})
	}
}

func TestVerbs(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpFind, "retrieve"},
		{OpFindOne, "get"},
		{OpCreate, "create"},
		{OpUpdate, "update"},
		{OpDelete, "delete"},
		{OpLogin, "log in"},
	}
	for _, tt := range tests {
		if got := tt.op.Verb(); got != tt.want {
			t.Errorf("%s.Verb() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestRoundTripOverHTTP(t *testing.T) {
	var gotBody map[string]any
	var gotPath, gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&gotBody)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/workspaces":
			response.Created(w, "ws-42", "Workspace created")
		case r.Method == http.MethodPut:
			response.JSON(w, http.StatusOK, &response.Envelope[json.RawMessage]{IsSuccess: true, Message: "updated"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/app-users/login":
			response.Success(w, "signed.jwt.token", "Login successful")
		default:
			response.NotFound(w, "Not found", "Workspace not found")
		}
	}))
	defer srv.Close()

	svc := NewServices(transport.New(srv.URL+"/api"), nil)
	ctx := context.Background()

	created, err := svc.Workspaces.CreateOne(ctx, domain.CreateWorkspaceRequest{Name: "Ops"})
	if err != nil {
		t.Fatalf("CreateOne() error = %v", err)
	}
	if created.Data == nil || *created.Data != "ws-42" {
		t.Errorf("CreateOne() data = %v", created.Data)
	}
	if _, has := gotBody["id"]; has {
		t.Error("create payload must not carry an id")
	}

	_, err = svc.Workspaces.UpdateOne(ctx, domain.UpdateRequest[domain.UpdateWorkspaceRequest]{
		DataID: domain.IDRef{ID: "ws 42"},
		Data:   domain.UpdateWorkspaceRequest{Name: "Ops 2"},
	})
	if err != nil {
		t.Fatalf("UpdateOne() error = %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/workspaces/ws 42" || gotBody["name"] != "Ops 2" {
		t.Errorf("update sent %s %s %v", gotMethod, gotPath, gotBody)
	}

	login, err := svc.AppUsers.Login(ctx, domain.LoginRequest{UserName: "ana", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.Data == nil || login.Data.Token != "signed.jwt.token" {
		t.Errorf("Login() data = %+v", login.Data)
	}

	_, err = svc.Workspaces.DeleteOne(ctx, domain.DeleteRequest{DataID: domain.IDRef{ID: "nope"}})
	if err == nil || err.Error() != "Failed to delete workspace: Workspace not found" {
		t.Errorf("DeleteOne() error = %v", err)
	}
}
