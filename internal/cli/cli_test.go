package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmdesk/internal/config"
	"pmdesk/internal/domain"
	"pmdesk/internal/filter"
	"pmdesk/internal/handler"
	"pmdesk/internal/logging"
	"pmdesk/internal/persist"
	"pmdesk/internal/query"
	"pmdesk/internal/stubapi"
)

const testSecret = "cli-secret"

type cliEnv struct {
	cfg     *config.Config
	backend *stubapi.Backend

	// taskLists counts GET requests for task pages.
	taskLists atomic.Int32
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	backend := stubapi.NewBackend(stubapi.Options{
		JWTSecret:  testSecret,
		BcryptCost: 4,
		Logger:     logging.Discard(),
	})
	require.NoError(t, backend.SeedDemo())

	env := &cliEnv{backend: backend}
	router := handler.NewRouter(backend, nil, handler.RouterConfig{
		JWTSecret: testSecret,
		Logger:    logging.Discard(),
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == handler.APIPrefix+"/tasks" {
			env.taskLists.Add(1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	env.cfg = &config.Config{
		API:     config.APIConfig{BaseURL: srv.URL + handler.APIPrefix},
		Query:   config.QueryConfig{KeyStrategy: "concat"},
		Session: config.SessionConfig{
			CookieFile: filepath.Join(dir, "cookies.json"),
			ViewFile:   filepath.Join(dir, "views.json"),
		},
		Persist: config.PersistConfig{Driver: config.PersistFile, Path: filepath.Join(dir, "cache")},
	}

	prev := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = prev })

	return env
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd(func(ctx context.Context) (*App, error) {
		return NewApp(ctx, e.cfg, logging.Discard())
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) taskID(t *testing.T, name string) string {
	t.Helper()
	page, err := e.backend.Tasks.Find(domain.Filter{SearchTerm: domain.String(name)})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	return page.Items[0].ID
}

func TestSessionLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "whoami")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	out, err := env.run(t, stubapi.DemoUserName+"\n"+stubapi.DemoPassword+"\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "User name: ")
	assert.Contains(t, out, "Logged in as Demo User")

	_, err = os.Stat(env.cfg.Session.CookieFile)
	require.NoError(t, err, "login must store the cookie")

	out, err = env.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo User (demo)")

	out, err = env.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = env.run(t, "", "whoami")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLoginRejected(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "login", "-u", stubapi.DemoUserName, "-p", "wrong-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Login failed. Please provide valid credentials.")

	_, err = os.Stat(env.cfg.Session.CookieFile)
	assert.True(t, os.IsNotExist(err), "a rejected login must not store a cookie")
}

func TestEntityCommands(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "", "login", "-u", stubapi.DemoUserName, "-p", stubapi.DemoPassword)
	require.NoError(t, err)

	out, err := env.run(t, "", "tasks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Draft landing copy")
	assert.Contains(t, out, "Website")
	assert.Contains(t, out, "page 1 of 1, 4 total")

	projects, err := env.backend.Projects.Find(domain.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, projects.Items, 1)

	body := fmt.Sprintf(`{"name":"Write changelog","status":"todo","projectId":%q}`, projects.Items[0].ID)
	out, err = env.run(t, "", "tasks", "create", "--data", body)
	require.NoError(t, err)
	assert.Contains(t, out, "id: ")
	id := env.taskID(t, "Write changelog")

	out, err = env.run(t, "", "tasks", "get", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Write changelog"`)

	update := fmt.Sprintf(`{"name":"Write release notes","status":"in-progress","projectId":%q}`, projects.Items[0].ID)
	_, err = env.run(t, update, "tasks", "update", id, "--data", "-")
	require.NoError(t, err)
	task, err := env.backend.Tasks.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Write release notes", task.Name)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)

	out, err = env.run(t, "", "tasks", "list", "--search", "release", "--refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")

	_, err = env.run(t, "", "tasks", "delete", id)
	require.NoError(t, err)
	_, err = env.backend.Tasks.Get(id)
	assert.Error(t, err)

	_, err = env.run(t, "", "tasks", "create", "--data", `{"name":"Orphan","status":"todo","projectId":"missing"}`)
	require.Error(t, err)
	assert.Equal(t, "Failed to create task: Project not found", err.Error())

	_, err = env.run(t, "", "tasks", "create", "--data", `{"title":"wrong field"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON body")
}

func TestMutationPatchesListShownEarlier(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "", "login", "-u", stubapi.DemoUserName, "-p", stubapi.DemoPassword)
	require.NoError(t, err)

	out, err := env.run(t, "", "tasks", "list", "--page-size", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Build pricing page")
	assert.Contains(t, out, "page 1 of 2, 4 total")

	views, err := LoadViews(env.cfg.Session.ViewFile)
	require.NoError(t, err)
	view := views.Filter(query.TasksEntity)
	require.NotNil(t, view.PageSize)
	assert.Equal(t, 3, *view.PageSize)

	id := env.taskID(t, "Build pricing page")
	_, err = env.run(t, "", "tasks", "delete", id)
	require.NoError(t, err)

	store, err := persist.Open(context.Background(), env.cfg.Persist)
	require.NoError(t, err)
	snap, err := store.Load(context.Background(), SnapshotName)
	require.NoError(t, err)

	key := filter.Concat.ListKey(query.TasksEntity, view)
	var found bool
	for _, e := range snap.Entries {
		if e.Key() != key {
			continue
		}
		found = true
		assert.NotContains(t, string(e.Data), id)
		assert.Contains(t, string(e.Data), "Draft landing copy")
	}
	assert.True(t, found, "the page-size 3 list must stay cached")
}

func TestListRefreshSendsOneRequest(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "", "login", "-u", stubapi.DemoUserName, "-p", stubapi.DemoPassword)
	require.NoError(t, err)

	_, err = env.run(t, "", "tasks", "list")
	require.NoError(t, err)
	require.EqualValues(t, 1, env.taskLists.Load())

	out, err := env.run(t, "", "tasks", "list", "--refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "4 total")
	assert.EqualValues(t, 2, env.taskLists.Load(), "--refresh must not also fetch the stale restored page")
}

func TestViewsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "views.json")

	views, err := LoadViews(path)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFilter(), views.Filter(query.TasksEntity))

	f := domain.Filter{
		SearchTerm: domain.String("copy"),
		Page:       domain.Int(2),
		PageSize:   domain.Int(5),
		SortColumn: domain.String("status"),
		SortOrder:  domain.String("desc"),
	}
	assert.True(t, views.Sync(query.TasksEntity, f))
	assert.False(t, views.Sync(query.TasksEntity, f), "same filter twice is a no-op")
	require.NoError(t, views.Save())

	loaded, err := LoadViews(path)
	require.NoError(t, err)
	assert.Equal(t, f, loaded.Filter(query.TasksEntity))
	assert.Equal(t, domain.DefaultFilter(), loaded.Filter(query.ProjectsEntity))

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = LoadViews(path)
	assert.Error(t, err)
}

func TestEntityCommandsRequireLogin(t *testing.T) {
	env := newCLIEnv(t)

	for _, args := range [][]string{
		{"workspaces", "list"},
		{"projects", "get", "p1"},
		{"issues", "delete", "i1"},
		{"users", "list"},
		{"board", "show"},
		{"dashboard"},
		{"watch"},
	} {
		_, err := env.run(t, "", args...)
		assert.ErrorIs(t, err, ErrNotLoggedIn, strings.Join(args, " "))
	}
}

func TestBoardAndDashboard(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "", "login", "-u", stubapi.DemoUserName, "-p", stubapi.DemoPassword)
	require.NoError(t, err)

	out, err := env.run(t, "", "board", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Todo (2)")
	assert.Contains(t, out, "In progress (1)")
	assert.Contains(t, out, "Done (1)")

	id := env.taskID(t, "Pick color palette")
	out, err = env.run(t, "", "board", "move", id, domain.TaskStatusDone)
	require.NoError(t, err)
	assert.Contains(t, out, "Moved "+id+" to done")

	task, err := env.backend.Tasks.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusDone, task.Status)

	_, err = env.run(t, "", "board", "move", id, "archived")
	assert.Error(t, err)

	out, err = env.run(t, "", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "4 tasks")
	assert.Contains(t, out, "50.0%")
}

func TestUsersListHidesPasswords(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "", "login", "-u", stubapi.DemoUserName, "-p", stubapi.DemoPassword)
	require.NoError(t, err)

	out, err := env.run(t, "", "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo User")
	assert.NotContains(t, out, stubapi.DemoPassword)
}

func TestRealtimeURL(t *testing.T) {
	tests := []struct {
		configured string
		base       string
		want       string
	}{
		{"", "http://localhost:5000/api", "ws://localhost:5000/ws"},
		{"", "https://pm.example.com/api/", "wss://pm.example.com/ws"},
		{"", "http://localhost:5000", "ws://localhost:5000/ws"},
		{"ws://feed:9000/changes", "http://localhost:5000/api", "ws://feed:9000/changes"},
	}
	for _, tt := range tests {
		got, err := realtimeURL(tt.configured, tt.base)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.base)
	}
}
