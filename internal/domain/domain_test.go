package domain

import (
	"encoding/json"
	"testing"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user AppUser
		want string
	}{
		{"full name", AppUser{UserName: "jdoe", FirstName: String("Jane"), LastName: String("Doe")}, "Jane Doe"},
		{"first only", AppUser{UserName: "jdoe", FirstName: String("Jane")}, "Jane"},
		{"last only", AppUser{UserName: "jdoe", LastName: String("Doe")}, "Doe"},
		{"empty names", AppUser{UserName: "jdoe", FirstName: String(""), LastName: String("")}, "jdoe"},
		{"no names", AppUser{UserName: "jdoe"}, "jdoe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginResultUnmarshal(t *testing.T) {
	var r LoginResult
	if err := json.Unmarshal([]byte(`"abc.def.ghi"`), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Token != "abc.def.ghi" {
		t.Errorf("Token = %q", r.Token)
	}

	if err := json.Unmarshal([]byte(`{"token":"t1","userId":"u1","user":{"id":"u1","userName":"jdoe"}}`), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Token != "t1" || r.UserID != "u1" || r.User == nil || r.User.UserName != "jdoe" {
		t.Errorf("unexpected result %+v", r)
	}

	if err := json.Unmarshal([]byte(`42`), &r); err == nil {
		t.Error("expected error for a number")
	}
}

func TestMergeKeepsIdentity(t *testing.T) {
	task := NewTask("t1", CreateTaskRequest{Name: "write docs", Status: TaskStatusTodo, ProjectID: "p1"})
	merged := task.Merge(UpdateTaskRequest{Name: "write more docs", Status: TaskStatusDone, ProjectID: "p1"})

	if merged.ID != "t1" {
		t.Errorf("ID = %q, want t1", merged.ID)
	}
	if merged.Name != "write more docs" || merged.Status != TaskStatusDone {
		t.Errorf("unexpected merge %+v", merged)
	}
	if task.Name != "write docs" {
		t.Error("Merge modified the receiver")
	}
	if merged.UpdateRequest() != (UpdateTaskRequest{Name: "write more docs", Status: TaskStatusDone, ProjectID: "p1"}) {
		t.Errorf("UpdateRequest() = %+v", merged.UpdateRequest())
	}

	project := NewProject("p1", CreateProjectRequest{Name: "site", Status: "active", WorkspaceID: "w1"})
	project.Workspace = &Workspace{ID: "w1", Name: "home"}
	project = project.Merge(UpdateProjectRequest{Name: "site v2", Status: "active", WorkspaceID: "w2"})
	if project.Workspace == nil || project.Workspace.ID != "w1" {
		t.Error("Merge dropped the embedded workspace")
	}
}

func TestPages(t *testing.T) {
	empty := EmptyPage[Task]()
	if empty.Items == nil || len(empty.Items) != 0 {
		t.Errorf("EmptyPage items = %v", empty.Items)
	}
	if empty.Page != 1 || empty.PageSize != 10 || empty.TotalPages != 1 || empty.TotalCount != 0 {
		t.Errorf("unexpected empty page %+v", empty)
	}

	body, err := json.Marshal(empty)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"items":[],"page":1,"pageSize":10,"totalCount":0,"totalPages":1,"hasNextPage":false,"hasPreviousPage":false,"links":[]}` {
		t.Errorf("EmptyPage json = %s", body)
	}

	one := SingleItemPage(Task{ID: "a"})
	if len(one.Items) != 1 || one.TotalCount != 1 {
		t.Errorf("unexpected single page %+v", one)
	}

	p := Page[Task]{Page: 3, TotalCount: 40}
	q := p.WithItems([]Task{{ID: "x"}})
	if q.Page != 3 || q.TotalCount != 40 || len(q.Items) != 1 || p.Items != nil {
		t.Errorf("WithItems() = %+v, original %+v", q, p)
	}
}

func TestFilterNormalized(t *testing.T) {
	f := DefaultFilter().Normalized()
	if f.SearchTerm != nil {
		t.Error("empty searchTerm should be dropped")
	}
	if f.Page == nil || *f.Page != 1 || f.SortColumn == nil || *f.SortColumn != "name" {
		t.Errorf("unexpected normalized filter %+v", f)
	}

	s, page, size, col, order := DefaultFilter().Fields()
	if s != "" || page != "1" || size != "10" || col != "name" || order != "asc" {
		t.Errorf("Fields() = %q %q %q %q %q", s, page, size, col, order)
	}
}
