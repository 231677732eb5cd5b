package filter

import (
	"net/url"
	"testing"

	"pmdesk/internal/domain"
)

func TestListKey(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.Filter
		want   string
	}{
		{
			name:   "default view",
			filter: domain.DefaultFilter(),
			want:   "110nameasc",
		},
		{
			name:   "empty filter",
			filter: domain.Filter{},
			want:   "",
		},
		{
			name:   "search only",
			filter: domain.Filter{SearchTerm: domain.String("bug")},
			want:   "bug",
		},
		{
			name: "absent fields are empty, not undefined",
			filter: domain.Filter{
				Page:      domain.Int(2),
				SortOrder: domain.String("desc"),
			},
			want: "2desc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ListKey("tasks", tt.filter)
			if got.Entity != "tasks" || got.Unique != tt.want {
				t.Errorf("ListKey() = %+v, want tasks/%q", got, tt.want)
			}
		})
	}
}

func TestListKeyDistinguishesFields(t *testing.T) {
	base := domain.DefaultFilter()
	variants := []domain.Filter{
		{SearchTerm: domain.String("x"), Page: base.Page, PageSize: base.PageSize, SortColumn: base.SortColumn, SortOrder: base.SortOrder},
		{SearchTerm: base.SearchTerm, Page: domain.Int(2), PageSize: base.PageSize, SortColumn: base.SortColumn, SortOrder: base.SortOrder},
		{SearchTerm: base.SearchTerm, Page: base.Page, PageSize: domain.Int(20), SortColumn: base.SortColumn, SortOrder: base.SortOrder},
		{SearchTerm: base.SearchTerm, Page: base.Page, PageSize: base.PageSize, SortColumn: domain.String("status"), SortOrder: base.SortOrder},
		{SearchTerm: base.SearchTerm, Page: base.Page, PageSize: base.PageSize, SortColumn: base.SortColumn, SortOrder: domain.String("desc")},
	}

	baseKey := ListKey("projects", base)
	for i, v := range variants {
		if ListKey("projects", v) == baseKey {
			t.Errorf("variant %d collides with the base key %q", i, baseKey.Unique)
		}
	}

	if ListKey("projects", base) == ListKey("issues", base) {
		t.Error("keys of different entities must differ")
	}
}

// Adjacent numeric fields run together under Concat. Structured keeps
// them apart.
func TestConcatCollision(t *testing.T) {
	a := domain.Filter{Page: domain.Int(1), PageSize: domain.Int(23)}
	b := domain.Filter{Page: domain.Int(12), PageSize: domain.Int(3)}

	ka, kb := ListKey("tasks", a), ListKey("tasks", b)
	if ka != kb || ka.Unique != "123" {
		t.Errorf("Concat keys = %q, %q; want both \"123\"", ka.Unique, kb.Unique)
	}

	sa, sb := Structured.ListKey("tasks", a), Structured.ListKey("tasks", b)
	if sa == sb {
		t.Errorf("Structured keys collide: %q", sa.Unique)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{in: "", want: Concat},
		{in: "concat", want: Concat},
		{in: "structured", want: Structured},
		{in: "md5", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKeyString(t *testing.T) {
	if got := DetailKey("tasks", "42").String(); got != "tasks/42" {
		t.Errorf("String() = %q", got)
	}
	if got := EntityKey("tasks").String(); got != "tasks" {
		t.Errorf("String() = %q", got)
	}
}

func TestValues(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.Filter
		want   string
	}{
		{
			name:   "default view drops the empty search term",
			filter: domain.DefaultFilter(),
			want:   "page=1&pageSize=10&sortColumn=name&sortOrder=asc",
		},
		{
			name:   "nothing set",
			filter: domain.Filter{},
			want:   "",
		},
		{
			name:   "empty sort strings are absent",
			filter: domain.Filter{SearchTerm: domain.String("a b"), SortColumn: domain.String("")},
			want:   "searchTerm=a+b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Values(tt.filter)
			if err != nil {
				t.Fatalf("Values() error = %v", err)
			}
			if got := v.Encode(); got != tt.want {
				t.Errorf("Values() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	f := domain.Filter{
		SearchTerm: domain.String("login"),
		Page:       domain.Int(3),
		PageSize:   domain.Int(25),
		SortColumn: domain.String("status"),
		SortOrder:  domain.String("desc"),
	}
	v, err := Values(f)
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	if got := Parse(v); ListKey("tasks", got) != ListKey("tasks", f) {
		t.Errorf("Parse(Values(f)) = %+v", got)
	}

	bad := Parse(url.Values{"page": {"two"}})
	if bad.Page != nil {
		t.Errorf("malformed page parsed as %d", *bad.Page)
	}
}

func TestLocationSync(t *testing.T) {
	loc, err := NewLocation("status=logging&searchTerm=old")
	if err != nil {
		t.Fatalf("NewLocation() error = %v", err)
	}

	if !loc.Sync(domain.DefaultFilter()) {
		t.Fatal("first sync should write")
	}
	v := loc.Values()
	if v.Has("searchTerm") {
		t.Error("empty search term should remove the param")
	}
	if v.Get("page") != "1" || v.Get("pageSize") != "10" || v.Get("sortColumn") != "name" || v.Get("sortOrder") != "asc" {
		t.Errorf("unexpected params %s", v.Encode())
	}
	if v.Get("status") != "logging" {
		t.Error("unrelated params must be preserved")
	}

	if loc.Sync(domain.DefaultFilter()) {
		t.Error("syncing the same filter again must not write")
	}
	if loc.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", loc.Writes())
	}

	next := domain.DefaultFilter()
	next.Page = domain.Int(2)
	if !loc.Sync(next) {
		t.Error("page change should write")
	}

	cleared := domain.Filter{SortColumn: domain.String("")}
	if loc.Sync(cleared) {
		t.Error("absent fields must not clear existing params")
	}
	if loc.Values().Get("sortColumn") != "name" {
		t.Error("sortColumn should survive an empty value")
	}
}

func TestLocationReloadReproducesView(t *testing.T) {
	view := domain.DefaultFilter()
	view.SearchTerm = domain.String("deploy")
	view.Page = domain.Int(4)

	loc, _ := NewLocation("")
	loc.Sync(view)

	reloaded, err := NewLocation(loc.String())
	if err != nil {
		t.Fatalf("NewLocation() error = %v", err)
	}
	if ListKey("tasks", reloaded.Filter()) != ListKey("tasks", view) {
		t.Errorf("reloaded view %+v differs from %+v", reloaded.Filter(), view)
	}
}

func TestNewLocationInvalid(t *testing.T) {
	if _, err := NewLocation("a=%zz"); err == nil {
		t.Error("NewLocation() expected error for bad escape")
	}
}
