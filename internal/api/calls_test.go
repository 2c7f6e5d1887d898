package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dennisdiepolder/workforce/internal/auth"
	"github.com/dennisdiepolder/workforce/internal/repository"
	"github.com/dennisdiepolder/workforce/internal/storage"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

var fixedNow = time.Date(2024, time.March, 13, 15, 30, 0, 0, time.Local)

type recordingNotifier struct {
	ops []string
}

func (n *recordingNotifier) Announce(_ context.Context, op, id string) error {
	n.ops = append(n.ops, op+":"+id)
	return nil
}

type rejectingStore struct{ *storage.MemoryStore }

func (rejectingStore) Update(context.Context, string, types.Patch) error {
	return errors.New("table unavailable")
}

func newTestServer(t *testing.T, store storage.Store, role string) (*httptest.Server, *repository.Repository, *recordingNotifier) {
	t.Helper()
	repo := repository.New(store, repository.ModeWriteThrough, zerolog.Nop(),
		repository.WithClock(func() time.Time { return fixedNow }))
	if err := repo.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	n := &recordingNotifier{}
	h := NewCallsHandler(repo, zerolog.Nop(), WithNotifier(n), WithClock(func() time.Time { return fixedNow }))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if role != "" {
				req = req.WithContext(auth.WithUser(req.Context(), &auth.Claims{Email: "d@example.com", Role: role}))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api", func(r chi.Router) {
		h.Routes(r, auth.RequireWriter)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo, n
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestCreateAndList(t *testing.T) {
	srv, _, n := newTestServer(t, storage.NewMemoryStore(), auth.RoleDispatcher)

	var created types.Call
	if code := do(t, srv, http.MethodPost, "/api/calls", `{"name":"Acme","phone":"555 0100"}`, &created); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if created.ID == "" || created.Priority != types.PriorityMedium || created.Status != types.StatusNew {
		t.Errorf("unexpected created call %+v", created)
	}
	if created.CreatedAt != types.Millis(fixedNow) {
		t.Errorf("expected createdAt from clock, got %d", created.CreatedAt)
	}

	var list types.CallList
	do(t, srv, http.MethodGet, "/api/calls?q=acme", "", &list)
	if list.Total != 1 || list.Empty || len(list.Calls) != 1 {
		t.Errorf("unexpected list %+v", list)
	}

	do(t, srv, http.MethodGet, "/api/calls?filter=done", "", &list)
	if len(list.Calls) != 0 || list.Total != 1 || list.Empty {
		t.Errorf("filter should hide the call but keep totals, got %+v", list)
	}

	if len(n.ops) != 1 || n.ops[0] != "create:"+created.ID {
		t.Errorf("unexpected notices %v", n.ops)
	}
}

func TestEmptyCollection(t *testing.T) {
	srv, _, _ := newTestServer(t, storage.NewMemoryStore(), auth.RoleViewer)

	var list types.CallList
	do(t, srv, http.MethodGet, "/api/calls", "", &list)
	if !list.Empty || list.Calls == nil {
		t.Errorf("expected empty flag and non-nil calls, got %+v", list)
	}

	var b BoardResponse
	do(t, srv, http.MethodGet, "/api/board", "", &b)
	if len(b.Columns) != 5 || !b.Empty {
		t.Errorf("expected five empty columns, got %+v", b)
	}
}

func TestBadInput(t *testing.T) {
	seed := types.Call{ID: "a", Name: "Acme", Priority: types.PriorityLow, Status: types.StatusNew, CreatedAt: 1}
	srv, _, _ := newTestServer(t, storage.NewMemoryStore(seed), auth.RoleAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad priority", http.MethodPost, "/api/calls", `{"priority":"urgent"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/calls", `{`, http.StatusBadRequest},
		{"bad filter", http.MethodGet, "/api/calls?filter=later", "", http.StatusBadRequest},
		{"bad bucket", http.MethodPost, "/api/calls/a/move", `{"bucket":"someday"}`, http.StatusBadRequest},
		{"bad status patch", http.MethodPatch, "/api/calls/a", `{"status":"paused"}`, http.StatusBadRequest},
		{"unknown patch", http.MethodPatch, "/api/calls/missing", `{"name":"x"}`, http.StatusNotFound},
		{"unknown get", http.MethodGet, "/api/calls/missing", "", http.StatusNotFound},
		{"unknown complete", http.MethodPost, "/api/calls/missing/complete", "", http.StatusNotFound},
		{"unknown delete", http.MethodDelete, "/api/calls/missing", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := do(t, srv, tt.method, tt.path, tt.body, nil); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMoveCompleteAdvance(t *testing.T) {
	seed := types.Call{ID: "a", Name: "Acme", Priority: types.PriorityLow, Status: types.StatusNew, CreatedAt: 1}
	srv, repo, _ := newTestServer(t, storage.NewMemoryStore(seed), auth.RoleTechnician)

	var c types.Call
	if code := do(t, srv, http.MethodPost, "/api/calls/a/move", `{"bucket":"tomorrow"}`, &c); code != http.StatusOK {
		t.Fatalf("move: expected 200, got %d", code)
	}
	slot := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.Local)
	if c.Status != types.StatusScheduled || c.ScheduledAt == nil || *c.ScheduledAt != types.Millis(slot) {
		t.Errorf("unexpected moved call %+v", c)
	}
	if c.UpdatedAt == nil {
		t.Error("expected updatedAt to be stamped")
	}

	do(t, srv, http.MethodPost, "/api/calls/a/advance", "", &c)
	if c.Status != types.StatusInProgress {
		t.Errorf("expected in_progress after advance, got %s", c.Status)
	}

	do(t, srv, http.MethodPost, "/api/calls/a/complete", "", &c)
	if c.Status != types.StatusDone {
		t.Errorf("expected done, got %s", c.Status)
	}

	var b BoardResponse
	do(t, srv, http.MethodGet, "/api/board", "", &b)
	if b.Columns[4].Bucket != "done" || len(b.Columns[4].Calls) != 1 {
		t.Errorf("expected the call in the completed column, got %+v", b.Columns)
	}

	if code := do(t, srv, http.MethodPatch, "/api/calls/a", `{"scheduledAt":null,"status":"new"}`, &c); code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d", code)
	}
	got, _ := repo.Get("a")
	if got.ScheduledAt != nil || got.Status != types.StatusNew {
		t.Errorf("expected cleared schedule and new status, got %+v", got)
	}
}

func TestDial(t *testing.T) {
	srv, _, _ := newTestServer(t, storage.NewMemoryStore(
		types.Call{ID: "a", Phone: "555 0100", CreatedAt: 1},
		types.Call{ID: "b", Phone: "  ", CreatedAt: 2},
	), auth.RoleViewer)

	var d dialResponse
	if code := do(t, srv, http.MethodGet, "/api/calls/a/dial", "", &d); code != http.StatusOK || d.URI != "tel:5550100" {
		t.Errorf("expected tel:5550100, got %d %q", code, d.URI)
	}
	if code := do(t, srv, http.MethodGet, "/api/calls/b/dial", "", nil); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for blank phone, got %d", code)
	}
}

func TestWriteAccess(t *testing.T) {
	seed := types.Call{ID: "a", CreatedAt: 1}

	srv, _, _ := newTestServer(t, storage.NewMemoryStore(seed), auth.RoleViewer)
	if code := do(t, srv, http.MethodDelete, "/api/calls/a", "", nil); code != http.StatusForbidden {
		t.Errorf("viewer delete: expected 403, got %d", code)
	}
	if code := do(t, srv, http.MethodGet, "/api/calls/a", "", nil); code != http.StatusOK {
		t.Errorf("viewer read: expected 200, got %d", code)
	}

	anon, _, _ := newTestServer(t, storage.NewMemoryStore(seed), "")
	if code := do(t, anon, http.MethodPost, "/api/calls", `{}`, nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous create: expected 401, got %d", code)
	}
}

func TestStoreFailureIsBadGateway(t *testing.T) {
	seed := types.Call{ID: "a", CreatedAt: 1}
	srv, repo, n := newTestServer(t, rejectingStore{storage.NewMemoryStore(seed)}, auth.RoleAdmin)

	if code := do(t, srv, http.MethodPost, "/api/calls/a/complete", "", nil); code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", code)
	}
	if got, _ := repo.Get("a"); got.Status == types.StatusDone {
		t.Error("failed write must not be applied")
	}
	if len(n.ops) != 0 {
		t.Errorf("no notice expected after a failed write, got %v", n.ops)
	}
}
