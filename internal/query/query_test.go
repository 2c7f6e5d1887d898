package query

import (
	"errors"
	"testing"
	"time"

	"github.com/dennisdiepolder/workforce/internal/board"
	"github.com/dennisdiepolder/workforce/internal/types"
)

var now = time.Date(2024, time.March, 13, 15, 30, 0, 0, time.Local)

func ms(t time.Time) *int64 {
	v := types.Millis(t)
	return &v
}

func sampleCalls() []types.Call {
	today := time.Date(2024, time.March, 13, 9, 0, 0, 0, time.Local)
	return []types.Call{
		{ID: "a", Name: "Acme HVAC", Phone: "555 0100", Status: types.StatusNew, CreatedAt: 1},
		{ID: "b", Name: "Bolt Electric", Address: "12 Main St", Status: types.StatusScheduled, ScheduledAt: ms(today.Add(2 * time.Hour)), CreatedAt: 3},
		{ID: "c", Name: "City Plumbing", Notes: "Leaking BOILER", Status: types.StatusScheduled, ScheduledAt: ms(today), CreatedAt: 2},
		{ID: "d", Name: "Delta Roofing", Status: types.StatusDone, CreatedAt: 5},
		{ID: "e", Name: "Echo Glass", Status: types.StatusInProgress, ScheduledAt: ms(today.AddDate(0, 0, 1)), CreatedAt: 4},
	}
}

func ids(calls []types.Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestVisible(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		query  string
		want   []string
	}{
		{"all, no query, newest first", FilterAll, "", []string{"d", "e", "b", "c", "a"}},
		{"status filter", Filter(types.StatusScheduled), "", []string{"b", "c"}},
		{"query matches notes case-insensitively", FilterAll, "  boiler ", []string{"c"}},
		{"query matches phone", FilterAll, "555 01", []string{"a"}},
		{"query matches address", FilterAll, "main st", []string{"b"}},
		{"filter then query", Filter(types.StatusNew), "bolt", []string{}},
		{"no match", FilterAll, "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Visible(sampleCalls(), tt.filter, tt.query))
			if !equalIDs(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestVisibleDoesNotMutateInput(t *testing.T) {
	calls := sampleCalls()
	before := ids(calls)
	Visible(calls, FilterAll, "")
	if !equalIDs(ids(calls), before) {
		t.Error("input slice was reordered")
	}
}

func TestVisibleNarrowingNeverGrows(t *testing.T) {
	calls := sampleCalls()
	all := len(Visible(calls, FilterAll, ""))
	if all != len(calls) {
		t.Fatalf("expected all %d calls, got %d", len(calls), all)
	}

	queries := []string{"", "e", "el", "ele", "elec"}
	for _, st := range append([]types.Status{""}, types.Statuses...) {
		filter := FilterAll
		if st != "" {
			filter = Filter(st)
		}
		prev := all
		for _, q := range queries {
			n := len(Visible(calls, filter, q))
			if n > prev {
				t.Errorf("filter %s query %q grew result from %d to %d", filter, q, prev, n)
			}
			prev = n
		}
	}
}

func TestBoard(t *testing.T) {
	cols := Board(sampleCalls(), "", now)

	if len(cols) != len(board.Buckets) {
		t.Fatalf("expected %d columns, got %d", len(board.Buckets), len(cols))
	}
	want := map[board.Bucket][]string{
		board.Unscheduled: {"a"},
		board.Today:       {"c", "b"},
		board.Tomorrow:    {"e"},
		board.Week:        {},
		board.Done:        {"d"},
	}
	for i, col := range cols {
		if col.Bucket != board.Buckets[i] {
			t.Errorf("column %d: expected %s, got %s", i, board.Buckets[i], col.Bucket)
		}
		if got := ids(col.Calls); !equalIDs(got, want[col.Bucket]) {
			t.Errorf("column %s: expected %v, got %v", col.Bucket, want[col.Bucket], got)
		}
	}
}

func TestBoardAppliesQuery(t *testing.T) {
	total := 0
	for _, col := range Board(sampleCalls(), "plumbing", now) {
		total += len(col.Calls)
		if len(col.Calls) > 0 && col.Bucket != board.Today {
			t.Errorf("unexpected match in column %s", col.Bucket)
		}
	}
	if total != 1 {
		t.Errorf("expected 1 call on the board, got %d", total)
	}
}

func TestCounts(t *testing.T) {
	counts := Counts(sampleCalls())
	if counts[types.StatusScheduled] != 2 || counts[types.StatusDone] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	if _, ok := Counts(nil)[types.StatusInProgress]; !ok {
		t.Error("expected every status to be present")
	}
}

func TestParseFilter(t *testing.T) {
	for _, in := range []string{"", "all", "ALL"} {
		if f, err := ParseFilter(in); err != nil || f != FilterAll {
			t.Errorf("ParseFilter(%q): got %q, %v", in, f, err)
		}
	}
	if f, err := ParseFilter("done"); err != nil || f != Filter(types.StatusDone) {
		t.Errorf("got %q, %v", f, err)
	}
	if _, err := ParseFilter("archived"); !errors.Is(err, types.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}
