package printers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dennisdiepolder/workforce/internal/alerts"
	"github.com/dennisdiepolder/workforce/internal/query"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

var now = time.Date(2024, time.March, 13, 15, 30, 0, 0, time.Local)

func TestShortID(t *testing.T) {
	if got := ShortID("0190b3c2-7f1e-7abc-9def-0123456789ab"); got != "456789ab" {
		t.Errorf("unexpected short id %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("short ids are kept, got %q", got)
	}
}

func TestList(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}

	pp.List([]types.Call{
		{ID: "0190b3c2-7f1e-7abc-9def-0123456789ab", Name: "", Priority: types.PriorityHigh, Status: types.StatusInProgress, Phone: "555 0100"},
	}, false)

	out := buf.String()
	for _, want := range []string{"Service calls - 1 call", "456789ab", "High", "In Progress", "Unnamed", "555 0100"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0190b3c2") {
		t.Error("full id shown without ShowID")
	}
}

func TestListEmptyStates(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}

	pp.List(nil, true)
	if !strings.Contains(buf.String(), "no service calls yet") {
		t.Errorf("expected empty collection hint, got %q", buf.String())
	}

	buf.Reset()
	pp.List(nil, false)
	if !strings.Contains(buf.String(), "none") || strings.Contains(buf.String(), "yet") {
		t.Errorf("expected plain none for a filtered view, got %q", buf.String())
	}
}

func TestBoard(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf, ShowID: true}

	late := types.Millis(now.Add(-2 * time.Hour))
	calls := []types.Call{
		{ID: "a", Name: "Acme", Priority: types.PriorityMedium, Status: types.StatusScheduled, ScheduledAt: &late, CreatedAt: 1},
		{ID: "b", Name: "Bolt", Priority: types.PriorityLow, Status: types.StatusDone, CreatedAt: 2},
	}
	pp.Board(query.Board(calls, "", now), alerts.CheckCallAlerts(calls, now))

	out := buf.String()
	for _, want := range []string{"Unscheduled - 0 calls", "Today - 1 call", "Completed - 1 call", "Acme", "! Overdue by 2h0m"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	if err := pp.JSON(map[string]string{"uri": "tel:5550100"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"uri": "tel:5550100"`) {
		t.Errorf("unexpected json %s", buf.String())
	}
}
