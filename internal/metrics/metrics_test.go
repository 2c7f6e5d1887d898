package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dennisdiepolder/workforce/internal/types"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := newMetrics()
	m.RecordMutation("create", nil)
	m.RecordMutation("create", errors.New("boom"))
	m.RecordWebSocketConnect()
	m.RecordResync(20*time.Millisecond, nil)
	m.RecordHTTPRequest("/api/calls", 200)
	m.UpdateCallStats([]types.Call{
		{ID: "a", Status: types.StatusNew, Priority: types.PriorityHigh},
		{ID: "b", Status: types.StatusDone, Priority: types.PriorityHigh},
	})

	rec := httptest.NewRecorder()
	m.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	want := []string{
		`workforce_call_mutations_total{op="create"} 2`,
		`workforce_call_mutation_errors_total{op="create"} 1`,
		`workforce_websocket_active_connections 1`,
		`workforce_resync_cycles_total 1`,
		`workforce_calls_total 2`,
		`workforce_calls_by_priority{priority="high"} 2`,
		`workforce_calls_by_status{status="done"} 1`,
		`workforce_http_requests_total{endpoint="/api/calls",status="200"} 1`,
	}
	for _, line := range want {
		if !strings.Contains(body, line) {
			t.Errorf("expected %q in output:\n%s", line, body)
		}
	}
}

func TestActiveConnections(t *testing.T) {
	m := newMetrics()
	m.RecordWebSocketConnect()
	m.RecordWebSocketConnect()
	m.RecordWebSocketDisconnect()

	if got := m.GetActiveConnections(); got != 1 {
		t.Errorf("expected 1 active connection, got %d", got)
	}
}
