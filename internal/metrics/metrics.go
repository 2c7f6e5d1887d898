package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dennisdiepolder/workforce/internal/types"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Call mutation metrics, keyed by operation (create, update, delete)
	mutationsTotal map[string]int64
	mutationErrors map[string]int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketMessagesTotal       int64
	WebSocketErrorsTotal         int64
	activeConnections            int64

	// Resync metrics
	ResyncCyclesTotal  int64
	ResyncErrorsTotal  int64
	lastResyncDuration time.Duration

	// Call distribution
	callsByStatus   map[types.Status]int
	callsByPriority map[types.Priority]int
	totalCalls      int

	// HTTP metrics
	httpRequestsTotal map[string]map[int]int64 // endpoint -> status -> count

	startTime time.Time
}

var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		mutationsTotal:    make(map[string]int64),
		mutationErrors:    make(map[string]int64),
		callsByStatus:     make(map[types.Status]int),
		callsByPriority:   make(map[types.Priority]int),
		httpRequestsTotal: make(map[string]map[int]int64),
		startTime:         time.Now(),
	}
}

// RecordMutation counts a create, update or delete and whether it failed
func (m *Metrics) RecordMutation(op string, err error) {
	m.mu.Lock()
	m.mutationsTotal[op]++
	if err != nil {
		m.mutationErrors[op]++
	}
	m.mu.Unlock()
}

func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

func (m *Metrics) RecordWebSocketMessage() {
	m.mu.Lock()
	m.WebSocketMessagesTotal++
	m.mu.Unlock()
}

func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// RecordResync records one snapshot resync cycle
func (m *Metrics) RecordResync(duration time.Duration, err error) {
	m.mu.Lock()
	m.ResyncCyclesTotal++
	if err != nil {
		m.ResyncErrorsTotal++
	}
	m.lastResyncDuration = duration
	m.mu.Unlock()
}

// UpdateCallStats recomputes the call distribution gauges
func (m *Metrics) UpdateCallStats(calls []types.Call) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callsByStatus = make(map[types.Status]int)
	m.callsByPriority = make(map[types.Priority]int)
	m.totalCalls = len(calls)

	for _, c := range calls {
		m.callsByStatus[c.Status]++
		m.callsByPriority[c.Priority]++
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		write("workforce_uptime_seconds", time.Since(m.startTime).Seconds())

		for op, count := range m.mutationsTotal {
			write("workforce_call_mutations_total", count, "op", op)
		}
		for op, count := range m.mutationErrors {
			write("workforce_call_mutation_errors_total", count, "op", op)
		}

		write("workforce_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("workforce_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("workforce_websocket_active_connections", m.activeConnections)
		write("workforce_websocket_messages_total", m.WebSocketMessagesTotal)
		write("workforce_websocket_errors_total", m.WebSocketErrorsTotal)

		write("workforce_resync_cycles_total", m.ResyncCyclesTotal)
		write("workforce_resync_errors_total", m.ResyncErrorsTotal)
		write("workforce_resync_duration_seconds", m.lastResyncDuration.Seconds())

		write("workforce_calls_total", m.totalCalls)
		for status, count := range m.callsByStatus {
			write("workforce_calls_by_status", count, "status", string(status))
		}
		for priority, count := range m.callsByPriority {
			write("workforce_calls_by_priority", count, "priority", string(priority))
		}

		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("workforce_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
