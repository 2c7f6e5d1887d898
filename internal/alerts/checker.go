// Package alerts derives attention flags for calls. Flags are advisory and
// never move a call to another board column.
package alerts

import (
	"fmt"
	"time"

	"github.com/dennisdiepolder/workforce/internal/board"
	"github.com/dennisdiepolder/workforce/internal/types"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one rule firing for one call
type Alert struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

const (
	overdueCritical    = 24 * time.Hour
	unscheduledWarning = time.Hour
)

// CheckCallAlerts evaluates the alert rules for every call. Calls without
// alerts are absent from the result.
func CheckCallAlerts(calls []types.Call, now time.Time) map[string][]Alert {
	out := make(map[string][]Alert)
	for _, c := range calls {
		if as := Check(c, now); len(as) > 0 {
			out[c.ID] = as
		}
	}
	return out
}

// Check evaluates the alert rules for one call
func Check(c types.Call, now time.Time) []Alert {
	if c.Status == types.StatusDone {
		return nil
	}

	var alerts []Alert
	if c.ScheduledAt != nil {
		at := types.FromMillis(*c.ScheduledAt)
		switch {
		case at.Before(now):
			dur := now.Sub(at)
			sev := SeverityWarning
			if dur > overdueCritical {
				sev = SeverityCritical
			}
			alerts = append(alerts, Alert{
				Rule:     "overdue",
				Severity: sev,
				Message:  fmt.Sprintf("Overdue by %s", formatDuration(dur)),
			})
		case !board.InHorizon(c, now):
			alerts = append(alerts, Alert{
				Rule:     "beyond_week",
				Severity: SeverityInfo,
				Message:  "Scheduled after this week",
			})
		}
	} else if c.Priority == types.PriorityHigh {
		dur := now.Sub(types.FromMillis(c.CreatedAt))
		if dur > unscheduledWarning {
			alerts = append(alerts, Alert{
				Rule:     "high_unscheduled",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("High priority, unscheduled for %s", formatDuration(dur)),
			})
		}
	}
	return alerts
}

func formatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if mins >= 24*60 {
		return fmt.Sprintf("%dd%dh", mins/(24*60), (mins/60)%24)
	}
	if mins >= 60 {
		hours := mins / 60
		mins = mins % 60
		return fmt.Sprintf("%dh%dm", hours, mins)
	}
	return fmt.Sprintf("%dm%ds", mins, secs)
}
