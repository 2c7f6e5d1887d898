package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidStatus   = errors.New("invalid status")
)

// Priority ranks how urgently a call should be dispatched
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status represents the lifecycle state of a service call
type Status string

const (
	StatusNew        Status = "new"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists every status in lifecycle order
var Statuses = []Status{StatusNew, StatusScheduled, StatusInProgress, StatusDone}

// Priorities lists every priority from least to most urgent
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParseStatus validates external input
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// ParsePriority validates external input
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Priorities {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

func (s Status) Label() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusScheduled:
		return "Scheduled"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Completed"
	default:
		return string(s)
	}
}

// Label renders unknown priorities as Medium, matching the create default
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityLow:
		return "Low"
	default:
		return "Medium"
	}
}

// Call is a customer service request tracked on the board.
// Timestamps are epoch milliseconds.
type Call struct {
	ID          string   `json:"id" dynamodbav:"ID"`
	Name        string   `json:"name" dynamodbav:"Name"`
	Phone       string   `json:"phone" dynamodbav:"Phone"`
	Address     string   `json:"address" dynamodbav:"Address"`
	Priority    Priority `json:"priority" dynamodbav:"Priority"`
	Status      Status   `json:"status" dynamodbav:"Status"`
	ScheduledAt *int64   `json:"scheduledAt,omitempty" dynamodbav:"ScheduledAt,omitempty"`
	Notes       string   `json:"notes" dynamodbav:"Notes"`
	CreatedAt   int64    `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt   *int64   `json:"updatedAt,omitempty" dynamodbav:"UpdatedAt,omitempty"`
}

// DisplayName falls back to "Unnamed" for blank names
func (c Call) DisplayName() string {
	if strings.TrimSpace(c.Name) == "" {
		return "Unnamed"
	}
	return c.Name
}

func (c Call) Scheduled() (time.Time, bool) {
	if c.ScheduledAt == nil {
		return time.Time{}, false
	}
	return FromMillis(*c.ScheduledAt), true
}

// Clone copies the pointer fields so the result shares nothing with c
func (c Call) Clone() Call {
	if c.ScheduledAt != nil {
		v := *c.ScheduledAt
		c.ScheduledAt = &v
	}
	if c.UpdatedAt != nil {
		v := *c.UpdatedAt
		c.UpdatedAt = &v
	}
	return c
}

// Fields strips identity and timestamps from c
func (c Call) Fields() Fields {
	c = c.Clone()
	return Fields{
		Name:        c.Name,
		Phone:       c.Phone,
		Address:     c.Address,
		Priority:    c.Priority,
		Status:      c.Status,
		ScheduledAt: c.ScheduledAt,
		Notes:       c.Notes,
	}
}

// Fields is the caller-supplied input for a new call
type Fields struct {
	Name        string   `json:"name"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	ScheduledAt *int64   `json:"scheduledAt,omitempty"`
	Notes       string   `json:"notes"`
}

func (f Fields) Validate() error {
	if f.Priority != "" {
		if _, err := ParsePriority(string(f.Priority)); err != nil {
			return err
		}
	}
	if f.Status != "" {
		if _, err := ParseStatus(string(f.Status)); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges f over the field defaults and stamps identity
func (f Fields) Apply(id string, createdAt int64) Call {
	c := Call{
		ID:        id,
		Name:      f.Name,
		Phone:     f.Phone,
		Address:   f.Address,
		Priority:  PriorityMedium,
		Status:    StatusNew,
		Notes:     f.Notes,
		CreatedAt: createdAt,
	}
	if f.Priority != "" {
		c.Priority = f.Priority
	}
	if f.Status != "" {
		c.Status = f.Status
	}
	if f.ScheduledAt != nil {
		v := *f.ScheduledAt
		c.ScheduledAt = &v
	}
	return c
}

func Millis(t time.Time) int64 { return t.UnixMilli() }

func FromMillis(ms int64) time.Time { return time.UnixMilli(ms) }
