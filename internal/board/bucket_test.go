package board

import (
	"errors"
	"testing"
	"time"

	"github.com/dennisdiepolder/workforce/internal/types"
)

// Wednesday afternoon, local time
var now = time.Date(2024, time.March, 13, 15, 30, 0, 0, time.Local)

func at(t time.Time) *int64 {
	ms := types.Millis(t)
	return &ms
}

func TestBucketFor(t *testing.T) {
	midnight := time.Date(2024, time.March, 13, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		call types.Call
		want Bucket
	}{
		{"done without schedule", types.Call{Status: types.StatusDone}, Done},
		{"done dominates today", types.Call{Status: types.StatusDone, ScheduledAt: at(now)}, Done},
		{"no schedule", types.Call{Status: types.StatusNew}, Unscheduled},
		{"in progress without schedule", types.Call{Status: types.StatusInProgress}, Unscheduled},
		{"start of today", types.Call{Status: types.StatusScheduled, ScheduledAt: at(midnight)}, Today},
		{"last millisecond of today", types.Call{Status: types.StatusScheduled, ScheduledAt: at(midnight.AddDate(0, 0, 1).Add(-time.Millisecond))}, Today},
		{"start of tomorrow", types.Call{Status: types.StatusScheduled, ScheduledAt: at(midnight.AddDate(0, 0, 1))}, Tomorrow},
		{"day after tomorrow", types.Call{Status: types.StatusScheduled, ScheduledAt: at(midnight.AddDate(0, 0, 2))}, Week},
		{"six days out", types.Call{Status: types.StatusScheduled, ScheduledAt: at(midnight.AddDate(0, 0, 6).Add(23 * time.Hour))}, Week},
		{"beyond horizon falls back to week", types.Call{Status: types.StatusScheduled, ScheduledAt: at(midnight.AddDate(0, 0, 30))}, Week},
		{"past instant falls back to week", types.Call{Status: types.StatusScheduled, ScheduledAt: at(midnight.Add(-time.Millisecond))}, Week},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketFor(tt.call, now); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAssignBucketRoundTrip(t *testing.T) {
	statuses := []types.Status{types.StatusNew, types.StatusScheduled, types.StatusInProgress}

	for _, st := range statuses {
		for _, b := range Buckets {
			t.Run(string(st)+"->"+string(b), func(t *testing.T) {
				c := types.Call{ID: "c1", Status: st, CreatedAt: 1}
				patched := AssignBucket(c, b, now).ApplyTo(c)
				if got := BucketFor(patched, now); got != b {
					t.Errorf("expected bucket %s after move, got %s", b, got)
				}
			})
		}
	}
}

func TestAssignBucketDatedSlots(t *testing.T) {
	tests := []struct {
		bucket Bucket
		want   time.Time
	}{
		{Today, time.Date(2024, time.March, 13, DispatchHour, 0, 0, 0, time.Local)},
		{Tomorrow, time.Date(2024, time.March, 14, DispatchHour, 0, 0, 0, time.Local)},
		{Week, time.Date(2024, time.March, 15, DispatchHour, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(string(tt.bucket), func(t *testing.T) {
			p := AssignBucket(types.Call{Status: types.StatusNew}, tt.bucket, now)
			if p.ScheduledAt == nil {
				t.Fatal("expected a concrete schedule")
			}
			if *p.ScheduledAt != types.Millis(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, types.FromMillis(*p.ScheduledAt))
			}
			if p.Status == nil || *p.Status != types.StatusScheduled {
				t.Errorf("expected status scheduled, got %v", p.Status)
			}
		})
	}
}

func TestAssignBucketDoneIsNeverDowngradedByDatedMove(t *testing.T) {
	c := types.Call{Status: types.StatusDone}
	p := AssignBucket(c, Tomorrow, now)
	if p.Status != nil {
		t.Errorf("expected status untouched, got %s", *p.Status)
	}
	if got := BucketFor(p.ApplyTo(c), now); got != Done {
		t.Errorf("expected done call to stay in done, got %s", got)
	}
}

func TestAssignBucketUnscheduled(t *testing.T) {
	tests := []struct {
		status types.Status
		want   types.Status
	}{
		{types.StatusScheduled, types.StatusNew},
		{types.StatusNew, types.StatusNew},
		{types.StatusInProgress, types.StatusInProgress},
		{types.StatusDone, types.StatusDone},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := types.Call{Status: tt.status, ScheduledAt: at(now)}
			got := AssignBucket(c, Unscheduled, now).ApplyTo(c)
			if got.ScheduledAt != nil {
				t.Error("expected schedule to be cleared")
			}
			if got.Status != tt.want {
				t.Errorf("expected status %s, got %s", tt.want, got.Status)
			}
		})
	}
}

func TestAssignBucketDoneKeepsSchedule(t *testing.T) {
	c := types.Call{Status: types.StatusScheduled, ScheduledAt: at(now)}
	p := AssignBucket(c, Done, now)
	if p.ScheduledAt != nil || p.ClearSchedule {
		t.Error("expected completion to leave the schedule alone")
	}
	got := p.ApplyTo(c)
	if got.Status != types.StatusDone || *got.ScheduledAt != *c.ScheduledAt {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestLifecycleExample(t *testing.T) {
	c := types.Fields{Name: "Acme HVAC", Phone: "555 0100", Priority: types.PriorityHigh}.Apply("c1", types.Millis(now))
	if c.Status != types.StatusNew || c.ScheduledAt != nil || BucketFor(c, now) != Unscheduled {
		t.Fatalf("unexpected new call %+v", c)
	}

	c = AssignBucket(c, Today, now).ApplyTo(c)
	if c.Status != types.StatusScheduled || BucketFor(c, now) != Today {
		t.Fatalf("unexpected call after move to today %+v", c)
	}
	scheduled := *c.ScheduledAt

	c = AssignBucket(c, Done, now).ApplyTo(c)
	if c.Status != types.StatusDone || BucketFor(c, now) != Done || *c.ScheduledAt != scheduled {
		t.Fatalf("unexpected call after completion %+v", c)
	}

	c = AssignBucket(c, Unscheduled, now).ApplyTo(c)
	if c.ScheduledAt != nil || c.Status != types.StatusDone {
		t.Fatalf("expected completed call to keep status done, got %+v", c)
	}
}

func TestInHorizon(t *testing.T) {
	midnight := time.Date(2024, time.March, 13, 0, 0, 0, 0, time.Local)
	if !InHorizon(types.Call{ScheduledAt: at(midnight.AddDate(0, 0, 6))}, now) {
		t.Error("expected six days out to be within the horizon")
	}
	if InHorizon(types.Call{ScheduledAt: at(midnight.AddDate(0, 0, 7))}, now) {
		t.Error("expected seven days out to be beyond the horizon")
	}
	if InHorizon(types.Call{}, now) {
		t.Error("expected unscheduled call to be outside the horizon")
	}
}

func TestParseBucket(t *testing.T) {
	if b, err := ParseBucket("Week"); err != nil || b != Week {
		t.Errorf("got %q, %v", b, err)
	}
	if _, err := ParseBucket("later"); !errors.Is(err, ErrInvalidBucket) {
		t.Errorf("expected ErrInvalidBucket, got %v", err)
	}
}
