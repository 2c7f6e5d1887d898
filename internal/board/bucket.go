package board

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dennisdiepolder/workforce/internal/types"
)

// Bucket is a scheduling column on the dispatch board
type Bucket string

const (
	Unscheduled Bucket = "unscheduled"
	Today       Bucket = "today"
	Tomorrow    Bucket = "tomorrow"
	Week        Bucket = "week"
	Done        Bucket = "done"
)

// DispatchHour is the local time of day assigned when a call is dropped into a dated bucket
const DispatchHour = 9

const weekHorizonDays = 7

var ErrInvalidBucket = errors.New("invalid bucket")

// Buckets lists the board columns in display order
var Buckets = []Bucket{Unscheduled, Today, Tomorrow, Week, Done}

func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Buckets {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBucket, s)
}

func (b Bucket) Label() string {
	switch b {
	case Unscheduled:
		return "Unscheduled"
	case Today:
		return "Today"
	case Tomorrow:
		return "Tomorrow"
	case Week:
		return "This Week"
	case Done:
		return "Completed"
	default:
		return string(b)
	}
}

// startOfDay returns local midnight of now's calendar day in now's location
func startOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// BucketFor derives the board column of c relative to now.
// Status done dominates the schedule. Anything scheduled outside today and
// tomorrow lands in Week, including instants already in the past.
func BucketFor(c types.Call, now time.Time) Bucket {
	if c.Status == types.StatusDone {
		return Done
	}
	if c.ScheduledAt == nil {
		return Unscheduled
	}

	at := *c.ScheduledAt
	t0 := startOfDay(now)
	t1 := types.Millis(t0.AddDate(0, 0, 1))
	t2 := types.Millis(t0.AddDate(0, 0, 2))
	start := types.Millis(t0)

	switch {
	case at >= start && at < t1:
		return Today
	case at >= t1 && at < t2:
		return Tomorrow
	default:
		return Week
	}
}

// InHorizon reports whether c is scheduled within the seven day window that
// starts today. Week is also the catch-all for calls outside it.
func InHorizon(c types.Call, now time.Time) bool {
	if c.ScheduledAt == nil {
		return false
	}
	t0 := startOfDay(now)
	at := *c.ScheduledAt
	return at >= types.Millis(t0) && at < types.Millis(t0.AddDate(0, 0, weekHorizonDays))
}

// AssignBucket computes the patch that moves c into b. It never touches a repository.
func AssignBucket(c types.Call, b Bucket, now time.Time) types.Patch {
	switch b {
	case Unscheduled:
		p := types.Patch{ClearSchedule: true}
		if c.Status == types.StatusScheduled {
			st := types.StatusNew
			p.Status = &st
		}
		return p

	case Done:
		return types.WithStatus(types.StatusDone)

	case Today, Tomorrow, Week:
		at := types.Millis(dispatchSlot(b, now))
		p := types.Patch{ScheduledAt: &at}
		if c.Status != types.StatusDone {
			st := types.StatusScheduled
			p.Status = &st
		}
		return p
	}
	return types.Patch{}
}

// dispatchSlot picks the concrete instant for a dated bucket. Week uses day+2.
func dispatchSlot(b Bucket, now time.Time) time.Time {
	offset := 0
	switch b {
	case Tomorrow:
		offset = 1
	case Week:
		offset = 2
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+offset, DispatchHour, 0, 0, 0, now.Location())
}
