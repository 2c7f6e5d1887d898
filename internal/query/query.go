// Package query derives the visible subset of calls for list and board views.
// Every function here is pure: inputs are never mutated and equal inputs
// produce equal output sequences.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/dennisdiepolder/workforce/internal/board"
	"github.com/dennisdiepolder/workforce/internal/types"
)

// Filter is either FilterAll or a call status
type Filter string

const FilterAll Filter = "all"

func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(FilterAll)) {
		return FilterAll, nil
	}
	st, err := types.ParseStatus(s)
	if err != nil {
		return "", err
	}
	return Filter(st), nil
}

func (f Filter) admits(c types.Call) bool {
	return f == FilterAll || f == "" || types.Status(f) == c.Status
}

func normalize(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func haystack(c types.Call) string {
	return strings.ToLower(strings.Join([]string{c.Name, c.Phone, c.Address, c.Notes}, " "))
}

// Matches applies the status filter, then the free-text query
func Matches(c types.Call, filter Filter, q string) bool {
	if !filter.admits(c) {
		return false
	}
	needle := normalize(q)
	return needle == "" || strings.Contains(haystack(c), needle)
}

// Visible returns the calls passing filter and query, newest first
func Visible(calls []types.Call, filter Filter, q string) []types.Call {
	out := make([]types.Call, 0, len(calls))
	for _, c := range calls {
		if Matches(c, filter, q) {
			out = append(out, c)
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(calls []types.Call) {
	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].CreatedAt > calls[j].CreatedAt
	})
}

// Column is one bucket of the dispatch board
type Column struct {
	Bucket board.Bucket `json:"bucket"`
	Label  string       `json:"label"`
	Calls  []types.Call `json:"calls"`
}

// Board groups the calls matching q into the fixed bucket columns.
// Dated columns are ordered by scheduled instant, the others newest first.
func Board(calls []types.Call, q string, now time.Time) []Column {
	grouped := make(map[board.Bucket][]types.Call, len(board.Buckets))
	for _, c := range calls {
		if !Matches(c, FilterAll, q) {
			continue
		}
		b := board.BucketFor(c, now)
		grouped[b] = append(grouped[b], c)
	}

	columns := make([]Column, 0, len(board.Buckets))
	for _, b := range board.Buckets {
		col := grouped[b]
		if col == nil {
			col = []types.Call{}
		}
		switch b {
		case board.Today, board.Tomorrow, board.Week:
			sortBySchedule(col)
		default:
			sortNewestFirst(col)
		}
		columns = append(columns, Column{Bucket: b, Label: b.Label(), Calls: col})
	}
	return columns
}

func sortBySchedule(calls []types.Call) {
	sort.SliceStable(calls, func(i, j int) bool {
		a, b := calls[i].ScheduledAt, calls[j].ScheduledAt
		if *a != *b {
			return *a < *b
		}
		return calls[i].CreatedAt > calls[j].CreatedAt
	})
}

// Counts tallies calls per status. Every status is present in the result.
func Counts(calls []types.Call) map[types.Status]int {
	counts := make(map[types.Status]int, len(types.Statuses))
	for _, st := range types.Statuses {
		counts[st] = 0
	}
	for _, c := range calls {
		counts[c.Status]++
	}
	return counts
}
