package interaction

import (
	"time"

	"github.com/dennisdiepolder/workforce/internal/query"
	"github.com/dennisdiepolder/workforce/internal/types"
)

// Frame is everything a renderer draws, derived only from state and calls
type Frame struct {
	View     View
	List     []types.Call
	Board    []query.Column
	Counts   map[types.Status]int
	Empty    bool
	Selected string
	Menu     Menu
	Pending  string
}

func Project(s State, calls []types.Call, now time.Time) Frame {
	f := Frame{
		View:     s.View,
		Counts:   query.Counts(calls),
		Empty:    len(calls) == 0,
		Selected: s.Selected,
		Menu:     s.Menu,
		Pending:  s.PendingDelete,
	}
	if s.View == ViewBoard {
		f.Board = query.Board(calls, s.Query, now)
	} else {
		f.List = query.Visible(calls, s.Filter, s.Query)
	}
	return f
}
