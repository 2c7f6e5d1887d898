// Package interaction tracks the selected call and the context menu and
// turns user commands into repository effects.
package interaction

import (
	"time"

	"github.com/dennisdiepolder/workforce/internal/board"
	"github.com/dennisdiepolder/workforce/internal/query"
	"github.com/dennisdiepolder/workforce/internal/types"
)

type View string

const (
	ViewList  View = "list"
	ViewBoard View = "board"
)

// Menu is the context menu. Target is empty while closed.
type Menu struct {
	Open   bool
	Target string
	X, Y   int
}

// State is everything the UI needs besides the call collection
type State struct {
	Selected      string
	Menu          Menu
	PendingDelete string
	Filter        query.Filter
	Query         string
	View          View
}

func NewState() State {
	return State{Filter: query.FilterAll, View: ViewList}
}

func find(calls []types.Call, id string) (types.Call, bool) {
	if id == "" {
		return types.Call{}, false
	}
	for _, c := range calls {
		if c.ID == id {
			return c, true
		}
	}
	return types.Call{}, false
}

// Reduce applies cmd to s. It has no side effects; repository work is returned as effects.
func Reduce(s State, calls []types.Call, cmd Command, now time.Time) (State, []Effect) {
	switch cmd := cmd.(type) {
	case Select:
		s.Menu = Menu{}
		if _, ok := find(calls, cmd.ID); ok {
			s.Selected = cmd.ID
		} else {
			s.Selected = ""
		}
		return s, nil

	case OpenMenu:
		if _, ok := find(calls, cmd.ID); !ok {
			return s, nil
		}
		s.Selected = cmd.ID
		s.Menu = Menu{Open: true, Target: cmd.ID, X: cmd.X, Y: cmd.Y}
		return s, nil

	case CloseMenu:
		s.Menu = Menu{}
		return s, nil

	case SetFilter:
		if cmd.Filter == "" {
			cmd.Filter = query.FilterAll
		}
		s.Filter = cmd.Filter
		return s, nil

	case SetQuery:
		s.Query = cmd.Query
		return s, nil

	case SetView:
		s.View = cmd.View
		return s, nil

	case SetStatus:
		return selectedAction(s, calls, func(c types.Call) []Effect {
			return []Effect{UpdateEffect{ID: c.ID, Patch: types.WithStatus(cmd.Status)}}
		})

	case AdvanceStatus:
		return selectedAction(s, calls, func(c types.Call) []Effect {
			return []Effect{UpdateEffect{ID: c.ID, Patch: types.WithStatus(board.NextStatus(c.Status))}}
		})

	case MarkComplete:
		return selectedAction(s, calls, func(c types.Call) []Effect {
			return []Effect{UpdateEffect{ID: c.ID, Patch: board.AssignBucket(c, board.Done, now)}}
		})

	case OpenEdit:
		return selectedAction(s, calls, func(c types.Call) []Effect {
			return []Effect{EditEffect{Call: c}}
		})

	case SubmitEdit:
		if _, ok := find(calls, cmd.ID); !ok {
			return s, nil
		}
		s.Selected = cmd.ID
		return s, []Effect{UpdateEffect{ID: cmd.ID, Patch: cmd.Patch}}

	case RequestDelete:
		next, effects := selectedAction(s, calls, func(c types.Call) []Effect {
			return []Effect{ConfirmEffect{ID: c.ID, Prompt: board.DeletePrompt(c)}}
		})
		if len(effects) > 0 {
			next.PendingDelete = next.Selected
		}
		return next, effects

	case ConfirmDelete:
		id := s.PendingDelete
		s.PendingDelete = ""
		if _, ok := find(calls, id); !ok {
			return s, nil
		}
		if s.Selected == id {
			s.Selected = ""
		}
		if s.Menu.Target == id {
			s.Menu = Menu{}
		}
		return s, []Effect{DeleteEffect{ID: id}}

	case CancelDelete:
		s.PendingDelete = ""
		return s, nil

	case Dial:
		return selectedAction(s, calls, func(c types.Call) []Effect {
			if uri, ok := board.DialURI(c.Phone); ok {
				return []Effect{DialEffect{URI: uri}}
			}
			return nil
		})

	case Move:
		c, ok := find(calls, cmd.ID)
		if !ok {
			return s, nil
		}
		p := board.AssignBucket(c, cmd.Bucket, now)
		if p.IsEmpty() {
			return s, nil
		}
		return s, []Effect{UpdateEffect{ID: c.ID, Patch: p}}

	case Create:
		return s, []Effect{CreateEffect{Fields: cmd.Fields}}

	case Created:
		s.Selected = cmd.ID
		return s, nil

	case Hotkey:
		return reduceHotkey(s, calls, cmd.Key, now)

	case Sync:
		if _, ok := find(calls, s.Selected); !ok {
			s.Selected = ""
		}
		if _, ok := find(calls, s.Menu.Target); !ok {
			s.Menu = Menu{}
		}
		if _, ok := find(calls, s.PendingDelete); !ok {
			s.PendingDelete = ""
		}
		return s, nil
	}
	return s, nil
}

// selectedAction runs fn against the selected call and closes the menu.
// Without a selection it is a silent no-op.
func selectedAction(s State, calls []types.Call, fn func(types.Call) []Effect) (State, []Effect) {
	c, ok := find(calls, s.Selected)
	if !ok {
		return s, nil
	}
	s.Menu = Menu{}
	return s, fn(c)
}

var statusKeys = map[string]types.Status{
	"1": types.StatusNew,
	"2": types.StatusScheduled,
	"3": types.StatusInProgress,
	"4": types.StatusDone,
}

func reduceHotkey(s State, calls []types.Call, key string, now time.Time) (State, []Effect) {
	if st, ok := statusKeys[key]; ok {
		return Reduce(s, calls, SetStatus{Status: st}, now)
	}

	switch key {
	case "n":
		s.Menu = Menu{}
		return s, []Effect{EditEffect{New: true}}
	case "e":
		return Reduce(s, calls, OpenEdit{}, now)
	case "c":
		return Reduce(s, calls, MarkComplete{}, now)
	case "s":
		return Reduce(s, calls, AdvanceStatus{}, now)
	case "d", "Delete", "Backspace":
		return Reduce(s, calls, RequestDelete{}, now)
	case "y", "Enter":
		if s.PendingDelete != "" {
			return Reduce(s, calls, ConfirmDelete{}, now)
		}
	case "Escape":
		s.Menu = Menu{}
		s.PendingDelete = ""
	case "/":
		return s, []Effect{FocusSearchEffect{}}
	}
	return s, nil
}
