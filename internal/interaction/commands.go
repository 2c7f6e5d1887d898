package interaction

import (
	"github.com/dennisdiepolder/workforce/internal/board"
	"github.com/dennisdiepolder/workforce/internal/query"
	"github.com/dennisdiepolder/workforce/internal/types"
)

// Command is one user action or repository event
type Command interface{ command() }

type (
	// Select sets the selection. An empty ID clears it.
	Select   struct{ ID string }
	OpenMenu struct {
		ID   string
		X, Y int
	}
	CloseMenu     struct{}
	SetFilter     struct{ Filter query.Filter }
	SetQuery      struct{ Query string }
	SetView       struct{ View View }
	SetStatus     struct{ Status types.Status }
	AdvanceStatus struct{}
	MarkComplete  struct{}
	OpenEdit      struct{}
	SubmitEdit    struct {
		ID    string
		Patch types.Patch
	}
	RequestDelete struct{}
	ConfirmDelete struct{}
	CancelDelete  struct{}
	Dial          struct{}
	// Move drops a call into a board bucket, independent of the selection
	Move struct {
		ID     string
		Bucket board.Bucket
	}
	Create  struct{ Fields types.Fields }
	Created struct{ ID string }
	Hotkey  struct{ Key string }
	// Sync reconciles state after the repository changed
	Sync struct{}
)

func (Select) command()        {}
func (OpenMenu) command()      {}
func (CloseMenu) command()     {}
func (SetFilter) command()     {}
func (SetQuery) command()      {}
func (SetView) command()       {}
func (SetStatus) command()     {}
func (AdvanceStatus) command() {}
func (MarkComplete) command()  {}
func (OpenEdit) command()      {}
func (SubmitEdit) command()    {}
func (RequestDelete) command() {}
func (ConfirmDelete) command() {}
func (CancelDelete) command()  {}
func (Dial) command()          {}
func (Move) command()          {}
func (Create) command()        {}
func (Created) command()       {}
func (Hotkey) command()        {}
func (Sync) command()          {}

// Effect is work Reduce asks the controller to carry out
type Effect interface{ effect() }

type (
	UpdateEffect struct {
		ID    string
		Patch types.Patch
	}
	DeleteEffect struct{ ID string }
	CreateEffect struct{ Fields types.Fields }
	DialEffect   struct{ URI string }
	// EditEffect opens the edit form. New is set for a blank form.
	EditEffect struct {
		Call types.Call
		New  bool
	}
	ConfirmEffect struct {
		ID     string
		Prompt string
	}
	FocusSearchEffect struct{}
	// ErrorEffect reports a failed repository write to the user
	ErrorEffect struct{ Err error }
)

func (UpdateEffect) effect()      {}
func (DeleteEffect) effect()      {}
func (CreateEffect) effect()      {}
func (DialEffect) effect()        {}
func (EditEffect) effect()        {}
func (ConfirmEffect) effect()     {}
func (FocusSearchEffect) effect() {}
func (ErrorEffect) effect()       {}
