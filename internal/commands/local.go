package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dennisdiepolder/workforce/internal/interaction"
	"github.com/dennisdiepolder/workforce/internal/printers"
	"github.com/dennisdiepolder/workforce/internal/repository"
	"github.com/dennisdiepolder/workforce/internal/storage"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/rs/zerolog"
)

var errNoPhone = errors.New("call has no phone number")

// app runs one-shot commands through the interaction controller against a
// local repository
type app struct {
	repo *repository.Repository
	ctrl *interaction.Controller

	err     error
	dial    string
	confirm *interaction.ConfirmEffect
}

func newApp(store storage.Store, mode repository.Mode, logger zerolog.Logger) *app {
	a := &app{repo: repository.New(store, mode, logger)}
	a.ctrl = interaction.NewController(a.repo, nil, logger, interaction.WithEffectHandler(a.onEffect))
	return a
}

// openLocal loads the diskv collection under cfg.Path
func openLocal(ctx context.Context, cfg *Config, logger zerolog.Logger) (*app, error) {
	a := newApp(storage.NewDiskStore(cfg.Path, logger), repository.ModeLocal, logger)
	if err := a.repo.Load(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Close waits for background writes to reach disk
func (a *app) Close() {
	a.repo.Close()
}

func (a *app) onEffect(e interaction.Effect) {
	switch e := e.(type) {
	case interaction.ErrorEffect:
		if a.err == nil {
			a.err = e.Err
		}
	case interaction.DialEffect:
		a.dial = e.URI
	case interaction.ConfirmEffect:
		a.confirm = &e
	}
}

func (a *app) run(ctx context.Context, cmds ...interaction.Command) (interaction.Frame, error) {
	a.err, a.dial, a.confirm = nil, "", nil
	f := a.ctrl.Execute(ctx, cmds...)
	return f, a.err
}

// resolve accepts a full id or a unique suffix of one, as printed by list
func (a *app) resolve(ref string) (types.Call, error) {
	if c, ok := a.repo.Get(strings.TrimSpace(ref)); ok {
		return c, nil
	}
	return resolveIn(a.repo.All(), ref)
}

func resolveIn(calls []types.Call, ref string) (types.Call, error) {
	ref = strings.TrimSpace(ref)
	var matches []types.Call
	for _, c := range calls {
		if c.ID == ref {
			return c, nil
		}
		if ref != "" && strings.HasSuffix(c.ID, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return types.Call{}, fmt.Errorf("%w: %s", repository.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return types.Call{}, fmt.Errorf("id %q is ambiguous, matches %d calls", ref, len(matches))
	}
}

// onSelected resolves ref, selects it and runs cmds against the selection
func (a *app) onSelected(ctx context.Context, ref string, cmds ...interaction.Command) (types.Call, error) {
	c, err := a.resolve(ref)
	if err != nil {
		return types.Call{}, err
	}
	all := append([]interaction.Command{interaction.Select{ID: c.ID}}, cmds...)
	if _, err := a.run(ctx, all...); err != nil {
		return types.Call{}, err
	}
	updated, ok := a.repo.Get(c.ID)
	if !ok {
		return c, nil
	}
	return updated, nil
}

func shortOrFull(showID bool, id string) string {
	if showID {
		return id
	}
	return printers.ShortID(id)
}
