package interaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dennisdiepolder/workforce/internal/repository"
	"github.com/dennisdiepolder/workforce/internal/storage"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/rs/zerolog"
)

type harness struct {
	repo    *repository.Repository
	ctrl    *Controller
	frames  chan Frame
	effects chan Effect
	cancel  context.CancelFunc
}

func newHarness(t *testing.T, store storage.Store, mode repository.Mode) *harness {
	t.Helper()
	repo := repository.New(store, mode, zerolog.Nop())
	h := &harness{
		repo:    repo,
		frames:  make(chan Frame, 64),
		effects: make(chan Effect, 64),
	}
	h.ctrl = NewController(repo,
		func(f Frame) { h.frames <- f },
		zerolog.Nop(),
		WithEffectHandler(func(e Effect) { h.effects <- e }),
		WithControllerClock(func() time.Time { return now }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.ctrl.Run(ctx)
	t.Cleanup(func() {
		cancel()
		repo.Close()
	})

	h.nextFrame(t) // initial render
	return h
}

func (h *harness) nextFrame(t *testing.T) Frame {
	t.Helper()
	select {
	case f := <-h.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for render")
		return Frame{}
	}
}

func (h *harness) nextEffect(t *testing.T) Effect {
	t.Helper()
	select {
	case e := <-h.effects:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for effect")
		return nil
	}
}

func TestControllerCreateSelectsAndRenders(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore(), repository.ModeLocal)

	h.ctrl.Dispatch(Create{Fields: types.Fields{Name: "Acme", Phone: "555 0100"}})
	f := h.nextFrame(t)

	if len(f.List) != 1 || f.Empty {
		t.Fatalf("expected one call rendered, got %+v", f)
	}
	if f.Selected != f.List[0].ID {
		t.Errorf("expected new call selected, got %q", f.Selected)
	}

	h.ctrl.Dispatch(Dial{})
	h.nextFrame(t)
	if e := h.nextEffect(t); e != (DialEffect{URI: "tel:5550100"}) {
		t.Errorf("unexpected effect %+v", e)
	}
}

func TestControllerDeleteFlow(t *testing.T) {
	store := storage.NewMemoryStore()
	h := newHarness(t, store, repository.ModeLocal)

	h.ctrl.Dispatch(Create{Fields: types.Fields{Name: "Acme"}})
	h.nextFrame(t)

	h.ctrl.Dispatch(RequestDelete{})
	f := h.nextFrame(t)
	if f.Pending == "" {
		t.Fatal("expected pending delete")
	}
	if _, ok := h.nextEffect(t).(ConfirmEffect); !ok {
		t.Fatal("expected confirmation prompt")
	}
	if len(f.List) != 1 {
		t.Fatal("expected call to survive until confirmed")
	}

	h.ctrl.Dispatch(ConfirmDelete{})
	f = h.nextFrame(t)
	if len(f.List) != 0 || f.Selected != "" || !f.Empty {
		t.Errorf("expected call deleted and selection cleared, got %+v", f)
	}
}

func TestControllerSurfacesWriteFailures(t *testing.T) {
	h := newHarness(t, rejectingStore{}, repository.ModeWriteThrough)

	h.ctrl.Dispatch(Create{Fields: types.Fields{Name: "Acme"}})
	h.nextFrame(t)

	e, ok := h.nextEffect(t).(ErrorEffect)
	if !ok || !errors.Is(e.Err, repository.ErrRemoteWriteFailed) {
		t.Errorf("expected remote write failure, got %+v", e)
	}
}

func TestControllerResyncsOnExternalChange(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore(), repository.ModeSubscribed)

	h.repo.Replace([]types.Call{{ID: "x", Name: "From elsewhere"}})
	f := h.nextFrame(t)
	if len(f.List) != 1 || f.List[0].ID != "x" {
		t.Errorf("expected snapshot rendered, got %+v", f)
	}
}

type rejectingStore struct{}

func (rejectingStore) LoadAll(context.Context) ([]types.Call, error) { return nil, nil }
func (rejectingStore) Create(context.Context, types.Call) (string, error) {
	return "", errors.New("permission denied")
}
func (rejectingStore) Update(context.Context, string, types.Patch) error { return nil }
func (rejectingStore) Delete(context.Context, string) error              { return nil }

func TestControllerExecuteOneShot(t *testing.T) {
	seed := types.Call{ID: "a", Name: "Acme", Priority: types.PriorityLow, Status: types.StatusNew, CreatedAt: 1}
	repo := repository.New(storage.NewMemoryStore(seed), repository.ModeWriteThrough, zerolog.Nop())
	if err := repo.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	var effects []Effect
	ctrl := NewController(repo, nil, zerolog.Nop(),
		WithEffectHandler(func(e Effect) { effects = append(effects, e) }),
		WithControllerClock(func() time.Time { return now }))

	f := ctrl.Execute(context.Background(), Select{ID: "a"}, MarkComplete{})
	if got, _ := repo.Get("a"); got.Status != types.StatusDone {
		t.Errorf("expected call completed, got %s", got.Status)
	}
	if f.Selected != "a" || f.Counts[types.StatusDone] != 1 {
		t.Errorf("unexpected final frame %+v", f)
	}

	ctrl.Execute(context.Background(), Select{ID: "a"}, RequestDelete{})
	if len(effects) != 1 {
		t.Fatalf("expected a confirmation effect, got %+v", effects)
	}
	if _, ok := effects[0].(ConfirmEffect); !ok {
		t.Errorf("expected ConfirmEffect, got %T", effects[0])
	}

	f = ctrl.Execute(context.Background(), ConfirmDelete{})
	if repo.Len() != 0 || !f.Empty {
		t.Errorf("expected the call deleted, repo has %d", repo.Len())
	}
}

func TestControllerDispatchAfterStop(t *testing.T) {
	repo := repository.New(storage.NewMemoryStore(), repository.ModeWriteThrough, zerolog.Nop())
	ctrl := NewController(repo, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctrl.Run(ctx)

	// the command buffer has room, so a racing send would otherwise win
	for i := 0; i < 100; i++ {
		if ctrl.Dispatch(Select{ID: "a"}) {
			t.Fatalf("dispatch %d accepted after Run returned", i)
		}
	}
}
