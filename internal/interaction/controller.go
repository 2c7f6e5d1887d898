package interaction

import (
	"context"
	"sync"
	"time"

	"github.com/dennisdiepolder/workforce/internal/repository"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/rs/zerolog"
)

// Repository is what the controller needs from repository.Repository
type Repository interface {
	All() []types.Call
	Create(ctx context.Context, f types.Fields) (types.Call, error)
	Update(ctx context.Context, id string, p types.Patch) error
	Delete(ctx context.Context, id string) error
	Subscribe(fn repository.Listener) (unsubscribe func())
}

// Renderer draws one frame. It runs on the controller goroutine.
type Renderer func(Frame)

// Controller serializes every command through one goroutine: reduce,
// apply effects, render once.
type Controller struct {
	repo    Repository
	render  Renderer
	onUI    func(Effect)
	now     func() time.Time
	logger  zerolog.Logger
	cmds    chan Command
	changed chan struct{}
	stopped chan struct{}

	mu    sync.RWMutex
	state State
}

type ControllerOption func(*Controller)

// WithEffectHandler receives effects the repository cannot carry out
// (dial, edit, confirm, focus search, errors)
func WithEffectHandler(fn func(Effect)) ControllerOption {
	return func(c *Controller) { c.onUI = fn }
}

func WithControllerClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

func NewController(repo Repository, render Renderer, logger zerolog.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		repo:    repo,
		render:  render,
		onUI:    func(Effect) {},
		now:     time.Now,
		logger:  logger.With().Str("component", "controller").Logger(),
		cmds:    make(chan Command, 32),
		changed: make(chan struct{}, 1),
		stopped: make(chan struct{}),
		state:   NewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.render == nil {
		c.render = func(Frame) {}
	}
	return c
}

// Dispatch queues cmd. It returns false once the controller has stopped.
func (c *Controller) Dispatch(cmd Command) bool {
	select {
	case <-c.stopped:
		return false
	default:
	}
	select {
	case c.cmds <- cmd:
		return true
	case <-c.stopped:
		return false
	}
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Run processes commands until ctx is done. Repository changes are coalesced
// into Sync commands on the same goroutine.
func (c *Controller) Run(ctx context.Context) {
	unsubscribe := c.repo.Subscribe(func([]types.Call) {
		select {
		case c.changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()
	defer close(c.stopped)

	c.handle(ctx, Sync{})
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.cmds:
			c.handle(ctx, cmd)
		case <-c.changed:
			c.handle(ctx, Sync{})
		}
	}
}

// Execute handles cmds on the caller's goroutine and returns the last frame.
// It is for one-shot callers and must not be used while Run is active.
func (c *Controller) Execute(ctx context.Context, cmds ...Command) Frame {
	var last Frame
	render := c.render
	c.render = func(f Frame) {
		last = f
		render(f)
	}
	defer func() { c.render = render }()

	for _, cmd := range cmds {
		c.handle(ctx, cmd)
	}
	return last
}

func (c *Controller) handle(ctx context.Context, cmd Command) {
	now := c.now()
	pending := []Command{cmd}

	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]

		c.mu.RLock()
		s := c.state
		c.mu.RUnlock()

		s, effects := Reduce(s, c.repo.All(), next, now)

		c.mu.Lock()
		c.state = s
		c.mu.Unlock()

		for _, e := range effects {
			if follow := c.apply(ctx, e); follow != nil {
				pending = append(pending, follow)
			}
		}
	}

	calls := c.repo.All()
	c.mu.Lock()
	// fold a change caused by this command into the same render
	select {
	case <-c.changed:
		c.state, _ = Reduce(c.state, calls, Sync{}, now)
	default:
	}
	s := c.state
	c.mu.Unlock()
	c.render(Project(s, calls, now))
}

// apply carries out one effect and returns a follow-up command, if any
func (c *Controller) apply(ctx context.Context, e Effect) Command {
	var err error
	switch e := e.(type) {
	case UpdateEffect:
		err = c.repo.Update(ctx, e.ID, e.Patch)
	case DeleteEffect:
		err = c.repo.Delete(ctx, e.ID)
	case CreateEffect:
		var created types.Call
		created, err = c.repo.Create(ctx, e.Fields)
		if err == nil {
			return Created{ID: created.ID}
		}
	default:
		c.onUI(e)
		return nil
	}
	if err != nil {
		c.logger.Error().Err(err).Msg("action failed")
		c.onUI(ErrorEffect{Err: err})
	}
	return nil
}
