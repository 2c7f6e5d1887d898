// Package repository holds the authoritative in-memory call collection and
// mirrors it to a storage.Store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dennisdiepolder/workforce/internal/storage"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound = storage.ErrNotFound
	// ErrRemoteWriteFailed wraps a store failure. Nothing was applied locally.
	ErrRemoteWriteFailed = errors.New("remote write failed")
)

// Mode selects how mutations reach the store
type Mode int

const (
	// ModeLocal applies, notifies, then persists in the background. Failures are only logged.
	ModeLocal Mode = iota
	// ModeWriteThrough persists first and applies only on success
	ModeWriteThrough
	// ModeSubscribed persists only. The collection changes when a snapshot arrives.
	ModeSubscribed
)

func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeWriteThrough:
		return "write_through"
	case ModeSubscribed:
		return "subscribed"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Listener receives the full collection after every change
type Listener func(calls []types.Call)

// Subscribable is a remote source of full snapshots
type Subscribable interface {
	Subscribe(ctx context.Context, fn func([]types.Call)) (unsubscribe func(), err error)
}

const persistTimeout = 10 * time.Second

type listener struct {
	id int
	fn Listener
}

// Repository is safe for concurrent use
type Repository struct {
	mode   Mode
	store  storage.Store
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string

	// writeMu orders store writes against Load so a reload never drops
	// a write that finished while LoadAll was running
	writeMu sync.Mutex
	// notifyMu keeps listeners from seeing an older collection after a newer one
	notifyMu sync.Mutex

	mu        sync.RWMutex
	calls     []types.Call
	listeners []listener
	nextLID   int
	attachGen int
	detach    func()

	ops       chan persistOp
	done      chan struct{}
	closed    bool
	closeOnce sync.Once
}

type Option func(*Repository)

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

func New(store storage.Store, mode Mode, logger zerolog.Logger, opts ...Option) *Repository {
	r := &Repository{
		mode:   mode,
		store:  store,
		logger: logger.With().Str("component", "repository").Str("mode", mode.String()).Logger(),
		now:    time.Now,
		newID:  storage.NewID,
		calls:  []types.Call{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if mode == ModeLocal {
		r.ops = make(chan persistOp, 64)
		r.done = make(chan struct{})
		go r.persistLoop()
	}
	return r
}

func (r *Repository) Mode() Mode { return r.mode }

// Load replaces the collection with the store's contents. In ModeLocal a
// failing store yields an empty collection instead of an error.
func (r *Repository) Load(ctx context.Context) error {
	unlock := r.lockWrites()
	calls, err := r.store.LoadAll(ctx)
	if err != nil {
		if r.mode != ModeLocal {
			unlock()
			return fmt.Errorf("%w: %w", ErrRemoteWriteFailed, err)
		}
		r.logger.Error().Err(err).Msg("failed to load calls, starting empty")
		calls = nil
	}
	r.set(calls)
	unlock()
	r.notify()
	return nil
}

// lockWrites serializes writes with Load. Subscribed mode takes no lock:
// its collection only changes through snapshots.
func (r *Repository) lockWrites() (unlock func()) {
	if r.mode == ModeSubscribed {
		return func() {}
	}
	r.writeMu.Lock()
	return r.writeMu.Unlock
}

// All returns a copy of the collection in insertion order
func (r *Repository) All() []types.Call {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Repository) snapshotLocked() []types.Call {
	out := make([]types.Call, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Clone()
	}
	return out
}

func (r *Repository) Get(id string) (types.Call, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.calls[i].Clone(), true
	}
	return types.Call{}, false
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}

func (r *Repository) indexLocked(id string) int {
	for i, c := range r.calls {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Create assigns a fresh id and createdAt, merges f over the defaults and stores the call.
// The returned call carries the id the store reports.
func (r *Repository) Create(ctx context.Context, f types.Fields) (types.Call, error) {
	if err := f.Validate(); err != nil {
		return types.Call{}, err
	}
	c := f.Apply(r.newID(), types.Millis(r.now()))

	unlock := r.lockWrites()
	if r.mode == ModeLocal {
		r.mu.Lock()
		r.calls = append(r.calls, c.Clone())
		r.enqueueLocked(persistOp{kind: opCreate, call: c.Clone()})
		r.mu.Unlock()
		unlock()
		r.notify()
		return c, nil
	}

	id, err := r.store.Create(ctx, c)
	if err != nil {
		unlock()
		return types.Call{}, r.remoteFailure("create", c.ID, err)
	}
	// a remote store may assign its own id
	if id != "" {
		c.ID = id
	}
	if r.mode == ModeSubscribed {
		unlock()
		return c, nil
	}
	r.mu.Lock()
	r.calls = append(r.calls, c.Clone())
	r.mu.Unlock()
	unlock()
	r.notify()
	return c, nil
}

// Update shallow-merges p over the call. ModeLocal ignores unknown ids, the
// other modes report ErrNotFound.
func (r *Repository) Update(ctx context.Context, id string, p types.Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}

	unlock := r.lockWrites()
	if r.mode == ModeLocal {
		r.mu.Lock()
		i := r.indexLocked(id)
		if i < 0 {
			r.mu.Unlock()
			unlock()
			r.logger.Debug().Str("call_id", id).Msg("update for unknown call ignored")
			return nil
		}
		r.calls[i] = p.ApplyTo(r.calls[i])
		r.enqueueLocked(persistOp{kind: opUpdate, id: id, patch: p})
		r.mu.Unlock()
		unlock()
		r.notify()
		return nil
	}

	if r.mode == ModeWriteThrough {
		if _, ok := r.Get(id); !ok {
			unlock()
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	updated := types.Millis(r.now())
	p.UpdatedAt = &updated

	if err := r.store.Update(ctx, id, p); err != nil {
		unlock()
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return r.remoteFailure("update", id, err)
	}
	if r.mode == ModeSubscribed {
		unlock()
		return nil
	}
	r.mu.Lock()
	if i := r.indexLocked(id); i >= 0 {
		r.calls[i] = p.ApplyTo(r.calls[i])
	}
	r.mu.Unlock()
	unlock()
	r.notify()
	return nil
}

// Delete removes the call. Unknown ids are not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	unlock := r.lockWrites()
	if r.mode != ModeLocal {
		if err := r.store.Delete(ctx, id); err != nil {
			unlock()
			return r.remoteFailure("delete", id, err)
		}
		if r.mode == ModeSubscribed {
			unlock()
			return nil
		}
	}

	r.mu.Lock()
	if i := r.indexLocked(id); i >= 0 {
		r.calls = append(r.calls[:i], r.calls[i+1:]...)
	}
	if r.mode == ModeLocal {
		r.enqueueLocked(persistOp{kind: opDelete, id: id})
	}
	r.mu.Unlock()
	unlock()
	r.notify()
	return nil
}

func (r *Repository) remoteFailure(op, id string, err error) error {
	r.logger.Error().Err(err).Str("op", op).Str("call_id", id).Msg("store write failed")
	return fmt.Errorf("%w: %s %s: %w", ErrRemoteWriteFailed, op, id, err)
}

// Replace overwrites the whole collection with a snapshot
func (r *Repository) Replace(calls []types.Call) {
	r.set(calls)
	r.notify()
}

func (r *Repository) set(calls []types.Call) {
	next := make([]types.Call, len(calls))
	for i, c := range calls {
		next[i] = c.Clone()
	}
	r.mu.Lock()
	r.calls = next
	r.mu.Unlock()
}

// Subscribe registers fn for change notifications
func (r *Repository) Subscribe(fn Listener) (unsubscribe func()) {
	r.mu.Lock()
	r.nextLID++
	id := r.nextLID
	r.listeners = append(r.listeners, listener{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, l := range r.listeners {
			if l.id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify redelivers the current collection to every listener
func (r *Repository) Notify() {
	r.notify()
}

// notify delivers the current collection. Deliveries never overlap and each
// snapshot is taken after the previous delivery, so the last one a listener
// sees is never older than the repository. Listeners must not write to the
// repository synchronously.
func (r *Repository) notify() {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.RLock()
	calls := r.snapshotLocked()
	fns := make([]Listener, len(r.listeners))
	for i, l := range r.listeners {
		fns[i] = l.fn
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(calls)
	}
}

// Attach feeds snapshots from src into Replace. A previous attachment is
// detached first. After detach returns no further snapshot is applied.
func (r *Repository) Attach(ctx context.Context, src Subscribable) (detach func(), err error) {
	r.Detach()

	r.mu.Lock()
	r.attachGen++
	gen := r.attachGen
	r.mu.Unlock()

	unsubscribe, err := src.Subscribe(ctx, func(calls []types.Call) {
		r.mu.RLock()
		current := r.attachGen == gen
		r.mu.RUnlock()
		if current {
			r.Replace(calls)
		}
	})
	if err != nil {
		return nil, err
	}

	var once sync.Once
	detach = func() {
		once.Do(func() {
			r.mu.Lock()
			if r.attachGen == gen {
				r.attachGen++
				r.detach = nil
			}
			r.mu.Unlock()
			unsubscribe()
		})
	}

	r.mu.Lock()
	r.detach = detach
	r.mu.Unlock()
	return detach, nil
}

// Detach drops the current snapshot source, if any
func (r *Repository) Detach() {
	r.mu.Lock()
	d := r.detach
	r.mu.Unlock()
	if d != nil {
		d()
	}
}

// Close detaches and waits for pending background writes
func (r *Repository) Close() {
	r.Detach()
	r.closeOnce.Do(func() {
		if r.ops == nil {
			return
		}
		r.mu.Lock()
		r.closed = true
		close(r.ops)
		r.mu.Unlock()
		<-r.done
	})
}
