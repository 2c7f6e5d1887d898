package repository

import (
	"context"

	"github.com/dennisdiepolder/workforce/internal/types"
)

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opDelete
)

type persistOp struct {
	kind  opKind
	id    string
	call  types.Call
	patch types.Patch
}

// enqueueLocked hands op to the writer goroutine. Caller holds r.mu.
func (r *Repository) enqueueLocked(op persistOp) {
	if r.closed {
		r.logger.Warn().Str("call_id", op.id).Msg("repository closed, write dropped")
		return
	}
	r.ops <- op
}

// persistLoop applies local writes in order. Errors are logged, never surfaced.
func (r *Repository) persistLoop() {
	defer close(r.done)
	for op := range r.ops {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		var err error
		switch op.kind {
		case opCreate:
			op.id = op.call.ID
			_, err = r.store.Create(ctx, op.call)
		case opUpdate:
			err = r.store.Update(ctx, op.id, op.patch)
		case opDelete:
			err = r.store.Delete(ctx, op.id)
		}
		cancel()
		if err != nil {
			r.logger.Error().Err(err).Str("call_id", op.id).Msg("failed to persist call")
		}
	}
}
