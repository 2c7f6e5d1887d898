package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// NewStore creates the store selected by opts.Backend. close releases any
// connection the store holds and is never nil.
func NewStore(ctx context.Context, opts Options, logger zerolog.Logger) (store Store, close func() error, err error) {
	noop := func() error { return nil }

	switch opts.Backend {
	case BackendMemory, "":
		logger.Info().Msg("using in-memory call store")
		return NewMemoryStore(), noop, nil

	case BackendDisk:
		return NewDiskStore(opts.DiskPath, logger), noop, nil

	case BackendDynamo:
		s, err := NewDynamoDBStore(ctx, opts.Dynamo, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case BackendPostgres:
		db, err := OpenPostgres(ctx, opts.DatabaseURL, PoolConfig{})
		if err != nil {
			return nil, nil, err
		}
		s, err := NewPostgresStore(ctx, db, logger)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}
