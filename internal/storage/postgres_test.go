package storage

import (
	"testing"

	"github.com/dennisdiepolder/workforce/internal/types"
)

func TestBuildSetClause(t *testing.T) {
	name := "Acme"
	at := int64(1000)
	updated := int64(2000)

	tests := []struct {
		name     string
		patch    types.Patch
		wantSet  string
		wantArgs int
	}{
		{"empty", types.Patch{}, "", 0},
		{"updatedAt alone is not a change", types.Patch{UpdatedAt: &updated}, "", 0},
		{"name and schedule", types.Patch{Name: &name, ScheduledAt: &at}, "name = $1, scheduled_at = $2", 2},
		{"clear schedule", types.Patch{ClearSchedule: true, Status: ptr(types.StatusNew), UpdatedAt: &updated}, "status = $1, scheduled_at = NULL, updated_at = $2", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, args := buildSetClause(tt.patch)
			if set != tt.wantSet {
				t.Errorf("expected %q, got %q", tt.wantSet, set)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("expected %d args, got %d", tt.wantArgs, len(args))
			}
		})
	}
}

func TestPoolDefaults(t *testing.T) {
	cfg := PoolConfig{MaxOpenConns: 3}.withDefaults()
	if cfg.MaxOpenConns != 3 {
		t.Errorf("expected explicit value kept, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns == 0 || cfg.PingTimeout == 0 {
		t.Errorf("expected defaults filled, got %+v", cfg)
	}
}
