package fanout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingReloader struct {
	loads int
	err   error
}

func (r *countingReloader) Load(ctx context.Context) error {
	r.loads++
	return r.err
}

func TestNoticeCodec(t *testing.T) {
	payload, err := EncodeNotice(Notice{Instance: "node-a", Op: "update", ID: "c1", At: 42})
	if err != nil {
		t.Fatal(err)
	}
	if payload != `{"instance":"node-a","op":"update","id":"c1","at":42}` {
		t.Errorf("unexpected payload %s", payload)
	}

	n, err := DecodeNotice(payload)
	if err != nil {
		t.Fatal(err)
	}
	if n.Instance != "node-a" || n.Op != "update" || n.ID != "c1" {
		t.Errorf("unexpected notice %+v", n)
	}

	for _, bad := range []string{"", "nope", `{"op":"create"}`} {
		if _, err := DecodeNotice(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		reloadErr error
		want      bool
		loads     int
	}{
		{name: "other instance", payload: `{"instance":"node-b","op":"create"}`, want: true, loads: 1},
		{name: "own notice", payload: `{"instance":"node-a","op":"create"}`, want: false, loads: 0},
		{name: "malformed", payload: `{`, want: false, loads: 0},
		{name: "reload fails", payload: `{"instance":"node-b","op":"delete"}`, reloadErr: errors.New("down"), want: false, loads: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &countingReloader{err: tt.reloadErr}
			f := New(nil, "node-a", r, zerolog.Nop())
			if got := f.handle(context.Background(), tt.payload); got != tt.want {
				t.Errorf("handle = %v, want %v", got, tt.want)
			}
			if r.loads != tt.loads {
				t.Errorf("expected %d loads, got %d", tt.loads, r.loads)
			}
		})
	}
}

func TestRedisConfigDefaults(t *testing.T) {
	cfg := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if cfg.DialTimeout != 3*time.Second || cfg.PoolSize != 10 || cfg.PingTimeout != 2*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Error("expected error without addr")
	}
}
