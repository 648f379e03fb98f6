package publish

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-redis/redis/v8"

	"github.com/charlie0129/fuelgauge/pkg/events"
)

func TestRedisErrorsKeepCause(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	r := &Redis{client: client, key: "fuelgauge", channel: "fuelgauge:events"}

	tests := []struct {
		name   string
		call   func() error
		prefix string
	}{
		{
			name:   "snapshot",
			call:   func() error { return r.WriteSnapshot(context.Background(), events.SnapshotEvent{}) },
			prefix: "failed to write snapshot",
		},
		{
			name: "status",
			call: func() error {
				return r.PublishStatus(context.Background(), events.StatusChangedEvent{To: "charging"})
			},
			prefix: "failed to publish status change",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, redis.ErrClosed) {
				t.Fatalf("error = %v, want wrapped redis.ErrClosed", err)
			}
			if !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Errorf("error = %q, want prefix %q", err, tt.prefix)
			}
		})
	}
}
