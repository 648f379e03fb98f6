package publish

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/fuelgauge/pkg/events"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
)

const redisTimeout = 2 * time.Second

// Redis mirrors the latest snapshot into a hash and announces charge
// status changes on a channel.
type Redis struct {
	client  *redis.Client
	key     string
	channel string
}

// NewRedis connects to addr and checks the connection.
func NewRedis(ctx context.Context, addr, key, channel string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	connectCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := client.Ping(connectCtx).Err(); err != nil {
		_ = client.Close()
		return nil, pkgerrors.Wrapf(err, "failed to connect to redis at %s", addr)
	}

	logrus.WithFields(logrus.Fields{
		"addr":    addr,
		"key":     key,
		"channel": channel,
	}).Info("connected to redis")

	return &Redis{
		client:  client,
		key:     key,
		channel: channel,
	}, nil
}

// snapshotFields is the hash layout written for every snapshot.
func snapshotFields(s gauge.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"voltage":   s.Decoded.VoltageMV,
		"charge":    s.Decoded.CapacityPct,
		"state":     s.Status.String(),
		"ac-online": map[bool]string{true: "true", false: "false"}[s.ACOnline()],
		"cycle":     s.Cycle,
		"timestamp": s.Decoded.Timestamp.Unix(),
	}
}

func (r *Redis) WriteSnapshot(ctx context.Context, ev events.SnapshotEvent) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := r.client.HSet(ctx, r.key, snapshotFields(ev.Snapshot)).Err(); err != nil {
		return pkgerrors.Wrap(err, "failed to write snapshot")
	}
	return nil
}

func (r *Redis) PublishStatus(ctx context.Context, ev events.StatusChangedEvent) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, r.key, "state", ev.To)
	pipe.Publish(ctx, r.channel, "state")

	if _, err := pipe.Exec(ctx); err != nil {
		return pkgerrors.Wrap(err, "failed to publish status change")
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
