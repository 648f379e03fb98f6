// Package publish forwards engine events to external telemetry stores.
package publish

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/fuelgauge/pkg/events"
)

// Sink receives decoded telemetry events.
type Sink interface {
	WriteSnapshot(ctx context.Context, ev events.SnapshotEvent) error
	PublishStatus(ctx context.Context, ev events.StatusChangedEvent) error
}

// Forward drains ch into sink until ch is closed or ctx is done. Sink
// errors are logged and do not stop forwarding.
func Forward(ctx context.Context, ch <-chan events.Event, sink Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := dispatch(ctx, ev, sink); err != nil {
				logrus.WithField("event", ev.Name).WithError(err).Warn("failed to publish event")
			}
		}
	}
}

func dispatch(ctx context.Context, ev events.Event, sink Sink) error {
	switch ev.Name {
	case events.TelemetrySnapshot:
		payload, err := events.DecodeAs[events.SnapshotEvent](ev)
		if err != nil {
			return err
		}
		return sink.WriteSnapshot(ctx, payload)
	case events.TelemetryStatus:
		payload, err := events.DecodeAs[events.StatusChangedEvent](ev)
		if err != nil {
			return err
		}
		return sink.PublishStatus(ctx, payload)
	}
	return nil
}
