package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/fuelgauge/pkg/events"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
)

func NewWatchCommand() *cobra.Command {
	snapshots := false

	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: gBasic,
		Short:   "Stream charge status changes",
		Long: `Print a line every time the daemon reports a charge status change.

With --snapshots, every completed poll cycle is printed as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			// Fail early with a useful error if the daemon is unreachable.
			if _, err := apiClient().GetVersion(); err != nil {
				return err
			}

			for ev := range apiClient().SubscribeEvents(ctx) {
				line, ok := formatEvent(ev, snapshots)
				if ok {
					cmd.Println(line)
				}
			}

			if ctx.Err() == nil {
				logrus.Warn("daemon closed the event stream")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "Also print every poll cycle")

	return cmd
}

func formatEvent(ev events.Event, snapshots bool) (string, bool) {
	switch ev.Name {
	case events.TelemetryStatus:
		p, err := events.DecodeAs[events.StatusChangedEvent](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode telemetry.status event")
			return "", false
		}
		to, _ := gauge.ParseChargeStatus(p.To)
		return bold("%s", time.Unix(p.Ts, 0).Local().Format(time.Kitchen)) +
			" " + p.Device + ": " + p.From + " -> " + statusText(to) +
			bold(" (%.3f V, %d%%)", float64(p.VoltageMV)/1000, p.CapacityPct), true
	case events.TelemetrySnapshot:
		if !snapshots {
			return "", false
		}
		p, err := events.DecodeAs[events.SnapshotEvent](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode telemetry.snapshot event")
			return "", false
		}
		s := p.Snapshot
		return bold("%s", s.Decoded.Timestamp.Local().Format(time.Kitchen)) +
			" " + p.Device + ": " + bold("%.3f V, %d%%", float64(s.Decoded.VoltageMV)/1000, s.Decoded.CapacityPct) +
			" " + statusText(s.Status), true
	default:
		logrus.WithField("event", ev.Name).Debug("ignoring unknown event")
		return "", false
	}
}
