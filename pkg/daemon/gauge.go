package daemon

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/fuelgauge/pkg/bus"
	"github.com/charlie0129/fuelgauge/pkg/config"
	"github.com/charlie0129/fuelgauge/pkg/engine"
	"github.com/charlie0129/fuelgauge/pkg/events"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
)

type busOpener func(conf config.Config) (bus.ClientCloser, error)

func openConfiguredBus(conf config.Config) (bus.ClientCloser, error) {
	return bus.Open(conf.BusOptions())
}

// gaugeHandle ties an engine to the bus it owns.
type gaugeHandle struct {
	engine   *engine.Engine
	bus      bus.ClientCloser
	recorder *CycleRecorder
}

// StartGauge opens the configured bus and starts a new engine on it.
func (d *Daemon) StartGauge() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.gauge != nil {
		return nil
	}

	b, err := d.openBus(d.conf)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to open gauge bus")
	}

	if d.conf.ResetOnStart() {
		if err := bus.Reset(b); err != nil {
			logrus.Warnf("failed to reset gauge: %v", err)
		} else {
			logrus.Info("gauge reset")
		}
	}

	regs := d.conf.Registers()
	scale := d.conf.Scale()
	e := engine.New(b, engine.Options{
		Name:      d.conf.DeviceName(),
		Registers: &regs,
		Scale:     &scale,
		Signal:    d.conf.StatusSignal(),
	})

	interval := d.conf.PollInterval()
	rec := NewCycleRecorder(60, interval)
	name := e.Name()

	e.OnSnapshot(func(cur gauge.Snapshot) {
		rec.AddRecord(cur.Decoded.Timestamp)
		d.hub.Publish(events.TelemetrySnapshot, events.SnapshotEvent{
			Device:   name,
			Snapshot: cur,
		})
	})
	e.OnStatusChanged(func(prev, cur gauge.Snapshot) {
		logrus.WithFields(logrus.Fields{
			"device": name,
			"from":   prev.Status.String(),
			"to":     cur.Status.String(),
		}).Info("charge status changed")
		d.hub.Publish(events.TelemetryStatus, events.StatusChangedEvent{
			Device:      name,
			From:        prev.Status.String(),
			To:          cur.Status.String(),
			VoltageMV:   cur.Decoded.VoltageMV,
			CapacityPct: cur.Decoded.CapacityPct,
			Cycle:       cur.Cycle,
			Ts:          time.Now().Unix(),
		})
	})

	if err := e.Start(interval); err != nil {
		_ = b.Close()
		return pkgerrors.Wrap(err, "failed to start engine")
	}

	d.gauge = &gaugeHandle{engine: e, bus: b, recorder: rec}
	return nil
}

// StopGauge stops the engine, waiting for an in-flight cycle, then
// closes the bus.
func (d *Daemon) StopGauge() {
	d.mu.Lock()
	g := d.gauge
	d.gauge = nil
	d.mu.Unlock()

	if g == nil {
		return
	}

	if err := g.engine.Stop(); err != nil {
		logrus.Errorf("failed to stop engine: %v", err)
	}
	if err := g.bus.Close(); err != nil {
		logrus.Errorf("failed to close gauge bus: %v", err)
	}
}

func (d *Daemon) current() *gaugeHandle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gauge
}
