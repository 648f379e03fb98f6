// Package engine polls a fuel gauge on a fixed interval and serves the
// latest decoded telemetry to concurrent readers.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/fuelgauge/pkg/bus"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
)

// DefaultInterval is the reference poll interval. Gauge values change
// slowly, so a few seconds keeps bus and power overhead low.
const DefaultInterval = 4 * time.Second

// State is the scheduler state of an Engine.
type State int32

const (
	NotStarted State = iota
	Idle
	Polling
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Registers is the register map of a gauge.
type Registers struct {
	Voltage uint8
	Charge  uint8
}

// DefaultRegisters is the MAX1704x register map (VCELL, SOC).
var DefaultRegisters = Registers{
	Voltage: 0x02,
	Charge:  0x04,
}

// Options configures an Engine. Zero fields take the defaults of the
// MAX1704x family.
type Options struct {
	// Name identifies the monitored device in logs.
	Name      string
	Registers *Registers
	Scale     *gauge.Scale
	Signal    gauge.Signal
}

// StatusChangedFunc is called after a cycle whose status differs from
// the previous cycle's status.
type StatusChangedFunc func(prev, cur gauge.Snapshot)

// SnapshotFunc is called after every successful cycle.
type SnapshotFunc func(cur gauge.Snapshot)

// Engine owns one gauge: it is the only user of the bus client and the
// only writer of its cache.
type Engine struct {
	name     string
	client   bus.Client
	regs     Registers
	decoder  gauge.Decoder
	inferrer gauge.Inferrer
	cache    *Cache
	now      func() time.Time

	state atomic.Int32

	mu            sync.Mutex
	interval      time.Duration
	stopRequested bool
	stopCh        chan struct{}
	doneCh        chan struct{}

	hooksMu         sync.RWMutex
	onStatusChanged []StatusChangedFunc
	onSnapshot      []SnapshotFunc

	stats stats
}

// New returns an engine reading from client. It does not touch the bus
// until Start.
func New(client bus.Client, opts Options) *Engine {
	if client == nil {
		panic("bus client cannot be nil")
	}

	regs := DefaultRegisters
	if opts.Registers != nil {
		regs = *opts.Registers
	}
	scale := gauge.DefaultScale
	if opts.Scale != nil {
		scale = *opts.Scale
	}
	name := opts.Name
	if name == "" {
		name = "battery"
	}

	return &Engine{
		name:     name,
		client:   client,
		regs:     regs,
		decoder:  gauge.NewDecoder(scale),
		inferrer: gauge.Inferrer{Signal: opts.Signal},
		cache:    NewCache(),
		now:      time.Now,
	}
}

// Name returns the device name given in Options.
func (e *Engine) Name() string {
	return e.name
}

// State returns the current scheduler state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Interval returns the interval passed to Start, or 0 if not started.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// OnStatusChanged registers fn. Hooks run on the poll goroutine and must
// not block.
func (e *Engine) OnStatusChanged(fn StatusChangedFunc) {
	e.hooksMu.Lock()
	defer e.hooksMu.Unlock()
	e.onStatusChanged = append(e.onStatusChanged, fn)
}

// OnSnapshot registers fn. Hooks run on the poll goroutine and must not
// block.
func (e *Engine) OnSnapshot(fn SnapshotFunc) {
	e.hooksMu.Lock()
	defer e.hooksMu.Unlock()
	e.onSnapshot = append(e.onSnapshot, fn)
}

// Start begins polling every interval. The first cycle runs one interval
// after Start. Calling Start on a running engine is a no-op.
func (e *Engine) Start(interval time.Duration) error {
	if interval <= 0 {
		return pkgerrors.Errorf("poll interval must be positive, got %s", interval)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopRequested {
		return ErrEngineStopped
	}
	if e.State() != NotStarted {
		logrus.WithField("device", e.name).Debug("engine already started")
		return nil
	}

	e.interval = interval
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.state.Store(int32(Idle))

	logrus.WithFields(logrus.Fields{
		"device":   e.name,
		"interval": interval,
		"voltage":  fmt.Sprintf("0x%02X", e.regs.Voltage),
		"charge":   fmt.Sprintf("0x%02X", e.regs.Charge),
		"signal":   e.inferrer.Signal,
	}).Info("engine started")

	go e.run(interval, e.stopCh, e.doneCh)
	return nil
}

// Stop stops polling. It waits for an in-flight cycle to finish, so the
// bus client may be released as soon as Stop returns.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.State() == NotStarted {
		e.mu.Unlock()
		return ErrEngineNotStarted
	}
	if !e.stopRequested {
		e.stopRequested = true
		close(e.stopCh)
	}
	done := e.doneCh
	e.mu.Unlock()

	<-done
	return nil
}

// Query returns the latest snapshot without touching the bus. Before the
// first successful cycle it returns the placeholder snapshot.
func (e *Engine) Query() (gauge.Snapshot, error) {
	if e.State() == NotStarted {
		return gauge.Snapshot{}, ErrEngineNotStarted
	}
	return e.cache.Read(), nil
}

func (e *Engine) run(interval time.Duration, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer func() {
		e.state.Store(int32(Stopped))
		logrus.WithField("device", e.name).Info("engine stopped")
		close(doneCh)
	}()

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-timer.C:
		}

		// Prefer stopping when both were ready.
		select {
		case <-stopCh:
			return
		default:
		}

		e.state.Store(int32(Polling))
		_, _ = e.poll()
		e.state.Store(int32(Idle))

		// Re-arm from completion, not from the fire time.
		timer.Reset(interval)
	}
}

// poll runs one cycle. The cache is replaced only if every step succeeded.
func (e *Engine) poll() (gauge.Snapshot, error) {
	start := e.now()
	fields := logrus.Fields{"device": e.name}

	raw, err := e.read()
	if err != nil {
		e.stats.fail(err, start)
		logrus.WithFields(fields).WithError(err).Warn("poll cycle failed, keeping previous snapshot")
		return gauge.Snapshot{}, err
	}

	decoded, err := e.decoder.Decode(raw, start)
	if err != nil {
		e.stats.fail(err, start)
		logrus.WithFields(fields).WithFields(logrus.Fields{
			"voltageCode": raw.VoltageCode,
			"chargeCode":  raw.ChargeCode,
		}).WithError(err).Warn("failed to decode sample, keeping previous snapshot")
		return gauge.Snapshot{}, err
	}

	prev := e.cache.Read()
	var prevSample *gauge.DecodedSample
	if !prev.IsPlaceholder() {
		prevSample = &prev.Decoded
	}

	cur := gauge.Snapshot{
		Decoded: decoded,
		Status:  e.inferrer.Infer(prevSample, decoded),
		Cycle:   prev.Cycle + 1,
	}
	e.cache.Replace(cur)
	e.stats.succeed(start)

	fields["cycle"] = cur.Cycle
	fields["voltageMV"] = cur.Decoded.VoltageMV
	fields["capacityPct"] = cur.Decoded.CapacityPct
	fields["status"] = cur.Status.String()
	if cur.Status != prev.Status {
		logrus.WithFields(fields).WithField("previousStatus", prev.Status.String()).Debug("charge status changed")
	} else {
		logrus.WithFields(fields).Trace("poll cycle completed")
	}

	e.notify(prev, cur)
	return cur, nil
}

// read issues exactly one read per register.
func (e *Engine) read() (gauge.RawSample, error) {
	v, err := e.client.ReadRegister(e.regs.Voltage)
	if err != nil {
		return gauge.RawSample{}, busError(err, "voltage", e.regs.Voltage)
	}
	c, err := e.client.ReadRegister(e.regs.Charge)
	if err != nil {
		return gauge.RawSample{}, busError(err, "charge", e.regs.Charge)
	}
	return gauge.RawSample{VoltageCode: v, ChargeCode: c}, nil
}

func busError(err error, what string, reg uint8) error {
	return fmt.Errorf("%w: %s register 0x%02X: %w", ErrBusTransactionFailed, what, reg, err)
}

func (e *Engine) notify(prev, cur gauge.Snapshot) {
	e.hooksMu.RLock()
	defer e.hooksMu.RUnlock()

	for _, fn := range e.onSnapshot {
		fn(cur)
	}
	if prev.Status == cur.Status {
		return
	}
	for _, fn := range e.onStatusChanged {
		fn(prev, cur)
	}
}

// IsBusError reports whether err came from a failed bus transaction.
func IsBusError(err error) bool {
	return errors.Is(err, ErrBusTransactionFailed)
}
