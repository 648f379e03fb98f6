package config

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/fuelgauge/pkg/bus"
	"github.com/charlie0129/fuelgauge/pkg/engine"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
)

type Config interface {
	DeviceName() string
	PollInterval() time.Duration
	BusOptions() bus.Options
	Registers() engine.Registers
	Scale() gauge.Scale
	StatusSignal() gauge.Signal
	ResetOnStart() bool
	AllowNonRootAccess() bool

	RedisEnabled() bool
	RedisAddr() string
	RedisKey() string
	RedisChannel() string

	SetPollInterval(time.Duration)
	SetAllowNonRootAccess(bool)

	// Validate checks that the configuration can drive an engine.
	Validate() error
	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
