package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/fuelgauge/pkg/bus"
	"github.com/charlie0129/fuelgauge/pkg/engine"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
	"github.com/charlie0129/fuelgauge/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		DeviceName:          ptr.To("battery"),
		PollIntervalMs:      ptr.To(int(engine.DefaultInterval / time.Millisecond)),
		BusKind:             ptr.To(bus.KindI2C),
		BusDevice:           ptr.To(""),
		BusAddress:          ptr.To(bus.DefaultI2CAddress),
		ModbusEndpoint:      ptr.To(""),
		ModbusUnitID:        ptr.To(1),
		BusTimeoutMs:        ptr.To(1000),
		VoltageRegister:     ptr.To(int(engine.DefaultRegisters.Voltage)),
		ChargeRegister:      ptr.To(int(engine.DefaultRegisters.Charge)),
		VoltageLSBNanoVolts: ptr.To(int64(gauge.DefaultVoltageLSBNanoVolts)),
		CapacityDivisor:     ptr.To(gauge.DefaultCapacityDivisor),
		StatusSignal:        ptr.To(gauge.SignalVoltage.String()),
		ResetOnStart:        ptr.To(false),
		AllowNonRootAccess:  ptr.To(false),
		RedisEnabled:        ptr.To(false),
		RedisAddr:           ptr.To("127.0.0.1:6379"),
		RedisKey:            ptr.To("battery:fuelgauge"),
		RedisChannel:        ptr.To("battery"),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

// RawFileConfig is the on-disk form. Nil fields take their defaults.
type RawFileConfig struct {
	DeviceName          *string `json:"deviceName,omitempty"`
	PollIntervalMs      *int    `json:"pollIntervalMs,omitempty"`
	BusKind             *string `json:"busKind,omitempty"`
	BusDevice           *string `json:"busDevice,omitempty"`
	BusAddress          *int    `json:"busAddress,omitempty"`
	ModbusEndpoint      *string `json:"modbusEndpoint,omitempty"`
	ModbusUnitID        *int    `json:"modbusUnitId,omitempty"`
	BusTimeoutMs        *int    `json:"busTimeoutMs,omitempty"`
	VoltageRegister     *int    `json:"voltageRegister,omitempty"`
	ChargeRegister      *int    `json:"chargeRegister,omitempty"`
	VoltageLSBNanoVolts *int64  `json:"voltageLsbNanoVolts,omitempty"`
	CapacityDivisor     *int    `json:"capacityDivisor,omitempty"`
	StatusSignal        *string `json:"statusSignal,omitempty"`
	ResetOnStart        *bool   `json:"resetOnStart,omitempty"`
	AllowNonRootAccess  *bool   `json:"allowNonRootAccess,omitempty"`
	RedisEnabled        *bool   `json:"redisEnabled,omitempty"`
	RedisAddr           *string `json:"redisAddr,omitempty"`
	RedisKey            *string `json:"redisKey,omitempty"`
	RedisChannel        *string `json:"redisChannel,omitempty"`
}

// NewRawFileConfigFromConfig returns a fully populated raw config.
func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	b := c.BusOptions()
	r := c.Registers()
	s := c.Scale()
	rawConfig := &RawFileConfig{
		DeviceName:          ptr.To(c.DeviceName()),
		PollIntervalMs:      ptr.To(int(c.PollInterval() / time.Millisecond)),
		BusKind:             ptr.To(b.Kind),
		BusDevice:           ptr.To(b.Device),
		BusAddress:          ptr.To(int(b.Address)),
		ModbusEndpoint:      ptr.To(b.Endpoint),
		ModbusUnitID:        ptr.To(int(b.UnitID)),
		BusTimeoutMs:        ptr.To(int(b.Timeout / time.Millisecond)),
		VoltageRegister:     ptr.To(int(r.Voltage)),
		ChargeRegister:      ptr.To(int(r.Charge)),
		VoltageLSBNanoVolts: ptr.To(s.VoltageLSBNanoVolts),
		CapacityDivisor:     ptr.To(int(s.CapacityDivisor)),
		StatusSignal:        ptr.To(c.StatusSignal().String()),
		ResetOnStart:        ptr.To(c.ResetOnStart()),
		AllowNonRootAccess:  ptr.To(c.AllowNonRootAccess()),
		RedisEnabled:        ptr.To(c.RedisEnabled()),
		RedisAddr:           ptr.To(c.RedisAddr()),
		RedisKey:            ptr.To(c.RedisKey()),
		RedisChannel:        ptr.To(c.RedisChannel()),
	}

	return rawConfig, nil
}

// get returns the configured value or its default. The read lock must
// not be held by the caller.
func get[T any](f *File, pick func(*RawFileConfig) *T) T {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if v := pick(f.c); v != nil {
		return *v
	}
	return *pick(defaultFileConfig)
}

func (f *File) DeviceName() string {
	return get(f, func(c *RawFileConfig) *string { return c.DeviceName })
}

func (f *File) PollInterval() time.Duration {
	ms := get(f, func(c *RawFileConfig) *int { return c.PollIntervalMs })
	return time.Duration(ms) * time.Millisecond
}

func (f *File) BusOptions() bus.Options {
	return bus.Options{
		Kind:     get(f, func(c *RawFileConfig) *string { return c.BusKind }),
		Device:   get(f, func(c *RawFileConfig) *string { return c.BusDevice }),
		Address:  uint16(get(f, func(c *RawFileConfig) *int { return c.BusAddress })),
		Endpoint: get(f, func(c *RawFileConfig) *string { return c.ModbusEndpoint }),
		UnitID:   uint8(get(f, func(c *RawFileConfig) *int { return c.ModbusUnitID })),
		Timeout:  time.Duration(get(f, func(c *RawFileConfig) *int { return c.BusTimeoutMs })) * time.Millisecond,
	}
}

func (f *File) Registers() engine.Registers {
	return engine.Registers{
		Voltage: uint8(get(f, func(c *RawFileConfig) *int { return c.VoltageRegister })),
		Charge:  uint8(get(f, func(c *RawFileConfig) *int { return c.ChargeRegister })),
	}
}

func (f *File) Scale() gauge.Scale {
	return gauge.Scale{
		VoltageLSBNanoVolts: get(f, func(c *RawFileConfig) *int64 { return c.VoltageLSBNanoVolts }),
		CapacityDivisor:     uint32(get(f, func(c *RawFileConfig) *int { return c.CapacityDivisor })),
	}
}

// StatusSignal returns the configured signal. Invalid values fall back to
// voltage; Validate reports them.
func (f *File) StatusSignal() gauge.Signal {
	s, err := gauge.ParseSignal(get(f, func(c *RawFileConfig) *string { return c.StatusSignal }))
	if err != nil {
		return gauge.SignalVoltage
	}
	return s
}

func (f *File) ResetOnStart() bool {
	return get(f, func(c *RawFileConfig) *bool { return c.ResetOnStart })
}

func (f *File) AllowNonRootAccess() bool {
	return get(f, func(c *RawFileConfig) *bool { return c.AllowNonRootAccess })
}

func (f *File) RedisEnabled() bool {
	return get(f, func(c *RawFileConfig) *bool { return c.RedisEnabled })
}

func (f *File) RedisAddr() string {
	return get(f, func(c *RawFileConfig) *string { return c.RedisAddr })
}

func (f *File) RedisKey() string {
	return get(f, func(c *RawFileConfig) *string { return c.RedisKey })
}

func (f *File) RedisChannel() string {
	return get(f, func(c *RawFileConfig) *string { return c.RedisChannel })
}

func (f *File) SetPollInterval(d time.Duration) {
	if f.c == nil {
		panic("config is nil")
	}

	if d <= 0 {
		panic("poll interval must be positive")
	}

	ms := int(d / time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.PollIntervalMs = &ms
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	b := f.BusOptions()
	r := f.Registers()
	s := f.Scale()
	return logrus.Fields{
		"deviceName":         f.DeviceName(),
		"pollInterval":       f.PollInterval().String(),
		"busKind":            b.Kind,
		"busDevice":          b.Device,
		"busAddress":         b.Address,
		"modbusEndpoint":     b.Endpoint,
		"voltageRegister":    r.Voltage,
		"chargeRegister":     r.Charge,
		"voltageLsbNV":       s.VoltageLSBNanoVolts,
		"capacityDivisor":    s.CapacityDivisor,
		"statusSignal":       f.StatusSignal().String(),
		"resetOnStart":       f.ResetOnStart(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
		"redisEnabled":       f.RedisEnabled(),
	}
}
