// Package sensor drives a TCS34725 color sensor through its power-up,
// configuration, measurement and teardown lifecycle.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/colorsensor"
	"github.com/mklimuk/colorsensor/color"
	"github.com/mklimuk/colorsensor/query"
	"github.com/mklimuk/colorsensor/register"
)

// Known values of the ID register.
const (
	IDTCS34725 byte = 0x44
	IDTCS34727 byte = 0x4D
)

var ErrInvalidState = errors.New("tcs34725: operation not allowed in current state")

// State is the lifecycle state of the driver.
type State int

const (
	Uninitialized State = iota
	BusOpen
	Configured
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case BusOpen:
		return "bus-open"
	case Configured:
		return "configured"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// BusOpener acquires the bus connection to the sensor.
type BusOpener func(ctx context.Context) (colorsensor.RegisterBus, error)

type Opts struct {
	Device      string
	Opener      BusOpener
	Config      Config
	ReadMode    ReadMode
	Protocol    *register.Protocol
	SettleDelay time.Duration
}

type Opt func(*Opts)

// WithBus opens the given, already connected bus.
func WithBus(device string, bus colorsensor.RegisterBus) Opt {
	return func(o *Opts) {
		o.Device = device
		o.Opener = func(context.Context) (colorsensor.RegisterBus, error) {
			return bus, nil
		}
	}
}

func WithBusOpener(device string, opener BusOpener) Opt {
	return func(o *Opts) {
		o.Device = device
		o.Opener = opener
	}
}

func WithConfig(config Config) Opt {
	return func(o *Opts) {
		o.Config = config
	}
}

func WithReadMode(mode ReadMode) Opt {
	return func(o *Opts) {
		o.ReadMode = mode
	}
}

func WithProtocol(p *register.Protocol) Opt {
	return func(o *Opts) {
		o.Protocol = p
	}
}

// WithSettleDelay sets the wait between power-on and ADC enable.
func WithSettleDelay(delay time.Duration) Opt {
	return func(o *Opts) {
		o.SettleDelay = delay
	}
}

// TCS34725 represents an AMS TCS3472x color light-to-digital converter.
// Typical usage:
//
//	s := NewTCS34725(WithBusOpener("/dev/i2c-1", opener))
//	err := s.Open(ctx)
//	err = s.Configure(ctx, DefaultConfig())
//	c, err := s.ReadColor(ctx)
//	err = s.Close(ctx)
type TCS34725 struct {
	mx       sync.Mutex
	config   Opts
	protocol *register.Protocol
	state    State
	closing  bool
	bus      colorsensor.RegisterBus

	// regMx guards registered and is held while calling out to registrars
	regMx      sync.Mutex
	registered []query.Registrar
}

var _ query.ColorSource = &TCS34725{}

func NewTCS34725(opts ...Opt) *TCS34725 {
	config := Opts{
		Config:      DefaultConfig(),
		ReadMode:    ReadBurst,
		SettleDelay: 3 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Protocol == nil {
		config.Protocol = register.New()
	}
	return &TCS34725{config: config, protocol: config.Protocol}
}

func (s *TCS34725) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.state
}

// Config returns the configuration applied by the last Configure call or the default one.
func (s *TCS34725) Config() Config {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.config.Config
}

// Open acquires the bus connection.
func (s *TCS34725) Open(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state != Uninitialized || s.closing {
		return fmt.Errorf("open in state %s: %w", s.state, ErrInvalidState)
	}
	if s.config.Opener == nil {
		return &colorsensor.BusOpenError{Device: s.config.Device, Err: errors.New("no bus configured")}
	}
	bus, err := s.config.Opener(ctx)
	if err != nil {
		var openErr *colorsensor.BusOpenError
		if errors.As(err, &openErr) {
			return err
		}
		return &colorsensor.BusOpenError{Device: s.config.Device, Err: err}
	}
	s.bus = bus
	s.state = BusOpen
	slog.Debug("tcs34725 bus open", "device", s.config.Device)
	return nil
}

type configStep struct {
	name  string
	addr  register.Address
	value byte
}

// Configure runs power-on, ADC enable, integration time and gain writes in
// that order. The first failing write aborts the sequence and leaves the
// driver in the Failed state.
func (s *TCS34725) Configure(ctx context.Context, config Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("tcs34725: %w", err)
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state != BusOpen || s.closing {
		return fmt.Errorf("configure in state %s: %w", s.state, ErrInvalidState)
	}
	steps := []configStep{
		{"power-on", register.Enable, register.EnablePON},
		{"adc-enable", register.Enable, register.EnablePON | register.EnableAEN},
		{"integration-time", register.ATime, config.IntegrationTime},
		{"gain", register.Control, byte(config.Gain)},
	}
	for i, step := range steps {
		err := s.protocol.WriteRegister(ctx, s.bus, step.addr, step.value)
		if err != nil {
			s.state = Failed
			slog.Error("tcs34725 configuration failed", "step", i+1, "name", step.name, "error", err)
			return &colorsensor.ConfigStepError{Step: i + 1, Name: step.name, Err: err}
		}
		// oscillator needs 2.4ms after PON before the ADC may be enabled
		if i == 0 && s.config.SettleDelay > 0 {
			timer := time.NewTimer(s.config.SettleDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				s.state = Failed
				return &colorsensor.ConfigStepError{Step: 2, Name: steps[1].name, Err: ctx.Err()}
			}
		}
	}
	s.config.Config = config
	s.state = Configured
	slog.Info("tcs34725 configured",
		"integration", IntegrationDuration(config.IntegrationTime).String(),
		"gain", config.Gain.String(),
		"mode", s.config.ReadMode.String())
	return nil
}

// ChipID reads the ID register.
func (s *TCS34725) ChipID(ctx context.Context) (byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if (s.state != BusOpen && s.state != Configured) || s.closing {
		return 0, fmt.Errorf("read id in state %s: %w", s.state, ErrInvalidState)
	}
	id, err := s.protocol.ReadRegister8(ctx, s.bus, register.ID)
	if err != nil {
		return 0, fmt.Errorf("tcs34725: could not read id: %w", err)
	}
	return id, nil
}

// ReadRaw fetches a fresh snapshot of all four channel counters.
func (s *TCS34725) ReadRaw(ctx context.Context) (color.RawChannels, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state != Configured || s.closing {
		return color.RawChannels{}, colorsensor.ErrNotConfigured
	}
	if s.config.ReadMode == ReadWords {
		return s.readWords(ctx)
	}
	buf, err := s.protocol.ReadBlock(ctx, s.bus, register.CDataL, color.RawSize)
	if err != nil {
		return color.RawChannels{}, fmt.Errorf("tcs34725: could not read channels: %w", err)
	}
	return color.ParseRaw(buf)
}

func (s *TCS34725) readWords(ctx context.Context) (color.RawChannels, error) {
	var raw color.RawChannels
	channels := []struct {
		name string
		addr register.Address
		dst  *uint16
	}{
		{"clear", register.CDataL, &raw.Clear},
		{"red", register.RDataL, &raw.Red},
		{"green", register.GDataL, &raw.Green},
		{"blue", register.BDataL, &raw.Blue},
	}
	for _, ch := range channels {
		val, err := s.protocol.ReadRegister16(ctx, s.bus, ch.addr)
		if err != nil {
			return color.RawChannels{}, fmt.Errorf("tcs34725: could not read %s channel: %w", ch.name, err)
		}
		*ch.dst = val
	}
	return raw, nil
}

// ReadColor fetches fresh counters and normalizes them.
func (s *TCS34725) ReadColor(ctx context.Context) (color.NormalizedColor, error) {
	raw, err := s.ReadRaw(ctx)
	if err != nil {
		return color.NormalizedColor{}, err
	}
	return color.Normalize(raw), nil
}
