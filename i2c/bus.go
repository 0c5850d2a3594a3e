// Package i2c binds colorsensor.RegisterBus to the bus libraries available on
// the supported hosts.
package i2c

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"github.com/mklimuk/colorsensor"
)

var (
	_ colorsensor.RegisterBus = &TxBus{}
	_ colorsensor.WordReader  = &TxBus{}
)

// TxBus talks to a single device through a combined write-then-read
// transaction primitive. Both periph.io buses and TinyGo machine buses
// provide one.
type TxBus struct {
	mx     sync.Mutex
	bus    drivers.I2C
	addr   uint16
	closer io.Closer
}

// NewTxBus binds bus to the device at addr. closer may be nil when the bus
// is owned by someone else.
func NewTxBus(bus drivers.I2C, addr uint16, closer io.Closer) *TxBus {
	return &TxBus{bus: bus, addr: addr, closer: closer}
}

func (b *TxBus) WriteByteData(ctx context.Context, cmd byte, value byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.bus.Tx(b.addr, []byte{cmd, value}, nil); err != nil {
		return fmt.Errorf("could not write to i2c device %#x: %w", b.addr, err)
	}
	return nil
}

func (b *TxBus) ReadByteData(ctx context.Context, cmd byte) (byte, error) {
	buf := make([]byte, 1)
	if err := b.ReadBlockData(ctx, cmd, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *TxBus) ReadWordData(ctx context.Context, cmd byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := b.ReadBlockData(ctx, cmd, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (b *TxBus) ReadBlockData(ctx context.Context, cmd byte, buf []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.bus.Tx(b.addr, []byte{cmd}, buf); err != nil {
		return fmt.Errorf("could not read from i2c device %#x: %w", b.addr, err)
	}
	return nil
}

func (b *TxBus) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

type GenericOpts struct {
	Address uint16
	Speed   physic.Frequency
}

type GenericOpt func(*GenericOpts)

func WithAddress(addr uint16) GenericOpt {
	return func(o *GenericOpts) {
		o.Address = addr
	}
}

// WithSpeed sets the bus clock; zero keeps the kernel default.
func WithSpeed(f physic.Frequency) GenericOpt {
	return func(o *GenericOpts) {
		o.Speed = f
	}
}

// NewGenericBus opens a host bus through periph.io. dev is a bus name or
// number as understood by i2creg ("/dev/i2c-1", "1", "" for the first bus).
func NewGenericBus(dev string, opts ...GenericOpt) (*TxBus, error) {
	config := GenericOpts{Address: colorsensor.DefaultAddress}
	for _, opt := range opts {
		opt(&config)
	}
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	if config.Speed > 0 {
		if err := bus.SetSpeed(config.Speed); err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("could not set bus speed to %s: %w", config.Speed, err)
		}
	}
	return NewTxBus(bus, config.Address, bus), nil
}

// Buses lists the bus names registered with periph.io.
func Buses() ([]string, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	var names []string
	for _, ref := range i2creg.All() {
		names = append(names, ref.Name)
	}
	return names, nil
}

var _ drivers.I2C = i2c.Bus(nil)
