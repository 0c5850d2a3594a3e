package i2c

import (
	"context"
	"fmt"
	"sync"

	gobot "gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/colorsensor"
)

var (
	_ colorsensor.RegisterBus = &GobotBus{}
	_ colorsensor.WordReader  = &GobotBus{}
)

// GobotBus uses a connection obtained from a gobot platform adaptor.
type GobotBus struct {
	mx       sync.Mutex
	conn     gobot.Connection
	finalize func() error
}

// NewGobotBus opens the device at addr on bus busNr of the given adaptor.
// finalize, if set, is called on Close after the connection is released.
func NewGobotBus(connector gobot.Connector, busNr, addr int, finalize func() error) (*GobotBus, error) {
	conn, err := connector.GetI2cConnection(addr, busNr)
	if err != nil {
		return nil, fmt.Errorf("could not get i2c connection to %#x on bus %d: %w", addr, busNr, err)
	}
	return &GobotBus{conn: conn, finalize: finalize}, nil
}

// OpenNanoPi connects the NanoPi NEO adaptor and opens the device on busNr.
func OpenNanoPi(busNr, addr int) (*GobotBus, error) {
	npi := nanopi.NewNeoAdaptor()
	err := npi.I2cBusAdaptor.Connect()
	if err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	bus, err := NewGobotBus(npi, busNr, addr, npi.I2cBusAdaptor.Finalize)
	if err != nil {
		_ = npi.I2cBusAdaptor.Finalize()
		return nil, err
	}
	return bus, nil
}

func (b *GobotBus) WriteByteData(ctx context.Context, cmd byte, value byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.conn.WriteByteData(cmd, value); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

func (b *GobotBus) ReadByteData(ctx context.Context, cmd byte) (byte, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	v, err := b.conn.ReadByteData(cmd)
	if err != nil {
		return 0, fmt.Errorf("read error: %w", err)
	}
	return v, nil
}

func (b *GobotBus) ReadWordData(ctx context.Context, cmd byte) (uint16, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	v, err := b.conn.ReadWordData(cmd)
	if err != nil {
		return 0, fmt.Errorf("read word error: %w", err)
	}
	return v, nil
}

func (b *GobotBus) ReadBlockData(ctx context.Context, cmd byte, buf []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.conn.ReadBlockData(cmd, buf); err != nil {
		return fmt.Errorf("read block error: %w", err)
	}
	return nil
}

func (b *GobotBus) Close() error {
	err := b.conn.Close()
	if b.finalize != nil {
		if ferr := b.finalize(); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}
