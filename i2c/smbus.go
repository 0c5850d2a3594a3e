package i2c

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-daq/smbus"

	"github.com/mklimuk/colorsensor"
)

var (
	_ colorsensor.RegisterBus = &SMBus{}
	_ colorsensor.WordReader  = &SMBus{}
)

// SMBus uses the kernel SMBus ioctls of /dev/i2c-N.
type SMBus struct {
	mx   sync.Mutex
	conn *smbus.Conn
	addr uint8
}

// OpenSMBus opens /dev/i2c-<bus> for the device at addr.
func OpenSMBus(bus int, addr uint8) (*SMBus, error) {
	conn, err := smbus.Open(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("could not open smbus %d: %w", bus, err)
	}
	return &SMBus{conn: conn, addr: addr}, nil
}

func (b *SMBus) WriteByteData(ctx context.Context, cmd byte, value byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.conn.WriteReg(b.addr, cmd, value); err != nil {
		return fmt.Errorf("smbus write %#x: %w", cmd, err)
	}
	return nil
}

func (b *SMBus) ReadByteData(ctx context.Context, cmd byte) (byte, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	v, err := b.conn.ReadReg(b.addr, cmd)
	if err != nil {
		return 0, fmt.Errorf("smbus read %#x: %w", cmd, err)
	}
	return v, nil
}

func (b *SMBus) ReadWordData(ctx context.Context, cmd byte) (uint16, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	v, err := b.conn.ReadWord(b.addr, cmd)
	if err != nil {
		return 0, fmt.Errorf("smbus read word %#x: %w", cmd, err)
	}
	return v, nil
}

// ReadBlockData reads byte by byte. The sensor does not prefix block reads
// with a count byte so the SMBus block transfer cannot be used.
func (b *SMBus) ReadBlockData(ctx context.Context, cmd byte, buf []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	for i := range buf {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := b.conn.ReadReg(b.addr, cmd+byte(i))
		if err != nil {
			return fmt.Errorf("smbus read %#x: %w", cmd+byte(i), err)
		}
		buf[i] = v
	}
	return nil
}

func (b *SMBus) Close() error {
	return b.conn.Close()
}
