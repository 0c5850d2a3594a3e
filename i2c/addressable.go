package i2c

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mklimuk/colorsensor"
)

var (
	_ colorsensor.RegisterBus = &AddrBus{}
	_ colorsensor.WordReader  = &AddrBus{}
)

// AddrBus adapts a raw addressable bus (USB bridge) to register access.
// Reads are a command write followed by a separate read transfer.
type AddrBus struct {
	bus  colorsensor.I2CBus
	addr byte
}

func NewAddrBus(bus colorsensor.I2CBus, addr byte) *AddrBus {
	return &AddrBus{bus: bus, addr: addr}
}

func (b *AddrBus) WriteByteData(ctx context.Context, cmd byte, value byte) error {
	return b.bus.WriteToAddr(ctx, b.addr, []byte{cmd, value})
}

func (b *AddrBus) ReadByteData(ctx context.Context, cmd byte) (byte, error) {
	buf := make([]byte, 1)
	if err := b.ReadBlockData(ctx, cmd, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *AddrBus) ReadWordData(ctx context.Context, cmd byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := b.ReadBlockData(ctx, cmd, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (b *AddrBus) ReadBlockData(ctx context.Context, cmd byte, buf []byte) error {
	if err := b.bus.WriteToAddr(ctx, b.addr, []byte{cmd}); err != nil {
		return fmt.Errorf("could not select register %#x: %w", cmd, err)
	}
	if err := b.bus.ReadFromAddr(ctx, b.addr, buf); err != nil {
		return fmt.Errorf("could not read register %#x: %w", cmd, err)
	}
	return nil
}

// Close releases the bridge's bus and closes it when it is closable.
func (b *AddrBus) Close() error {
	err := b.bus.Release(context.Background())
	if c, ok := b.bus.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
