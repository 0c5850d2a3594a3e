package colorsensor

import (
	"context"
	"errors"
)

// ErrBusBusy is returned by bridges whose I2C engine has not finished the previous transfer.
var ErrBusBusy = errors.New("I2C engine is busy (command not completed)")

// DefaultAddress is the fixed 7-bit bus address of the TCS3472x family.
const DefaultAddress = 0x29

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a raw bus able to talk to any address (USB bridges, bit-banged buses).
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// ByteWriter writes a single byte to the register selected by cmd.
type ByteWriter interface {
	WriteByteData(ctx context.Context, cmd byte, value byte) error
}

// ByteReader reads a single byte from the register selected by cmd.
type ByteReader interface {
	ReadByteData(ctx context.Context, cmd byte) (byte, error)
}

// WordReader is implemented by transports able to read a little-endian
// 16-bit word in a single combined transaction.
type WordReader interface {
	ReadWordData(ctx context.Context, cmd byte) (uint16, error)
}

// BlockReader fills buf with contiguous bytes starting at the register selected by cmd.
type BlockReader interface {
	ReadBlockData(ctx context.Context, cmd byte, buf []byte) error
}

// RegisterBus is an open connection to a single device on the bus. The cmd
// byte passed to every method is sent verbatim; framing is the caller's job.
type RegisterBus interface {
	ByteWriter
	ByteReader
	BlockReader
	Close() error
}
