package register

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mklimuk/colorsensor"
)

var ErrInvalidAddress = errors.New("register address out of range")

// FailurePolicy decides what happens when a register read fails.
type FailurePolicy int

const (
	// PolicyPropagate returns the failure to the caller as a *colorsensor.BusError.
	PolicyPropagate FailurePolicy = iota
	// PolicyHardFail logs the failure and terminates the process.
	PolicyHardFail
)

// WordStrategy selects how 16-bit registers are read.
type WordStrategy int

const (
	// WordAuto uses a native word transaction when the bus supports it.
	WordAuto WordStrategy = iota
	// WordNative always uses a native word transaction.
	WordNative
	// WordComposed reads the low and the high register separately.
	WordComposed
)

func (s WordStrategy) String() string {
	switch s {
	case WordNative:
		return "native"
	case WordComposed:
		return "composed"
	default:
		return "auto"
	}
}

// ParseWordStrategy maps a config/flag value to a WordStrategy.
func ParseWordStrategy(s string) (WordStrategy, error) {
	switch s {
	case "", "auto":
		return WordAuto, nil
	case "native":
		return WordNative, nil
	case "composed":
		return WordComposed, nil
	}
	return WordAuto, fmt.Errorf("unknown word strategy %q", s)
}

var errWordUnsupported = errors.New("transport does not support word reads")

type Options struct {
	Policy   FailurePolicy
	Strategy WordStrategy
	Exit     func(code int)
}

type Option func(*Options)

func WithPolicy(policy FailurePolicy) Option {
	return func(o *Options) {
		o.Policy = policy
	}
}

func WithWordStrategy(strategy WordStrategy) Option {
	return func(o *Options) {
		o.Strategy = strategy
	}
}

// WithExit replaces the function called by PolicyHardFail.
func WithExit(exit func(code int)) Option {
	return func(o *Options) {
		o.Exit = exit
	}
}

// Protocol frames register accesses with the command bit. It keeps no bus
// state; the bus is lent by the caller for the duration of each call.
type Protocol struct {
	config Options
}

func New(opts ...Option) *Protocol {
	config := Options{
		Policy:   PolicyPropagate,
		Strategy: WordAuto,
		Exit:     os.Exit,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Protocol{config: config}
}

func (p *Protocol) Policy() FailurePolicy {
	return p.config.Policy
}

func (p *Protocol) Strategy() WordStrategy {
	return p.config.Strategy
}

// WriteRegister writes value to addr. Write failures are always propagated.
func (p *Protocol) WriteRegister(ctx context.Context, bus colorsensor.ByteWriter, addr Address, value byte) error {
	if addr > MaxAddress {
		return fmt.Errorf("write %#04x: %w", addr, ErrInvalidAddress)
	}
	err := bus.WriteByteData(ctx, Command(addr), value)
	if err != nil {
		return &colorsensor.BusError{Op: "write", Register: addr, Err: err}
	}
	return nil
}

// ReadRegister8 reads a single byte from addr.
func (p *Protocol) ReadRegister8(ctx context.Context, bus colorsensor.ByteReader, addr Address) (byte, error) {
	if addr > MaxAddress {
		return 0, fmt.Errorf("read %#04x: %w", addr, ErrInvalidAddress)
	}
	val, err := bus.ReadByteData(ctx, Command(addr))
	if err != nil {
		return 0, p.readFailed("read", addr, err)
	}
	return val, nil
}

// ReadRegister16 reads the little-endian word starting at addrLow.
func (p *Protocol) ReadRegister16(ctx context.Context, bus colorsensor.ByteReader, addrLow Address) (uint16, error) {
	if addrLow >= MaxAddress {
		return 0, fmt.Errorf("read word %#04x: %w", addrLow, ErrInvalidAddress)
	}
	words, native := bus.(colorsensor.WordReader)
	switch p.config.Strategy {
	case WordNative:
		if !native {
			return 0, p.readFailed("read word", addrLow, errWordUnsupported)
		}
	case WordComposed:
		native = false
	}
	if native {
		val, err := words.ReadWordData(ctx, Command(addrLow))
		if err != nil {
			return 0, p.readFailed("read word", addrLow, err)
		}
		return val, nil
	}
	low, err := p.ReadRegister8(ctx, bus, addrLow)
	if err != nil {
		return 0, err
	}
	high, err := p.ReadRegister8(ctx, bus, addrLow+1)
	if err != nil {
		return 0, err
	}
	return uint16(high)<<8 | uint16(low), nil
}

// ReadBlock reads length contiguous registers starting at addr in one burst.
func (p *Protocol) ReadBlock(ctx context.Context, bus colorsensor.BlockReader, addr Address, length int) ([]byte, error) {
	if length <= 0 || int(addr)+length-1 > int(MaxAddress) {
		return nil, fmt.Errorf("read block %#04x+%d: %w", addr, length, ErrInvalidAddress)
	}
	buf := make([]byte, length)
	err := bus.ReadBlockData(ctx, Command(addr), buf)
	if err != nil {
		return nil, p.readFailed("read block", addr, err)
	}
	return buf, nil
}

func (p *Protocol) readFailed(op string, addr Address, err error) error {
	busErr := &colorsensor.BusError{Op: op, Register: addr, Err: err}
	if p.config.Policy == PolicyHardFail {
		slog.Error("unrecoverable register read failure", "op", op, "register", fmt.Sprintf("%#04x", addr), "error", err)
		p.config.Exit(1)
	}
	return busErr
}
