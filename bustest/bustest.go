// Package bustest provides a fake colorsensor.RegisterBus emulating the
// sensor register file, for driver tests that do not touch hardware.
package bustest

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/colorsensor"
)

var ErrInjected = errors.New("bustest: injected failure")

// Op is one recorded transaction.
type Op struct {
	Kind  string // write, read, word, block
	Cmd   byte
	Value byte
	Len   int
}

func (o Op) String() string {
	switch o.Kind {
	case "write":
		return fmt.Sprintf("write %#04x=%#04x", o.Cmd, o.Value)
	case "block":
		return fmt.Sprintf("block %#04x+%d", o.Cmd, o.Len)
	}
	return fmt.Sprintf("%s %#04x", o.Kind, o.Cmd)
}

// Bus is an in-memory register file. Register offsets are taken from the
// command byte with the command bit stripped.
type Bus struct {
	mu        sync.Mutex
	regs      [32]byte
	ops       []Op
	failAt    int
	closed    bool
	closeErr  error
	inFlight  int
	maxFlight int
	hook      func(op Op)
}

var _ colorsensor.RegisterBus = &Bus{}

func New() *Bus {
	return &Bus{}
}

// FailAt makes the n-th transaction (1-indexed) fail. Zero disables injection.
func (b *Bus) FailAt(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failAt = n
}

// FailClose makes Close return err.
func (b *Bus) FailClose(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeErr = err
}

// OnOp installs a callback invoked (without the bus lock held) before each transaction.
func (b *Bus) OnOp(hook func(op Op)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hook = hook
}

// SetRaw stores channel counters in CDATA..BDATA.
func (b *Bus) SetRaw(clear, red, green, blue uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	binary.LittleEndian.PutUint16(b.regs[0x14:], clear)
	binary.LittleEndian.PutUint16(b.regs[0x16:], red)
	binary.LittleEndian.PutUint16(b.regs[0x18:], green)
	binary.LittleEndian.PutUint16(b.regs[0x1A:], blue)
}

// SetRegister stores a single register value.
func (b *Bus) SetRegister(addr, value byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regs[addr&0x1F] = value
}

// Register returns the current value of a register.
func (b *Bus) Register(addr byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[addr&0x1F]
}

// Ops returns a copy of the recorded transactions.
func (b *Bus) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Op(nil), b.ops...)
}

// Writes returns the recorded writes only.
func (b *Bus) Writes() []Op {
	var res []Op
	for _, op := range b.Ops() {
		if op.Kind == "write" {
			res = append(res, op)
		}
	}
	return res
}

// Reset forgets recorded transactions.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = nil
	b.maxFlight = 0
}

// MaxConcurrent returns the highest number of overlapping transactions observed.
func (b *Bus) MaxConcurrent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxFlight
}

func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Bus) begin(op Op) error {
	b.mu.Lock()
	hook := b.hook
	b.ops = append(b.ops, op)
	b.inFlight++
	if b.inFlight > b.maxFlight {
		b.maxFlight = b.inFlight
	}
	fail := b.failAt > 0 && len(b.ops) == b.failAt
	b.mu.Unlock()
	if hook != nil {
		hook(op)
	}
	if fail {
		return ErrInjected
	}
	return nil
}

func (b *Bus) end() {
	b.mu.Lock()
	b.inFlight--
	b.mu.Unlock()
}

func (b *Bus) WriteByteData(ctx context.Context, cmd byte, value byte) error {
	defer b.end()
	if err := b.begin(Op{Kind: "write", Cmd: cmd, Value: value}); err != nil {
		return err
	}
	b.mu.Lock()
	b.regs[cmd&0x1F] = value
	b.mu.Unlock()
	return nil
}

func (b *Bus) ReadByteData(ctx context.Context, cmd byte) (byte, error) {
	defer b.end()
	if err := b.begin(Op{Kind: "read", Cmd: cmd}); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[cmd&0x1F], nil
}

func (b *Bus) ReadBlockData(ctx context.Context, cmd byte, buf []byte) error {
	defer b.end()
	if err := b.begin(Op{Kind: "block", Cmd: cmd, Len: len(buf)}); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	start := int(cmd & 0x1F)
	if start+len(buf) > len(b.regs) {
		return fmt.Errorf("bustest: block read past register map")
	}
	copy(buf, b.regs[start:start+len(buf)])
	return nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return b.closeErr
}

// WordBus is a Bus that also supports native word reads.
type WordBus struct {
	*Bus
}

var _ colorsensor.WordReader = WordBus{}

func NewWordBus() WordBus {
	return WordBus{Bus: New()}
}

func (b WordBus) ReadWordData(ctx context.Context, cmd byte) (uint16, error) {
	defer b.end()
	if err := b.begin(Op{Kind: "word", Cmd: cmd}); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	start := int(cmd & 0x1F)
	return binary.LittleEndian.Uint16(b.regs[start : start+2]), nil
}
