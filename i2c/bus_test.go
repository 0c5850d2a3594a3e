package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/mklimuk/colorsensor/sensor"
)

func TestTxBus_Registers(t *testing.T) {
	ctx := context.Background()
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x29, W: []byte{0x80, 0x01}},
			{Addr: 0x29, W: []byte{0x92}, R: []byte{0x44}},
			{Addr: 0x29, W: []byte{0x96}, R: []byte{0x34, 0x12}},
			{Addr: 0x29, W: []byte{0x94}, R: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		},
		DontPanic: true,
	}
	bus := NewTxBus(pb, 0x29, pb)

	require.NoError(t, bus.WriteByteData(ctx, 0x80, 0x01))
	id, err := bus.ReadByteData(ctx, 0x92)
	require.NoError(t, err)
	assert.Equal(t, byte(0x44), id)
	word, err := bus.ReadWordData(ctx, 0x96)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), word)
	buf := make([]byte, 8)
	require.NoError(t, bus.ReadBlockData(ctx, 0x94, buf))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf)
	require.NoError(t, bus.Close())
}

func TestTxBus_Error(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x29, W: []byte{0x80, 0x01}}},
		DontPanic: true,
	}
	bus := NewTxBus(pb, 0x29, nil)
	// playback expects a different write
	err := bus.WriteByteData(context.Background(), 0x81, 0xF6)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "0x29")
	assert.NoError(t, bus.Close())
}

// Configure and read a sensor end to end over a recorded bus session.
func TestTxBus_SensorSession(t *testing.T) {
	ctx := context.Background()
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x29, W: []byte{0x80, 0x01}},
			{Addr: 0x29, W: []byte{0x80, 0x03}},
			{Addr: 0x29, W: []byte{0x81, 0xF6}},
			{Addr: 0x29, W: []byte{0x8F, 0x01}},
			{Addr: 0x29, W: []byte{0x94}, R: []byte{100, 0, 50, 0, 100, 0, 25, 0}},
			{Addr: 0x29, W: []byte{0x80, 0x00}},
		},
		DontPanic: true,
	}
	s := sensor.NewTCS34725(sensor.WithBus("playback", NewTxBus(pb, 0x29, pb)), sensor.WithSettleDelay(0))
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Configure(ctx, sensor.DefaultConfig()))
	c, err := s.ReadColor(ctx)
	require.NoError(t, err)
	assert.Equal(t, "R: 127, G: 255, B: 63", c.String())
	// Close verifies the whole recording was consumed
	require.NoError(t, s.Close(ctx))
}

type fakeAddressable struct {
	writes  [][]byte
	reply   []byte
	readErr error
	release int
}

func (f *fakeAddressable) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	f.writes = append(f.writes, append([]byte{address}, buffer...))
	return nil
}

func (f *fakeAddressable) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if f.readErr != nil {
		return f.readErr
	}
	copy(buffer, f.reply)
	return nil
}

func (f *fakeAddressable) Release(ctx context.Context) error {
	f.release++
	return nil
}

func TestAddrBus(t *testing.T) {
	ctx := context.Background()
	raw := &fakeAddressable{reply: []byte{0xCD, 0xAB}}
	bus := NewAddrBus(raw, 0x29)

	require.NoError(t, bus.WriteByteData(ctx, 0x8F, 0x02))
	w, err := bus.ReadWordData(ctx, 0x96)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xABCD), w)
	assert.Equal(t, [][]byte{{0x29, 0x8F, 0x02}, {0x29, 0x96}}, raw.writes)

	raw.readErr = errors.New("nack")
	_, err = bus.ReadByteData(ctx, 0x92)
	assert.ErrorContains(t, err, "nack")

	require.NoError(t, bus.Close())
	assert.Equal(t, 1, raw.release)
}
