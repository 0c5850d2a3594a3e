package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobot "gobot.io/x/gobot/v2/drivers/i2c"
)

// fakeConnection implements the gobot connection methods used by GobotBus.
type fakeConnection struct {
	gobot.Connection
	regs   [32]byte
	closed bool
}

func (c *fakeConnection) WriteByteData(reg uint8, val uint8) error {
	c.regs[reg&0x1F] = val
	return nil
}

func (c *fakeConnection) ReadByteData(reg uint8) (uint8, error) {
	return c.regs[reg&0x1F], nil
}

func (c *fakeConnection) ReadWordData(reg uint8) (uint16, error) {
	r := reg & 0x1F
	return uint16(c.regs[r]) | uint16(c.regs[r+1])<<8, nil
}

func (c *fakeConnection) ReadBlockData(reg uint8, b []byte) error {
	copy(b, c.regs[reg&0x1F:])
	return nil
}

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	conn    *fakeConnection
	err     error
	address int
	bus     int
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (gobot.Connection, error) {
	f.address, f.bus = address, busNr
	if f.err != nil {
		return nil, f.err
	}
	return f.conn, nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return 0
}

func TestGobotBus(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConnection{}
	connector := &fakeConnector{conn: conn}
	finalized := false
	bus, err := NewGobotBus(connector, 2, 0x29, func() error {
		finalized = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0x29, connector.address)
	assert.Equal(t, 2, connector.bus)

	require.NoError(t, bus.WriteByteData(ctx, 0x96, 0x34))
	require.NoError(t, bus.WriteByteData(ctx, 0x97, 0x12))
	w, err := bus.ReadWordData(ctx, 0x96)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), w)
	b, err := bus.ReadByteData(ctx, 0x97)
	require.NoError(t, err)
	assert.Equal(t, byte(0x12), b)
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadBlockData(ctx, 0x96, buf))
	assert.Equal(t, []byte{0x34, 0x12}, buf)

	require.NoError(t, bus.Close())
	assert.True(t, conn.closed)
	assert.True(t, finalized)
}

func TestGobotBus_ConnectionError(t *testing.T) {
	_, err := NewGobotBus(&fakeConnector{err: errors.New("no bus")}, 1, 0x29, nil)
	assert.ErrorContains(t, err, "no bus")
}
