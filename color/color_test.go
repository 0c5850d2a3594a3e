package color

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ZeroClearIsBlack(t *testing.T) {
	for _, raw := range []RawChannels{
		{Clear: 0, Red: 0, Green: 0, Blue: 0},
		{Clear: 0, Red: 1, Green: 2, Blue: 3},
		{Clear: 0, Red: 0xFFFF, Green: 0xFFFF, Blue: 0xFFFF},
	} {
		assert.Equal(t, NormalizedColor{}, Normalize(raw), "%+v", raw)
	}
}

func TestNormalize_EqualToClearIsWhite(t *testing.T) {
	for _, c := range []uint16{1, 2, 100, 255, 4096, 0xFFFF} {
		raw := RawChannels{Clear: c, Red: c, Green: c, Blue: c}
		assert.Equal(t, NormalizedColor{R: 255, G: 255, B: 255}, Normalize(raw), "clear %d", c)
	}
}

func TestNormalize_NoColorIsBlack(t *testing.T) {
	for _, c := range []uint16{1, 100, 0xFFFF} {
		assert.Equal(t, NormalizedColor{}, Normalize(RawChannels{Clear: c}), "clear %d", c)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		given    RawChannels
		expected NormalizedColor
	}{
		// floor(50*255/100) = 127, floor(25*255/100) = 63
		{RawChannels{Clear: 100, Red: 50, Green: 100, Blue: 25}, NormalizedColor{R: 127, G: 255, B: 63}},
		{RawChannels{Clear: 3, Red: 1, Green: 2, Blue: 0}, NormalizedColor{R: 85, G: 170, B: 0}},
		{RawChannels{Clear: 0xFFFF, Red: 0x8000, Green: 0x0100, Blue: 0x0001}, NormalizedColor{R: 127, G: 0, B: 0}},
		// components above clear saturate instead of wrapping
		{RawChannels{Clear: 100, Red: 200, Green: 101, Blue: 0xFFFF}, NormalizedColor{R: 255, G: 255, B: 255}},
		{RawChannels{Clear: 1, Red: 0xFFFF, Green: 1, Blue: 0}, NormalizedColor{R: 255, G: 255, B: 0}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%+v", tt.given), func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.given))
		})
	}
}

func TestParseRaw(t *testing.T) {
	raw, err := ParseRaw([]byte{0x64, 0x00, 0x32, 0x00, 0x64, 0x00, 0x19, 0x00})
	require.NoError(t, err)
	assert.Equal(t, RawChannels{Clear: 100, Red: 50, Green: 100, Blue: 25}, raw)

	raw, err = ParseRaw([]byte{0x34, 0x12, 0xFF, 0x00, 0x00, 0xFF, 0x01, 0x80})
	require.NoError(t, err)
	assert.Equal(t, RawChannels{Clear: 0x1234, Red: 0x00FF, Green: 0xFF00, Blue: 0x8001}, raw)

	_, err = ParseRaw([]byte{0x00, 0x01})
	assert.Error(t, err)
}

func TestNormalizedColor_Channel(t *testing.T) {
	c := NormalizedColor{R: 1, G: 2, B: 3}
	for ch, expected := range map[Channel]int{Red: 1, Green: 2, Blue: 3} {
		v, err := c.Channel(ch)
		require.NoError(t, err)
		assert.Equal(t, expected, v)
	}
	_, err := c.Channel(Channel(7))
	assert.Error(t, err)
}

func TestNormalizedColor_Format(t *testing.T) {
	c := NormalizedColor{R: 127, G: 255, B: 63}
	assert.Equal(t, "R: 127, G: 255, B: 63", c.String())
	assert.Equal(t, "#7fff3f", c.Hex())
}
