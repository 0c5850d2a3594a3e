// Package color converts raw TCS3472x channel counters into 0-255 RGB values.
package color

import (
	"encoding/binary"
	"fmt"
)

// Channel identifies one of the normalized color components.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// RawChannels holds one snapshot of the four photodiode counters.
type RawChannels struct {
	Clear uint16 `yaml:"clear"`
	Red   uint16 `yaml:"red"`
	Green uint16 `yaml:"green"`
	Blue  uint16 `yaml:"blue"`
}

// RawSize is the length of a burst read covering CDATAL..BDATAH.
const RawSize = 8

// ParseRaw decodes a CDATAL..BDATAH burst (low byte first for every channel).
func ParseRaw(buf []byte) (RawChannels, error) {
	if len(buf) < RawSize {
		return RawChannels{}, fmt.Errorf("short channel data: expected %d bytes, got %d", RawSize, len(buf))
	}
	return RawChannels{
		Clear: binary.LittleEndian.Uint16(buf[0:2]),
		Red:   binary.LittleEndian.Uint16(buf[2:4]),
		Green: binary.LittleEndian.Uint16(buf[4:6]),
		Blue:  binary.LittleEndian.Uint16(buf[6:8]),
	}, nil
}

// NormalizedColor is the clear-relative RGB value of a reading.
type NormalizedColor struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// Normalize scales every color channel to 255 relative to clear, rounding down.
// A zero clear channel yields black. Components above clear (noise, saturation)
// are clamped to 255.
func Normalize(raw RawChannels) NormalizedColor {
	if raw.Clear == 0 {
		return NormalizedColor{}
	}
	return NormalizedColor{
		R: scale(raw.Red, raw.Clear),
		G: scale(raw.Green, raw.Clear),
		B: scale(raw.Blue, raw.Clear),
	}
}

func scale(value, clear uint16) uint8 {
	v := uint32(value) * 255 / uint32(clear)
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Channel returns the value of one component.
func (c NormalizedColor) Channel(ch Channel) (int, error) {
	switch ch {
	case Red:
		return int(c.R), nil
	case Green:
		return int(c.G), nil
	case Blue:
		return int(c.B), nil
	}
	return 0, fmt.Errorf("unknown channel %d", int(ch))
}

func (c NormalizedColor) String() string {
	return fmt.Sprintf("R: %d, G: %d, B: %d", c.R, c.G, c.B)
}

// Hex returns the #rrggbb form of the color.
func (c NormalizedColor) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
