package sensor

import (
	"fmt"
	"strings"
	"time"
)

// Gain is the CONTROL register value selecting the ADC gain.
type Gain byte

const (
	Gain1x  Gain = 0x00
	Gain4x  Gain = 0x01
	Gain16x Gain = 0x02
	Gain60x Gain = 0x03
)

func (g Gain) String() string {
	switch g {
	case Gain1x:
		return "1x"
	case Gain4x:
		return "4x"
	case Gain16x:
		return "16x"
	case Gain60x:
		return "60x"
	}
	return fmt.Sprintf("gain(%#04x)", byte(g))
}

// ParseGain accepts "1x".."60x" (the x is optional).
func ParseGain(s string) (Gain, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "x") {
	case "1":
		return Gain1x, nil
	case "4":
		return Gain4x, nil
	case "16":
		return Gain16x, nil
	case "60":
		return Gain60x, nil
	}
	return 0, fmt.Errorf("unsupported gain %q", s)
}

// ATIME register values. Integration time is (256 - ATIME) * 2.4ms.
const (
	IntegrationTime2_4ms byte = 0xFF
	IntegrationTime24ms  byte = 0xF6
	IntegrationTime50ms  byte = 0xEB
	IntegrationTime101ms byte = 0xD5
	IntegrationTime154ms byte = 0xC0
	IntegrationTime614ms byte = 0x00
)

// IntegrationDuration converts an ATIME register value into the ADC integration time.
func IntegrationDuration(atime byte) time.Duration {
	return time.Duration(256-int(atime)) * 2400 * time.Microsecond
}

// Config is the user-settable part of the configuration sequence.
type Config struct {
	IntegrationTime byte
	Gain            Gain
}

// DefaultConfig is 24ms integration time and 4x gain.
func DefaultConfig() Config {
	return Config{
		IntegrationTime: IntegrationTime24ms,
		Gain:            Gain4x,
	}
}

func (c Config) Validate() error {
	if c.Gain > Gain60x {
		return fmt.Errorf("invalid gain %#04x", byte(c.Gain))
	}
	return nil
}

// ReadMode selects how the four channels are fetched.
type ReadMode int

const (
	// ReadBurst fetches CDATAL..BDATAH in a single block transaction.
	ReadBurst ReadMode = iota
	// ReadWords fetches every channel with a separate 16-bit register read.
	ReadWords
)

func (m ReadMode) String() string {
	if m == ReadWords {
		return "words"
	}
	return "burst"
}

func ParseReadMode(s string) (ReadMode, error) {
	switch s {
	case "", "burst", "block":
		return ReadBurst, nil
	case "words", "word":
		return ReadWords, nil
	}
	return ReadBurst, fmt.Errorf("unknown read mode %q", s)
}
