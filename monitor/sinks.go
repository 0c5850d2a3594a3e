package monitor

import (
	"context"
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/mklimuk/colorsensor/store"
)

// ConsoleSink prints one line per sample, optionally preceded by a swatch
// of the measured color.
type ConsoleSink struct {
	w       io.Writer
	profile termenv.Profile
	swatch  bool
	raw     bool
}

// NewConsoleSink writes to w using the color profile detected for it.
func NewConsoleSink(w io.Writer, swatch, raw bool) *ConsoleSink {
	return &ConsoleSink{w: w, profile: termenv.NewOutput(w).EnvColorProfile(), swatch: swatch, raw: raw}
}

func (c *ConsoleSink) WithProfile(p termenv.Profile) *ConsoleSink {
	c.profile = p
	return c
}

func (c *ConsoleSink) Write(ctx context.Context, s Sample) error {
	line := s.Color.String()
	if c.raw {
		line = fmt.Sprintf("%s (C: %d, R: %d, G: %d, B: %d)", line, s.Raw.Clear, s.Raw.Red, s.Raw.Green, s.Raw.Blue)
	}
	if c.swatch && c.profile != termenv.Ascii {
		block := c.profile.String("  ").Background(c.profile.Color(s.Color.Hex()))
		line = block.String() + " " + line
	}
	_, err := fmt.Fprintln(c.w, line)
	return err
}

// StoreSink appends samples to the reading log.
type StoreSink struct {
	store *store.Store
}

func NewStoreSink(s *store.Store) *StoreSink {
	return &StoreSink{store: s}
}

func (s *StoreSink) Write(ctx context.Context, sample Sample) error {
	return s.store.Save(ctx, &store.Reading{Timestamp: sample.Time, Raw: sample.Raw, Color: sample.Color})
}
