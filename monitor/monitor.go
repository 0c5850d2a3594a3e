// Package monitor polls the sensor at a fixed interval and hands every
// reading to a set of sinks.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/colorsensor/color"
)

// RawSource performs one fresh four-channel read.
type RawSource interface {
	ReadRaw(ctx context.Context) (color.RawChannels, error)
}

// Sample is one poll result.
type Sample struct {
	Time  time.Time
	Raw   color.RawChannels
	Color color.NormalizedColor
}

type Sink interface {
	Write(ctx context.Context, s Sample) error
}

type SinkFunc func(ctx context.Context, s Sample) error

func (f SinkFunc) Write(ctx context.Context, s Sample) error {
	return f(ctx, s)
}

type Opts struct {
	Interval    time.Duration
	StopOnError bool
	// Count stops the loop after that many successful samples; zero runs
	// until the context is done.
	Count int
	Sinks []Sink
	Now   func() time.Time
}

type Opt func(*Opts)

func WithInterval(d time.Duration) Opt {
	return func(o *Opts) {
		o.Interval = d
	}
}

// WithStopOnError ends the loop on the first read error instead of logging it.
func WithStopOnError(stop bool) Opt {
	return func(o *Opts) {
		o.StopOnError = stop
	}
}

func WithCount(n int) Opt {
	return func(o *Opts) {
		o.Count = n
	}
}

func WithSink(s Sink) Opt {
	return func(o *Opts) {
		o.Sinks = append(o.Sinks, s)
	}
}

func WithClock(now func() time.Time) Opt {
	return func(o *Opts) {
		o.Now = now
	}
}

// Run reads src immediately and then once per interval until ctx is done.
// Sink errors are logged and never stop the loop.
func Run(ctx context.Context, src RawSource, opts ...Opt) error {
	config := Opts{Interval: time.Second, Now: time.Now}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Interval <= 0 {
		return fmt.Errorf("invalid poll interval %s", config.Interval)
	}
	ticker := time.NewTicker(config.Interval)
	defer ticker.Stop()
	taken := 0
	for {
		raw, err := src.ReadRaw(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil && config.StopOnError:
			return fmt.Errorf("poll failed: %w", err)
		case err != nil:
			slog.Error("could not read sensor", "error", err)
		default:
			sample := Sample{Time: config.Now(), Raw: raw, Color: color.Normalize(raw)}
			for _, sink := range config.Sinks {
				if err := sink.Write(ctx, sample); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("could not write sample", "error", err)
				}
			}
			taken++
			if config.Count > 0 && taken >= config.Count {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
