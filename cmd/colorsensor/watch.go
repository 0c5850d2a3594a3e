package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/colorsensor/cmd/colorsensor/console"
	"github.com/mklimuk/colorsensor/monitor"
	"github.com/mklimuk/colorsensor/store"
)

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "print the color once per poll interval until interrupted",
	Flags: append([]cli.Flag{
		&cli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "poll interval (defaults to the configured one)",
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "stop after n readings",
		},
		&cli.BoolFlag{
			Name:  "swatch",
			Usage: "print a color swatch before every reading",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "print the raw channel counters too",
		},
		&cli.BoolFlag{
			Name:  "stop-on-error",
			Usage: "exit on the first failed read",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "also log readings to this SQLite database",
		},
	}, sensorFlags...),
	Action: func(c *cli.Context) error {
		s, cfg, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closeSensor(c.Context, s)

		interval := cfg.PollInterval
		if c.IsSet("interval") {
			interval = c.Duration("interval")
		}
		opts := []monitor.Opt{
			monitor.WithInterval(interval),
			monitor.WithCount(c.Int("count")),
			monitor.WithStopOnError(c.Bool("stop-on-error")),
			monitor.WithSink(monitor.NewConsoleSink(console.Output(), c.Bool("swatch"), c.Bool("raw"))),
		}
		storePath := cfg.Store.Path
		if c.IsSet("store") {
			storePath = c.String("store")
		}
		if storePath != "" {
			st, err := store.Open(storePath)
			if err != nil {
				return console.Exit(1, "could not open store: %s", console.Red(err))
			}
			defer st.Close()
			opts = append(opts, monitor.WithSink(monitor.NewStoreSink(st)))
		}

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := monitor.Run(ctx, s, opts...); err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		return nil
	},
}

