package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/colorsensor/color"
	"github.com/mklimuk/colorsensor/cmd/colorsensor/console"
	"github.com/mklimuk/colorsensor/query"
)

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read the sensor once",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "channel",
			Usage: "print a single channel: r, g or b",
		},
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "print the raw channel counters too",
		},
	}, sensorFlags...),
	Action: func(c *cli.Context) error {
		s, _, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closeSensor(c.Context, s)

		if ch := c.String("channel"); ch != "" {
			cmd, err := query.ParseCommand(ch)
			if err != nil {
				return console.Exit(2, "%s", console.Red(err))
			}
			v, err := query.NewService(s).Handle(c.Context, cmd)
			if err != nil {
				return console.Exit(1, "read error: %s", console.Red(err))
			}
			console.Printf("%s\n", console.Channel(ch, v))
			return nil
		}
		raw, err := s.ReadRaw(c.Context)
		if err != nil {
			return console.Exit(1, "read error: %s", console.Red(err))
		}
		if c.Bool("raw") {
			console.Printf("C: %d, R: %d, G: %d, B: %d\n", raw.Clear, raw.Red, raw.Green, raw.Blue)
		}
		console.Printf("%s\n", console.White(color.Normalize(raw).String()))
		return nil
	},
}
