package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/colorsensor/cmd/colorsensor/console"
	"github.com/mklimuk/colorsensor/sensor"
	"github.com/mklimuk/colorsensor/store"
)

type sensorInfo struct {
	Chip        string `yaml:"chip"`
	ID          string `yaml:"id"`
	Adapter     string `yaml:"adapter"`
	Integration string `yaml:"integration"`
	Gain        string `yaml:"gain"`
	ReadMode    string `yaml:"read_mode"`
	State       string `yaml:"state"`
}

func chipName(id byte) string {
	switch id {
	case sensor.IDTCS34725:
		return "TCS34725"
	case sensor.IDTCS34727:
		return "TCS34727"
	}
	return "unknown"
}

var infoCmd = cli.Command{
	Name:  "info",
	Usage: "identify the chip and print the applied configuration",
	Flags: sensorFlags,
	Action: func(c *cli.Context) error {
		s, cfg, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closeSensor(c.Context, s)
		id, err := s.ChipID(c.Context)
		if err != nil {
			return console.Exit(1, "could not identify chip: %s", console.Red(err))
		}
		applied := s.Config()
		info := sensorInfo{
			Chip:        chipName(id),
			ID:          fmt.Sprintf("%#04x", id),
			Adapter:     cfg.Adapter,
			Integration: sensor.IntegrationDuration(applied.IntegrationTime).String(),
			Gain:        applied.Gain.String(),
			ReadMode:    cfg.ReadMode,
			State:       s.State().String(),
		}
		enc := yaml.NewEncoder(os.Stdout)
		if err := enc.Encode(info); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

var historyCmd = cli.Command{
	Name:  "history",
	Usage: "print readings logged to the SQLite store",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "store",
			Usage: "SQLite database path (defaults to the configured one)",
		},
		&cli.DurationFlag{
			Name:  "since",
			Usage: "print readings younger than this; zero prints the latest one",
		},
		&cli.DurationFlag{
			Name:  "prune",
			Usage: "delete readings older than this before printing",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(2, "configuration error: %s", console.Red(err))
		}
		path := cfg.Store.Path
		if c.IsSet("store") {
			path = c.String("store")
		}
		if path == "" {
			return console.Exit(2, "no store configured: set --store")
		}
		st, err := store.Open(path)
		if err != nil {
			return console.Exit(1, "could not open store: %s", console.Red(err))
		}
		defer st.Close()

		if age := c.Duration("prune"); age > 0 {
			n, err := st.Prune(c.Context, age)
			if err != nil {
				return console.Exit(1, "could not prune store: %s", console.Red(err))
			}
			console.Infof("pruned %d readings older than %s", n, age)
		}

		var readings []*store.Reading
		if since := c.Duration("since"); since > 0 {
			readings, err = st.Since(c.Context, time.Now().Add(-since))
		} else {
			var latest *store.Reading
			latest, err = st.Latest(c.Context)
			readings = append(readings, latest)
		}
		if errors.Is(err, store.ErrNotFound) || (err == nil && len(readings) == 0) {
			console.Warnf("no readings in %s", path)
			return nil
		}
		if err != nil {
			return console.Exit(1, "could not read store: %s", console.Red(err))
		}
		for _, r := range readings {
			console.Printf("%s %s\n", console.White(r.Timestamp.Local().Format(time.DateTime)), r.Color)
		}
		return nil
	},
}
