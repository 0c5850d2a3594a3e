package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/colorsensor"
	"github.com/mklimuk/colorsensor/adapter"
	"github.com/mklimuk/colorsensor/cmd/colorsensor/console"
	"github.com/mklimuk/colorsensor/config"
	"github.com/mklimuk/colorsensor/i2c"
	"github.com/mklimuk/colorsensor/sensor"
)

// sensorFlags select and tune the sensor; unset flags keep the config file values.
var sensorFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "bus adapter: generic, smbus, nanopi or mcp2221",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "i2c bus device for the generic adapter",
	},
	&cli.IntFlag{
		Name:  "bus",
		Usage: "i2c bus number for the smbus and nanopi adapters",
	},
	&cli.UintFlag{
		Name:  "address",
		Usage: "7-bit device address",
	},
	&cli.StringFlag{
		Name:    "gain",
		Aliases: []string{"g"},
		Usage:   "ADC gain: 1x, 4x, 16x or 60x",
	},
	&cli.UintFlag{
		Name:  "atime",
		Usage: "raw ATIME register value, integration time is (256 - atime) * 2.4ms",
	},
	&cli.StringFlag{
		Name:  "mode",
		Usage: "channel read mode: burst or words",
	},
	&cli.StringFlag{
		Name:  "word-strategy",
		Usage: "16-bit register reads: auto, native or composed",
	},
	&cli.BoolFlag{
		Name:  "hard-fail",
		Usage: "terminate the process on any failed register read",
	},
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("address") {
		addr := c.Uint("address")
		if addr > 0x7F {
			return cfg, fmt.Errorf("%w: address %#x is not a 7-bit address", config.ErrInvalid, addr)
		}
		cfg.Address = uint16(addr)
	}
	if c.IsSet("gain") {
		cfg.Gain = c.String("gain")
	}
	if c.IsSet("atime") {
		atime := c.Uint("atime")
		if atime > 0xFF {
			return cfg, fmt.Errorf("%w: atime %d does not fit the 8-bit register", config.ErrInvalid, atime)
		}
		cfg.IntegrationTime = byte(atime)
	}
	if c.IsSet("mode") {
		cfg.ReadMode = c.String("mode")
	}
	if c.IsSet("word-strategy") {
		cfg.WordStrategy = c.String("word-strategy")
	}
	if c.IsSet("hard-fail") {
		cfg.HardFail = c.Bool("hard-fail")
	}
	return cfg, cfg.Validate()
}

func busOpener(cfg config.Config, verbose bool) (string, sensor.BusOpener) {
	switch cfg.Adapter {
	case config.AdapterSMBus:
		dev := fmt.Sprintf("smbus:%d", cfg.Bus)
		return dev, func(ctx context.Context) (colorsensor.RegisterBus, error) {
			return i2c.OpenSMBus(cfg.Bus, uint8(cfg.Address))
		}
	case config.AdapterNanoPi:
		dev := fmt.Sprintf("nanopi:%d", cfg.Bus)
		return dev, func(ctx context.Context) (colorsensor.RegisterBus, error) {
			return i2c.OpenNanoPi(cfg.Bus, int(cfg.Address))
		}
	case config.AdapterMCP2221:
		return "mcp2221", func(ctx context.Context) (colorsensor.RegisterBus, error) {
			a := adapter.NewMCP2221(adapter.WithDump(verbose))
			return i2c.NewAddrBus(a, byte(cfg.Address)), nil
		}
	}
	return cfg.Device, func(ctx context.Context) (colorsensor.RegisterBus, error) {
		return i2c.NewGenericBus(cfg.Device, i2c.WithAddress(cfg.Address))
	}
}

// openSensor opens and configures the sensor described by the command flags.
// The caller owns the returned sensor and must Close it.
func openSensor(c *cli.Context) (*sensor.TCS34725, config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cfg, console.Exit(2, "configuration error: %s", console.Red(err))
	}
	ctx := console.SetVerbose(c.Context, c.Bool("verbose"))
	protocol, err := cfg.Protocol()
	if err != nil {
		return nil, cfg, console.Exit(2, "configuration error: %s", console.Red(err))
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, cfg, console.Exit(2, "configuration error: %s", console.Red(err))
	}
	settings, err := cfg.Sensor()
	if err != nil {
		return nil, cfg, console.Exit(2, "configuration error: %s", console.Red(err))
	}
	dev, opener := busOpener(cfg, console.IsVerbose(ctx))
	s := sensor.NewTCS34725(
		sensor.WithBusOpener(dev, opener),
		sensor.WithProtocol(protocol),
		sensor.WithReadMode(mode),
	)
	if err := s.Open(ctx); err != nil {
		return nil, cfg, console.Exit(1, "could not open sensor bus: %s", console.Red(err))
	}
	if err := s.Configure(ctx, settings); err != nil {
		_ = s.Close(ctx)
		return nil, cfg, console.Exit(1, "could not configure sensor: %s", console.Red(err))
	}
	return s, cfg, nil
}

func closeSensor(ctx context.Context, s *sensor.TCS34725) {
	if err := s.Close(context.WithoutCancel(ctx)); err != nil {
		console.Errorf("teardown incomplete: %s", console.Red(err))
	}
}
