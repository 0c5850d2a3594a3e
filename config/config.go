// Package config loads the sensor daemon settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/colorsensor"
	"github.com/mklimuk/colorsensor/register"
	"github.com/mklimuk/colorsensor/sensor"
)

// Supported bus adapters.
const (
	AdapterGeneric = "generic"
	AdapterSMBus   = "smbus"
	AdapterNanoPi  = "nanopi"
	AdapterMCP2221 = "mcp2221"
)

var ErrInvalid = errors.New("invalid configuration")

type GRPC struct {
	Listen string `yaml:"listen"`
}

type Node struct {
	Socket string `yaml:"socket"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Config struct {
	Adapter         string        `yaml:"adapter"`
	Device          string        `yaml:"device"`
	Bus             int           `yaml:"bus"`
	Address         uint16        `yaml:"address"`
	IntegrationTime byte          `yaml:"integration_time"`
	Gain            string        `yaml:"gain"`
	ReadMode        string        `yaml:"read_mode"`
	WordStrategy    string        `yaml:"word_strategy"`
	HardFail        bool          `yaml:"hard_fail"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	GRPC            GRPC          `yaml:"grpc"`
	Node            Node          `yaml:"node"`
	Store           Store         `yaml:"store"`
}

func Default() Config {
	return Config{
		Adapter:         AdapterGeneric,
		Device:          "/dev/i2c-1",
		Bus:             1,
		Address:         colorsensor.DefaultAddress,
		IntegrationTime: sensor.IntegrationTime24ms,
		Gain:            sensor.Gain4x.String(),
		ReadMode:        sensor.ReadBurst.String(),
		WordStrategy:    register.WordAuto.String(),
		PollInterval:    time.Second,
	}
}

// Load overlays the file at path on top of the defaults.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterGeneric, AdapterSMBus, AdapterNanoPi, AdapterMCP2221:
	default:
		return fmt.Errorf("%w: unknown adapter %q", ErrInvalid, c.Adapter)
	}
	if c.Address == 0 || c.Address > 0x7F {
		return fmt.Errorf("%w: address %#x is not a 7-bit address", ErrInvalid, c.Address)
	}
	if _, err := sensor.ParseGain(c.Gain); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := sensor.ParseReadMode(c.ReadMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := register.ParseWordStrategy(c.WordStrategy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalid)
	}
	return nil
}

// Sensor returns the measurement settings.
func (c Config) Sensor() (sensor.Config, error) {
	gain, err := sensor.ParseGain(c.Gain)
	if err != nil {
		return sensor.Config{}, err
	}
	return sensor.Config{IntegrationTime: c.IntegrationTime, Gain: gain}, nil
}

// Protocol builds the register protocol matching the failure and word settings.
func (c Config) Protocol() (*register.Protocol, error) {
	strategy, err := register.ParseWordStrategy(c.WordStrategy)
	if err != nil {
		return nil, err
	}
	policy := register.PolicyPropagate
	if c.HardFail {
		policy = register.PolicyHardFail
	}
	return register.New(register.WithPolicy(policy), register.WithWordStrategy(strategy)), nil
}

func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c Config) Mode() (sensor.ReadMode, error) {
	return sensor.ParseReadMode(c.ReadMode)
}
