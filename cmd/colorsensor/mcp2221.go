package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/colorsensor/adapter"
	"github.com/mklimuk/colorsensor/cmd/colorsensor/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "inspect the MCP2221 USB-I2C bridge",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "index",
			Usage: "bridge index as printed by usb detect",
			Value: -1,
		},
	},
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

func newBridge(c *cli.Context) *adapter.MCP2221 {
	return adapter.NewMCP2221(adapter.WithIndex(c.Int("index")), adapter.WithDump(c.Bool("verbose")))
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}

var mcp2221StatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		status, err := newBridge(c).Status(c.Context)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return printYAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel a transfer stuck in the bridge's I2C engine",
	Action: func(c *cli.Context) error {
		status, err := newBridge(c).ReleaseBus(c.Context)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return printYAML(status)
	},
}
