package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/colorsensor/cmd/colorsensor/console"
	"github.com/mklimuk/colorsensor/node"
	"github.com/mklimuk/colorsensor/query"
	"github.com/mklimuk/colorsensor/rpc"
)

var remoteFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "grpc",
		Usage: "address of a serving colorsensor",
	},
	&cli.StringFlag{
		Name:  "socket",
		Usage: "unix socket of a serving colorsensor",
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "per query timeout",
		Value: 5 * time.Second,
	},
}

// remoteHandler resolves the query target from flags or the config file.
// The returned function releases the connection.
func remoteHandler(c *cli.Context) (query.Handler, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, console.Exit(2, "configuration error: %s", console.Red(err))
	}
	target, socket := cfg.GRPC.Listen, cfg.Node.Socket
	if c.IsSet("grpc") {
		target, socket = c.String("grpc"), ""
	}
	if c.IsSet("socket") {
		target, socket = "", c.String("socket")
	}
	timeout := c.Duration("timeout")
	switch {
	case target != "":
		client, conn, err := rpc.Dial(target)
		if err != nil {
			return nil, nil, console.Exit(1, "%s", console.Red(err))
		}
		h := query.HandlerFunc(func(ctx context.Context, cmd query.Command) (int, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return client.Handle(ctx, cmd)
		})
		return h, func() { _ = conn.Close() }, nil
	case socket != "":
		h := query.HandlerFunc(func(ctx context.Context, cmd query.Command) (int, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return node.Query(ctx, socket, cmd)
		})
		return h, func() {}, nil
	}
	return nil, nil, console.Exit(2, "no query target: set --grpc or --socket")
}

var queryCmd = cli.Command{
	Name:      "query",
	Aliases:   []string{"q"},
	Usage:     "query a serving colorsensor",
	ArgsUsage: "<READ_R|READ_G|READ_B|1|2|3>...",
	Flags:     remoteFlags,
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return console.Exit(2, "usage: colorsensor query %s", c.Command.ArgsUsage)
		}
		h, release, err := remoteHandler(c)
		if err != nil {
			return err
		}
		defer release()
		for _, arg := range c.Args().Slice() {
			cmd, err := query.ParseCommand(arg)
			if err != nil {
				return console.Exit(2, "%s", console.Red(err))
			}
			v, err := h.Handle(c.Context, cmd)
			if err != nil {
				return console.Exit(1, "%s failed: %s", cmd, console.Red(err))
			}
			console.Printf("%s %s\n", cmd, console.Channel(cmd.String(), v))
		}
		return nil
	},
}

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive query prompt, local sensor unless --grpc or --socket is given",
	Flags: append(append([]cli.Flag{
		&cli.StringFlag{
			Name:  "history",
			Usage: "readline history file",
		},
	}, remoteFlags...), sensorFlags...),
	Action: func(c *cli.Context) error {
		var h query.Handler
		if c.IsSet("grpc") || c.IsSet("socket") {
			remote, release, err := remoteHandler(c)
			if err != nil {
				return err
			}
			defer release()
			h = remote
		} else {
			s, _, err := openSensor(c)
			if err != nil {
				return err
			}
			defer closeSensor(c.Context, s)
			h = query.NewService(s)
		}
		console.Infof("commands: READ_R, READ_G, READ_B (or 1, 2, 3); quit to exit")
		return console.Shell("color> ", c.String("history"), func(line string) error {
			cmd, err := query.ParseCommand(line)
			if err != nil {
				return err
			}
			v, err := h.Handle(c.Context, cmd)
			if err != nil {
				return fmt.Errorf("%s: %w", cmd, err)
			}
			console.Printf("%s\n", console.Channel(cmd.String(), v))
			return nil
		})
	},
}
