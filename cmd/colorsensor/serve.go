package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/colorsensor/cmd/colorsensor/console"
	"github.com/mklimuk/colorsensor/monitor"
	"github.com/mklimuk/colorsensor/node"
	"github.com/mklimuk/colorsensor/query"
	"github.com/mklimuk/colorsensor/rpc"
	"github.com/mklimuk/colorsensor/store"
)

var serveCmd = cli.Command{
	Name:  "serve",
	Usage: "publish channel queries over gRPC and a local socket",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "grpc",
			Usage: "gRPC listen address, e.g. :7034",
		},
		&cli.StringFlag{
			Name:  "socket",
			Usage: "unix socket path for the line protocol",
		},
		&cli.DurationFlag{
			Name:  "socket-timeout",
			Usage: "disconnect idle socket clients after this long",
			Value: time.Minute,
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "log a reading to this SQLite database every poll interval",
		},
	}, sensorFlags...),
	Action: func(c *cli.Context) error {
		s, cfg, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closeSensor(c.Context, s)

		listen := cfg.GRPC.Listen
		if c.IsSet("grpc") {
			listen = c.String("grpc")
		}
		socket := cfg.Node.Socket
		if c.IsSet("socket") {
			socket = c.String("socket")
		}
		storePath := cfg.Store.Path
		if c.IsSet("store") {
			storePath = c.String("store")
		}
		var registrars []query.Registrar
		if listen != "" {
			registrars = append(registrars, rpc.NewRegistrar(listen))
		}
		if socket != "" {
			registrars = append(registrars, node.NewRegistrar(socket, c.Duration("socket-timeout")))
		}
		if len(registrars) == 0 && storePath == "" {
			return console.Exit(2, "nothing to serve: set --grpc, --socket or --store")
		}

		svc := query.NewService(s)
		if err := s.Register(c.Context, svc, registrars...); err != nil {
			return console.Exit(1, "could not publish queries: %s", console.Red(err))
		}
		for _, r := range registrars {
			console.PInfof(console.PictoSensor, "serving %s", console.White(r.Name()))
		}

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if storePath != "" {
			st, err := store.Open(storePath)
			if err != nil {
				return console.Exit(1, "could not open store: %s", console.Red(err))
			}
			defer st.Close()
			err = monitor.Run(ctx, s, monitor.WithInterval(cfg.PollInterval), monitor.WithSink(monitor.NewStoreSink(st)))
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
		} else {
			<-ctx.Done()
		}
		console.PInfof(console.PictoFinish, "shutting down")
		return nil
	},
}
