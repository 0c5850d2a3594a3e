package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"

	"github.com/mklimuk/colorsensor/query"
)

var _ query.Registrar = &Registrar{}

// Registrar serves the query handler over gRPC on a TCP listener.
type Registrar struct {
	mx      sync.Mutex
	listen  string
	opts    []grpc.ServerOption
	srv     *grpc.Server
	lis     net.Listener
	stopped chan struct{}
}

func NewRegistrar(listen string, opts ...grpc.ServerOption) *Registrar {
	return &Registrar{listen: listen, opts: opts}
}

func (r *Registrar) Name() string {
	return "grpc " + r.listen
}

func (r *Registrar) Register(ctx context.Context, h query.Handler) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.srv != nil {
		return fmt.Errorf("grpc service already registered on %s", r.lis.Addr())
	}
	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", r.listen)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	srv := grpc.NewServer(r.opts...)
	RegisterHandler(srv, h)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			slog.Error("grpc server stopped", "address", lis.Addr().String(), "error", err)
		}
	}()
	r.srv, r.lis, r.stopped = srv, lis, stopped
	slog.Info("grpc service listening", "address", lis.Addr().String())
	return nil
}

// Addr returns the bound address, nil when not registered.
func (r *Registrar) Addr() net.Addr {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.lis == nil {
		return nil
	}
	return r.lis.Addr()
}

// Deregister stops accepting calls and waits for in-flight ones unless ctx
// expires first.
func (r *Registrar) Deregister(ctx context.Context) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.srv == nil {
		return nil
	}
	graceful := make(chan struct{})
	go func() {
		r.srv.GracefulStop()
		close(graceful)
	}()
	var err error
	select {
	case <-graceful:
	case <-ctx.Done():
		r.srv.Stop()
		err = ctx.Err()
	}
	<-r.stopped
	r.srv, r.lis, r.stopped = nil, nil, nil
	return err
}
