// Package query exposes per-channel color reads to external callers and
// serializes access to the single shared sensor.
package query

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mklimuk/colorsensor/color"
)

// ColorSource performs a complete four-channel read and normalization.
type ColorSource interface {
	ReadColor(ctx context.Context) (color.NormalizedColor, error)
}

// Handler answers a single query command.
type Handler interface {
	Handle(ctx context.Context, cmd Command) (int, error)
}

type HandlerFunc func(ctx context.Context, cmd Command) (int, error)

func (f HandlerFunc) Handle(ctx context.Context, cmd Command) (int, error) {
	return f(ctx, cmd)
}

// Registrar binds a Handler to an outer surface (network service, local
// socket) and removes the binding again.
type Registrar interface {
	Name() string
	Register(ctx context.Context, h Handler) error
	Deregister(ctx context.Context) error
}

// Service is the query entry point. Only one read-and-normalize sequence is
// in flight at any time.
type Service struct {
	mx     sync.Mutex
	source ColorSource
}

var _ Handler = &Service{}

func NewService(source ColorSource) *Service {
	return &Service{source: source}
}

func (s *Service) ReadRed(ctx context.Context) (int, error) {
	return s.Handle(ctx, ReadRed)
}

func (s *Service) ReadGreen(ctx context.Context) (int, error) {
	return s.Handle(ctx, ReadGreen)
}

func (s *Service) ReadBlue(ctx context.Context) (int, error) {
	return s.Handle(ctx, ReadBlue)
}

// Handle refreshes all four channels and returns the component selected by cmd.
func (s *Service) Handle(ctx context.Context, cmd Command) (int, error) {
	ch, err := cmd.Channel()
	if err != nil {
		return 0, err
	}
	s.mx.Lock()
	c, err := s.source.ReadColor(ctx)
	s.mx.Unlock()
	if err != nil {
		slog.Debug("query failed", "command", cmd.String(), "error", err)
		return 0, err
	}
	slog.Debug("query answered", "command", cmd.String(), "color", c.String())
	return c.Channel(ch)
}
