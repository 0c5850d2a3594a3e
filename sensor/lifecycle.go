package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mklimuk/colorsensor/query"
	"github.com/mklimuk/colorsensor/register"
)

// Register binds h to every registrar in order. When a registrar fails, the
// ones registered before it are deregistered in reverse order and the
// original failure is returned. Registrars are called without holding the
// sensor lock so queries they admit may proceed.
func (s *TCS34725) Register(ctx context.Context, h query.Handler, registrars ...query.Registrar) error {
	s.regMx.Lock()
	defer s.regMx.Unlock()
	s.mx.Lock()
	state, closing := s.state, s.closing
	s.mx.Unlock()
	if closing || (state != BusOpen && state != Configured) {
		return fmt.Errorf("register in state %s: %w", state, ErrInvalidState)
	}
	var done []query.Registrar
	for _, r := range registrars {
		err := r.Register(ctx, h)
		if err == nil {
			slog.Debug("query handler registered", "registrar", r.Name())
			done = append(done, r)
			continue
		}
		for i := len(done) - 1; i >= 0; i-- {
			if derr := done[i].Deregister(ctx); derr != nil {
				slog.Error("rollback failed", "registrar", done[i].Name(), "error", derr)
			}
		}
		return fmt.Errorf("could not register %s: %w", r.Name(), err)
	}
	s.registered = append(s.registered, done...)
	return nil
}

// Close releases everything acquired by Open and Register in reverse order.
// All steps run even if an earlier one fails; failures are returned joined.
// Reads issued once Close has started fail with ErrNotConfigured.
func (s *TCS34725) Close(ctx context.Context) error {
	s.mx.Lock()
	if s.closing {
		s.mx.Unlock()
		return fmt.Errorf("close already in progress: %w", ErrInvalidState)
	}
	s.closing = true
	s.mx.Unlock()

	s.regMx.Lock()
	registered := s.registered
	s.registered = nil
	s.regMx.Unlock()

	var errs []error
	for i := len(registered) - 1; i >= 0; i-- {
		r := registered[i]
		if err := r.Deregister(ctx); err != nil {
			slog.Error("could not deregister query handler", "registrar", r.Name(), "error", err)
			errs = append(errs, fmt.Errorf("deregister %s: %w", r.Name(), err))
		}
	}

	s.mx.Lock()
	defer s.mx.Unlock()
	if s.bus != nil {
		if err := s.protocol.WriteRegister(ctx, s.bus, register.Enable, 0x00); err != nil {
			slog.Error("could not power down sensor", "error", err)
			errs = append(errs, fmt.Errorf("power down: %w", err))
		}
		if err := s.bus.Close(); err != nil {
			slog.Error("could not close bus", "device", s.config.Device, "error", err)
			errs = append(errs, fmt.Errorf("close bus: %w", err))
		}
		s.bus = nil
	}
	s.state = Uninitialized
	s.closing = false
	return errors.Join(errs...)
}
