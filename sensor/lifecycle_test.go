package sensor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/colorsensor"
	"github.com/mklimuk/colorsensor/bustest"
	"github.com/mklimuk/colorsensor/node"
	"github.com/mklimuk/colorsensor/query"
)

// journal records lifecycle events across registrars and the bus
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type fakeRegistrar struct {
	name          string
	journal       *journal
	registerErr   error
	deregisterErr error
	handler       query.Handler
}

func (r *fakeRegistrar) Name() string {
	return r.name
}

func (r *fakeRegistrar) Register(ctx context.Context, h query.Handler) error {
	r.journal.add("register " + r.name)
	if r.registerErr != nil {
		return r.registerErr
	}
	r.handler = h
	return nil
}

func (r *fakeRegistrar) Deregister(ctx context.Context) error {
	r.journal.add("deregister " + r.name)
	return r.deregisterErr
}

func TestTCS34725_RegisterRollback(t *testing.T) {
	ctx := context.Background()
	j := &journal{}
	cause := errors.New("device node exists")
	primary := &fakeRegistrar{name: "primary", journal: j}
	secondary := &fakeRegistrar{name: "secondary", journal: j, registerErr: cause}

	s := configured(t, bustest.New())
	err := s.Register(ctx, query.NewService(s), primary, secondary)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "secondary")
	assert.Equal(t, []string{
		"register primary",
		"register secondary",
		"deregister primary",
	}, j.list())

	// nothing left to release
	require.NoError(t, s.Close(ctx))
	assert.Len(t, j.list(), 3)
}

func TestTCS34725_RegisterRollbackReverseOrder(t *testing.T) {
	ctx := context.Background()
	j := &journal{}
	regs := []query.Registrar{
		&fakeRegistrar{name: "a", journal: j},
		&fakeRegistrar{name: "b", journal: j, deregisterErr: errors.New("busy")},
		&fakeRegistrar{name: "c", journal: j},
		&fakeRegistrar{name: "d", journal: j, registerErr: errors.New("boom")},
	}
	s := configured(t, bustest.New())
	err := s.Register(ctx, query.NewService(s), regs...)
	require.Error(t, err)
	assert.Equal(t, []string{
		"register a", "register b", "register c", "register d",
		"deregister c", "deregister b", "deregister a",
	}, j.list())
}

func TestTCS34725_RegisterRequiresOpenBus(t *testing.T) {
	j := &journal{}
	s := newTestSensor(t, bustest.New())
	err := s.Register(context.Background(), query.NewService(s), &fakeRegistrar{name: "a", journal: j})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, j.list())
}

func TestTCS34725_CloseReverseOrder(t *testing.T) {
	ctx := context.Background()
	j := &journal{}
	bus := bustest.New()
	bus.OnOp(func(op bustest.Op) {
		if op.Kind == "write" && op.Cmd == 0x80 && op.Value == 0x00 {
			j.add("power down")
		}
	})
	s := configured(t, bus)
	first := &fakeRegistrar{name: "first", journal: j}
	second := &fakeRegistrar{name: "second", journal: j}
	require.NoError(t, s.Register(ctx, query.NewService(s), first, second))
	require.NotNil(t, first.handler)

	require.NoError(t, s.Close(ctx))
	assert.Equal(t, []string{
		"register first",
		"register second",
		"deregister second",
		"deregister first",
		"power down",
	}, j.list())
	assert.True(t, bus.Closed())
	assert.Equal(t, Uninitialized, s.State())
}

func TestTCS34725_CloseRunsToCompletion(t *testing.T) {
	ctx := context.Background()
	j := &journal{}
	bus := bustest.New()
	s := configured(t, bus)
	failing := &fakeRegistrar{name: "failing", journal: j, deregisterErr: errors.New("still open")}
	other := &fakeRegistrar{name: "other", journal: j}
	require.NoError(t, s.Register(ctx, query.NewService(s), other, failing))

	closeErr := errors.New("bad file descriptor")
	bus.FailClose(closeErr)
	bus.FailAt(len(bus.Ops()) + 1) // power down write

	err := s.Close(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, closeErr)
	assert.ErrorIs(t, err, bustest.ErrInjected)
	assert.Contains(t, err.Error(), "still open")
	assert.Equal(t, []string{"register other", "register failing", "deregister failing", "deregister other"}, j.list())
	assert.True(t, bus.Closed())
	assert.Equal(t, Uninitialized, s.State())
}

func TestTCS34725_CloseNeverOpened(t *testing.T) {
	bus := bustest.New()
	s := newTestSensor(t, bus)
	require.NoError(t, s.Close(context.Background()))
	assert.False(t, bus.Closed())
	assert.Empty(t, bus.Ops())
}

func TestTCS34725_RegisterRejectedWhenFailed(t *testing.T) {
	ctx := context.Background()
	j := &journal{}
	bus := bustest.New()
	s := newTestSensor(t, bus)
	require.NoError(t, s.Open(ctx))
	bus.FailAt(1)
	require.Error(t, s.Configure(ctx, DefaultConfig()))
	require.Equal(t, Failed, s.State())

	err := s.Register(ctx, query.NewService(s), &fakeRegistrar{name: "a", journal: j})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, j.list())
	require.NoError(t, s.Close(ctx))
}

// drainingRegistrar answers one last query from inside Deregister, the way
// a surface waiting for in-flight requests does.
type drainingRegistrar struct {
	handler query.Handler
	err     error
}

func (r *drainingRegistrar) Name() string {
	return "draining"
}

func (r *drainingRegistrar) Register(ctx context.Context, h query.Handler) error {
	r.handler = h
	return nil
}

func (r *drainingRegistrar) Deregister(ctx context.Context) error {
	_, r.err = r.handler.Handle(ctx, query.ReadRed)
	return nil
}

func waitClosed(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("Close did not return")
	}
	return nil
}

func TestTCS34725_CloseDrainsQueries(t *testing.T) {
	ctx := context.Background()
	bus := bustest.New()
	bus.SetRaw(100, 50, 100, 25)
	s := configured(t, bus)
	reg := &drainingRegistrar{}
	require.NoError(t, s.Register(ctx, query.NewService(s), reg))

	done := make(chan error, 1)
	go func() { done <- s.Close(ctx) }()
	require.NoError(t, waitClosed(t, done))
	assert.ErrorIs(t, reg.err, colorsensor.ErrNotConfigured)
	assert.True(t, bus.Closed())
	assert.Equal(t, Uninitialized, s.State())
}

func TestTCS34725_CloseWithNodeQueryInFlight(t *testing.T) {
	ctx := context.Background()
	dir, err := os.MkdirTemp("", "cs")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "q.sock")

	bus := bustest.New()
	bus.SetRaw(100, 50, 100, 25)
	s := configured(t, bus)
	svc := query.NewService(s)
	entered := make(chan struct{})
	release := make(chan struct{})
	h := query.HandlerFunc(func(ctx context.Context, cmd query.Command) (int, error) {
		close(entered)
		<-release
		return svc.Handle(ctx, cmd)
	})
	require.NoError(t, s.Register(ctx, h, node.NewRegistrar(path, 0)))

	go func() {
		_, _ = node.Query(ctx, path, query.ReadRed)
	}()
	<-entered

	done := make(chan error, 1)
	go func() { done <- s.Close(ctx) }()
	require.Eventually(t, func() bool {
		s.mx.Lock()
		defer s.mx.Unlock()
		return s.closing
	}, time.Second, 5*time.Millisecond)
	close(release)

	require.NoError(t, waitClosed(t, done))
	assert.True(t, bus.Closed())
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
