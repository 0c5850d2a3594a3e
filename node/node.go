// Package node publishes the query handler on a local unix socket speaking
// a line protocol: one command per line (READ_R, READ_G, READ_B or the
// numeric code), answered by "OK <value>" or "ERR <message>".
package node

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mklimuk/colorsensor/query"
)

var ErrExists = errors.New("socket path already exists")

var _ query.Registrar = &Registrar{}

type Registrar struct {
	mx      sync.Mutex
	path    string
	lis     net.Listener
	cancel  context.CancelFunc
	conns   map[net.Conn]struct{}
	wg      *sync.WaitGroup
	timeout time.Duration
}

// NewRegistrar creates a registrar for the socket at path. Idle clients are
// disconnected after timeout; zero disables the limit.
func NewRegistrar(path string, timeout time.Duration) *Registrar {
	return &Registrar{path: path, timeout: timeout}
}

func (r *Registrar) Name() string {
	return "node " + r.path
}

func (r *Registrar) Path() string {
	return r.path
}

// Register creates the socket. An existing file at the path is never
// replaced.
func (r *Registrar) Register(ctx context.Context, h query.Handler) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.lis != nil {
		return fmt.Errorf("%s: already registered", r.path)
	}
	if _, err := os.Stat(r.path); err == nil {
		return fmt.Errorf("%s: %w", r.path, ErrExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not stat %s: %w", r.path, err)
	}
	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "unix", r.path)
	if err != nil {
		return fmt.Errorf("could not create socket %s: %w", r.path, err)
	}
	// queries outlive the Register call but not the registration
	qctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.lis = lis
	r.cancel = cancel
	r.conns = make(map[net.Conn]struct{})
	r.wg = &sync.WaitGroup{}
	r.wg.Add(1)
	go r.accept(qctx, lis, r.wg, h)
	slog.Info("query node created", "path", r.path)
	return nil
}

func (r *Registrar) accept(ctx context.Context, lis net.Listener, wg *sync.WaitGroup, h query.Handler) {
	defer wg.Done()
	for {
		conn, err := lis.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				slog.Error("query node accept failed", "path", r.path, "error", err)
			}
			return
		}
		r.mx.Lock()
		if r.lis != lis {
			r.mx.Unlock()
			_ = conn.Close()
			return
		}
		r.conns[conn] = struct{}{}
		wg.Add(1)
		r.mx.Unlock()
		go r.serve(ctx, conn, wg, h)
	}
}

func (r *Registrar) serve(ctx context.Context, conn net.Conn, wg *sync.WaitGroup, h query.Handler) {
	defer wg.Done()
	defer func() {
		r.mx.Lock()
		delete(r.conns, conn)
		r.mx.Unlock()
		_ = conn.Close()
	}()
	scanner := bufio.NewScanner(conn)
	for {
		if r.timeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(r.timeout))
		}
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			return
		}
		if _, err := fmt.Fprintln(conn, answer(ctx, h, line)); err != nil {
			slog.Debug("query node write failed", "error", err)
			return
		}
	}
}

func answer(ctx context.Context, h query.Handler, line string) string {
	cmd, err := query.ParseCommand(line)
	if err != nil {
		return "ERR " + err.Error()
	}
	v, err := h.Handle(ctx, cmd)
	if err != nil {
		return "ERR " + err.Error()
	}
	return "OK " + strconv.Itoa(v)
}

// Deregister closes the listener and every open client, cancels queries in
// flight and removes the socket file. It waits for the client goroutines
// until ctx is done.
func (r *Registrar) Deregister(ctx context.Context) error {
	r.mx.Lock()
	if r.lis == nil {
		r.mx.Unlock()
		return nil
	}
	err := r.lis.Close()
	r.cancel()
	for conn := range r.conns {
		_ = conn.Close()
	}
	wg := r.wg
	r.lis = nil
	r.cancel = nil
	r.mx.Unlock()

	if rerr := os.Remove(r.path); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
		err = errors.Join(err, rerr)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = errors.Join(err, ctx.Err())
	}
	return err
}

// Query sends a single command to the node at path and returns the value.
func Query(ctx context.Context, path string, cmd query.Command) (int, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return 0, fmt.Errorf("could not connect to %s: %w", path, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := fmt.Fprintln(conn, cmd.String()); err != nil {
		return 0, fmt.Errorf("could not send command: %w", err)
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("could not read response: %w", err)
	}
	resp = strings.TrimSpace(resp)
	if msg, ok := strings.CutPrefix(resp, "ERR "); ok {
		return 0, errors.New(msg)
	}
	val, ok := strings.CutPrefix(resp, "OK ")
	if !ok {
		return 0, fmt.Errorf("malformed response %q", resp)
	}
	return strconv.Atoi(val)
}
