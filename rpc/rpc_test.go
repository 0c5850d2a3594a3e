package rpc

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mklimuk/colorsensor"
	"github.com/mklimuk/colorsensor/bustest"
	"github.com/mklimuk/colorsensor/query"
	"github.com/mklimuk/colorsensor/sensor"
)

// startTestServer registers h on an ephemeral port and returns a connected client.
func startTestServer(t *testing.T, h query.Handler, opts ...grpc.ServerOption) (*Client, *Registrar) {
	t.Helper()
	reg := NewRegistrar("127.0.0.1:0", opts...)
	require.NoError(t, reg.Register(context.Background(), h))
	t.Cleanup(func() { _ = reg.Deregister(context.Background()) })

	client, conn, err := Dial(reg.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return client, reg
}

func configuredService(t *testing.T) (*query.Service, *bustest.Bus) {
	t.Helper()
	bus := bustest.New()
	s := sensor.NewTCS34725(sensor.WithBus("test", bus), sensor.WithSettleDelay(0))
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Configure(ctx, sensor.DefaultConfig()))
	return query.NewService(s), bus
}

func TestRPC_ReadChannels(t *testing.T) {
	svc, bus := configuredService(t)
	bus.SetRaw(100, 50, 100, 25)
	client, _ := startTestServer(t, svc)
	ctx := context.Background()

	r, err := client.ReadRed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 127, r)
	g, err := client.ReadGreen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 255, g)
	b, err := client.ReadBlue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 63, b)

	v, err := client.Exec(ctx, query.ReadBlue)
	require.NoError(t, err)
	assert.Equal(t, 63, v)
}

func TestRPC_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		s := sensor.NewTCS34725(sensor.WithBus("test", bustest.New()))
		client, _ := startTestServer(t, query.NewService(s))
		_, err := client.ReadRed(ctx)
		assert.ErrorIs(t, err, colorsensor.ErrNotConfigured)
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})

	t.Run("unknown command", func(t *testing.T) {
		svc, bus := configuredService(t)
		bus.Reset()
		client, _ := startTestServer(t, svc)
		_, err := client.Exec(ctx, query.Command(42))
		assert.ErrorIs(t, err, query.ErrUnknownCommand)
		assert.Empty(t, bus.Ops())
	})

	t.Run("bus failure", func(t *testing.T) {
		svc, bus := configuredService(t)
		bus.FailAt(len(bus.Ops()) + 1)
		client, _ := startTestServer(t, svc)
		_, err := client.ReadGreen(ctx)
		assert.Equal(t, codes.Unavailable, status.Code(err))
	})
}

func TestRPC_Interceptor(t *testing.T) {
	var mx sync.Mutex
	var methods []string
	var calls atomic.Int32
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		calls.Add(1)
		mx.Lock()
		methods = append(methods, info.FullMethod)
		mx.Unlock()
		return handler(ctx, req)
	}
	h := query.HandlerFunc(func(ctx context.Context, cmd query.Command) (int, error) {
		return int(cmd), nil
	})
	client, _ := startTestServer(t, h, grpc.UnaryInterceptor(interceptor))

	v, err := client.ReadGreen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	v, err = client.Exec(context.Background(), query.ReadBlue)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, int32(2), calls.Load())
	mx.Lock()
	defer mx.Unlock()
	assert.Equal(t, []string{
		"/colorsensor.v1.ColorSensor/ReadGreen",
		"/colorsensor.v1.ColorSensor/Exec",
	}, methods)
}

func TestRegistrar_Lifecycle(t *testing.T) {
	ctx := context.Background()
	h := query.HandlerFunc(func(ctx context.Context, cmd query.Command) (int, error) {
		return 0, nil
	})
	reg := NewRegistrar("127.0.0.1:0")
	assert.Nil(t, reg.Addr())
	require.NoError(t, reg.Deregister(ctx))

	require.NoError(t, reg.Register(ctx, h))
	assert.Error(t, reg.Register(ctx, h))
	require.NoError(t, reg.Deregister(ctx))
	assert.Nil(t, reg.Addr())

	// the listener is released and can be bound again
	require.NoError(t, reg.Register(ctx, h))
	require.NoError(t, reg.Deregister(ctx))
}

func TestRegistrar_ListenError(t *testing.T) {
	reg := NewRegistrar("256.0.0.1:1")
	assert.Error(t, reg.Register(context.Background(), query.HandlerFunc(nil)))
	assert.Nil(t, reg.Addr())
}
