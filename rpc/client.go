package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mklimuk/colorsensor/query"
)

var _ query.Handler = &Client{}

// Client calls a remote ColorSensor service.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Dial connects to target without transport security.
func Dial(target string) (*Client, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial %s: %w", target, err)
	}
	return NewClient(conn), conn, nil
}

func (c *Client) ReadRed(ctx context.Context) (int, error) {
	return c.Handle(ctx, query.ReadRed)
}

func (c *Client) ReadGreen(ctx context.Context) (int, error) {
	return c.Handle(ctx, query.ReadGreen)
}

func (c *Client) ReadBlue(ctx context.Context) (int, error) {
	return c.Handle(ctx, query.ReadBlue)
}

// Handle uses the per-channel method for known commands and Exec otherwise.
func (c *Client) Handle(ctx context.Context, cmd query.Command) (int, error) {
	out := new(wrapperspb.UInt32Value)
	var err error
	if name := MethodName(cmd); name != execMethod {
		err = c.conn.Invoke(ctx, fullMethod(name), &emptypb.Empty{}, out)
	} else {
		err = c.conn.Invoke(ctx, fullMethod(execMethod), wrapperspb.UInt32(uint32(cmd)), out)
	}
	if err != nil {
		return 0, fromStatus(err)
	}
	return int(out.GetValue()), nil
}

// Exec always goes through the generic command method.
func (c *Client) Exec(ctx context.Context, cmd query.Command) (int, error) {
	out := new(wrapperspb.UInt32Value)
	if err := c.conn.Invoke(ctx, fullMethod(execMethod), wrapperspb.UInt32(uint32(cmd)), out); err != nil {
		return 0, fromStatus(err)
	}
	return int(out.GetValue()), nil
}
