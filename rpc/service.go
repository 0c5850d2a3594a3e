// Package rpc exposes the query commands as the colorsensor.v1.ColorSensor
// gRPC service. Messages are protobuf well-known types so no generated code
// is needed on either side.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mklimuk/colorsensor"
	"github.com/mklimuk/colorsensor/query"
)

const ServiceName = "colorsensor.v1.ColorSensor"

const execMethod = "Exec"

// MethodName returns the RPC method answering cmd.
func MethodName(cmd query.Command) string {
	switch cmd {
	case query.ReadRed:
		return "ReadRed"
	case query.ReadGreen:
		return "ReadGreen"
	case query.ReadBlue:
		return "ReadBlue"
	}
	return execMethod
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type server struct {
	handler query.Handler
}

// serviceServer is the handler type checked by grpc.Server.RegisterService.
type serviceServer interface {
	exec(ctx context.Context, cmd query.Command) (*wrapperspb.UInt32Value, error)
}

func (s *server) exec(ctx context.Context, cmd query.Command) (*wrapperspb.UInt32Value, error) {
	v, err := s.handler.Handle(ctx, cmd)
	if err != nil {
		slog.Debug("grpc query failed", "command", cmd.String(), "error", err)
		return nil, toStatus(err)
	}
	return wrapperspb.UInt32(uint32(v)), nil
}

func readHandler(cmd query.Command) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(serviceServer)
		if interceptor == nil {
			return s.exec(ctx, cmd)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(MethodName(cmd))}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return s.exec(ctx, cmd)
		})
	}
}

func execHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	s := srv.(serviceServer)
	if interceptor == nil {
		return s.exec(ctx, query.Command(in.GetValue()))
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(execMethod)}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return s.exec(ctx, query.Command(req.(*wrapperspb.UInt32Value).GetValue()))
	})
}

func serviceDesc() *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*serviceServer)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "colorsensor/v1/colorsensor.proto",
	}
	for _, cmd := range query.Commands {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: MethodName(cmd),
			Handler:    readHandler(cmd),
		})
	}
	desc.Methods = append(desc.Methods, grpc.MethodDesc{MethodName: execMethod, Handler: execHandler})
	return desc
}

// RegisterHandler binds h to the service on srv.
func RegisterHandler(srv grpc.ServiceRegistrar, h query.Handler) {
	srv.RegisterService(serviceDesc(), &server{handler: h})
}

func toStatus(err error) error {
	var busErr *colorsensor.BusError
	switch {
	case errors.Is(err, colorsensor.ErrNotConfigured):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, query.ErrUnknownCommand):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.As(err, &busErr), errors.Is(err, colorsensor.ErrBusBusy):
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// fromStatus restores the sentinel errors a caller can test for.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %w", colorsensor.ErrNotConfigured, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %w", query.ErrUnknownCommand, err)
	}
	return err
}
