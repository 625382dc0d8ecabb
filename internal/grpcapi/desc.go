package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "rewardwheel.v1.Wheel"

	SpinMethod   = "/" + ServiceName + "/Spin"
	StateMethod  = "/" + ServiceName + "/State"
	ResetMethod  = "/" + ServiceName + "/Reset"
	CancelMethod = "/" + ServiceName + "/Cancel"
	FramesMethod = "/" + ServiceName + "/Frames"
)

// WheelServer is the server API for the rewardwheel.v1.Wheel service.
// Requests and responses are google.protobuf.Struct values.
type WheelServer interface {
	Spin(context.Context, *structpb.Struct) (*structpb.Struct, error)
	State(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Cancel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Frames(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

type unaryFunc func(WheelServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryFunc) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(WheelServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(WheelServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func framesHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(WheelServer).Frames(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// ServiceDesc is the grpc.ServiceDesc for rewardwheel.v1.Wheel.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WheelServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Spin", Handler: unaryHandler(SpinMethod, WheelServer.Spin)},
		{MethodName: "State", Handler: unaryHandler(StateMethod, WheelServer.State)},
		{MethodName: "Reset", Handler: unaryHandler(ResetMethod, WheelServer.Reset)},
		{MethodName: "Cancel", Handler: unaryHandler(CancelMethod, WheelServer.Cancel)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Frames", Handler: framesHandler, ServerStreams: true},
	},
	Metadata: "rewardwheel/v1/wheel.proto",
}

func RegisterWheelServer(s grpc.ServiceRegistrar, srv WheelServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls rewardwheel.v1.Wheel over any client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Spin starts a spin. With wait it blocks until the spin resolves.
func (c *Client) Spin(ctx context.Context, wheel string, wait bool, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SpinMethod, map[string]any{"wheel": wheel, "wait": wait}, opts...)
}

func (c *Client) State(ctx context.Context, wheel string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, StateMethod, map[string]any{"wheel": wheel}, opts...)
}

func (c *Client) Reset(ctx context.Context, wheel string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResetMethod, map[string]any{"wheel": wheel}, opts...)
}

func (c *Client) Cancel(ctx context.Context, wheel string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CancelMethod, map[string]any{"wheel": wheel}, opts...)
}

// Frames opens a frame stream. With untilResolved the server ends the
// stream once the wheel stops spinning.
func (c *Client) Frames(ctx context.Context, wheel string, untilResolved bool, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	req, err := structpb.NewStruct(map[string]any{"wheel": wheel, "until_resolved": untilResolved})
	if err != nil {
		return nil, err
	}
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], FramesMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(req); err != nil {
		return nil, err
	}
	if err := x.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
