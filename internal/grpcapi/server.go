package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/reward-wheel/internal/catalog"
	"github.com/xtding233/reward-wheel/internal/coins"
	"github.com/xtding233/reward-wheel/internal/reward"
	"github.com/xtding233/reward-wheel/internal/wheel"
)

const frameBuffer = 64

// Server implements WheelServer on top of a reward.Service.
type Server struct {
	svc *reward.Service
	log *zap.Logger
}

var _ WheelServer = (*Server)(nil)

func NewServer(svc *reward.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, log: log}
}

// NewGRPCServer builds a grpc.Server with the wheel and health services
// registered and request logging installed.
func NewGRPCServer(svc *reward.Service, log *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if log == nil {
		log = zap.NewNop()
	}
	opts = append(opts,
		grpc.ChainUnaryInterceptor(unaryLogger(log)),
		grpc.ChainStreamInterceptor(streamLogger(log)),
	)
	g := grpc.NewServer(opts...)
	RegisterWheelServer(g, NewServer(svc, log))

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(g, hs)
	return g
}

func (s *Server) Spin(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, err := wheelName(in)
	if err != nil {
		return nil, err
	}
	wait := true
	if v, ok := in.GetFields()["wait"]; ok {
		wait = v.GetBoolValue()
	}

	tk, err := s.svc.Spin(name)
	if err != nil {
		return nil, toStatus(err)
	}
	out := map[string]any{
		"wheel":   tk.Wheel,
		"started": tk.Started,
		"seq":     tk.Pending.Seq(),
		"target":  tk.Target,
		"charged": tk.Charged,
		"balance": tk.Balance,
	}
	if wait {
		res, err := tk.Pending.Wait(ctx)
		if err != nil {
			return nil, toStatus(err)
		}
		out["result"] = res
		out["balance"] = s.svc.Balance()
	}
	return toStruct(out)
}

func (s *Server) State(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, err := wheelName(in)
	if err != nil {
		return nil, err
	}
	st, err := s.svc.State(name)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(st)
}

func (s *Server) Reset(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, err := wheelName(in)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Reset(name); err != nil {
		return nil, toStatus(err)
	}
	return s.State(ctx, in)
}

func (s *Server) Cancel(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, err := wheelName(in)
	if err != nil {
		return nil, err
	}
	ok, err := s.svc.Cancel(name)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"wheel": name, "canceled": ok, "balance": s.svc.Balance()})
}

func (s *Server) Frames(in *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	name, err := wheelName(in)
	if err != nil {
		return err
	}
	untilResolved := in.GetFields()["until_resolved"].GetBoolValue()

	frames, stop, err := s.svc.Watch(name, frameBuffer)
	if err != nil {
		return toStatus(err)
	}
	defer stop()

	st, err := s.svc.State(name)
	if err != nil {
		return toStatus(err)
	}
	msg, err := toStruct(map[string]any{"state": st})
	if err != nil {
		return err
	}
	if err := stream.Send(msg); err != nil {
		return err
	}
	if untilResolved && st.Phase != wheel.Spinning {
		return nil
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			msg, err := toStruct(map[string]any{"frame": f})
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
			if untilResolved && f.Phase != wheel.Spinning {
				return nil
			}
		}
	}
}

func wheelName(in *structpb.Struct) (string, error) {
	name := in.GetFields()["wheel"].GetStringValue()
	if name == "" {
		return "", status.Error(codes.InvalidArgument, "wheel is required")
	}
	return name, nil
}

// toStruct converts any JSON-encodable value into a Struct using its JSON
// field names.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return st, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, catalog.ErrInvalidName), errors.Is(err, reward.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, catalog.ErrWheelNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, coins.ErrInsufficientCoins):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, wheel.ErrSpinCanceled):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func unaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if status.Code(err) == codes.Internal {
			log.Error("grpc request failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("grpc request", fields...)
		}
		return resp, err
	}
}

func streamLogger(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		log.Debug("grpc stream",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("elapsed", time.Since(start)))
		return err
	}
}
