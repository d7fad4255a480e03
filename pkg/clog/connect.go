package clog

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"
)

type connectConfig struct {
	skip func(spec connect.Spec) bool
}

type ConnectOption func(*connectConfig)

func WithConnectSkip(skip func(connect.Spec) bool) ConnectOption {
	return func(cfg *connectConfig) {
		cfg.skip = skip
	}
}

// SkipHealthCheck is a ConnectOption skip predicate for the gRPC health procedure.
func SkipHealthCheck(spec connect.Spec) bool {
	return spec.Procedure == "/grpc.health.v1.Health/Check"
}

type slogConnectInterceptor struct {
	cfg connectConfig
}

// NewSlogConnectInterceptor logs one line per unary call and one pair of
// lines (connected/finished) per streaming handler.
func NewSlogConnectInterceptor(opts ...ConnectOption) connect.Interceptor {
	var cfg connectConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &slogConnectInterceptor{cfg: cfg}
}

func (s *slogConnectInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		ctx = ContextWithSlog(ctx)
		AddAttributes(ctx, map[string]any{
			"method":      req.HTTPMethod(),
			"procedure":   req.Spec().Procedure,
			"stream_type": req.Spec().StreamType.String(),
		})
		resp, err := next(ctx, req)
		if s.cfg.skip != nil && s.cfg.skip(req.Spec()) {
			return resp, err
		}
		s.finish(ctx, start, err)
		return resp, err
	}
}

func (s *slogConnectInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (s *slogConnectInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		ctx = ContextWithSlog(ctx)
		AddAttributes(ctx, map[string]any{
			"procedure":   conn.Spec().Procedure,
			"stream_type": conn.Spec().StreamType.String(),
		})
		logAt(ctx, LevelInfo, "Connected")
		err := next(ctx, conn)
		if s.cfg.skip != nil && s.cfg.skip(conn.Spec()) {
			return err
		}
		s.finish(ctx, start, err)
		return err
	}
}

func (s *slogConnectInterceptor) finish(ctx context.Context, start time.Time, err error) {
	var cerr *connect.Error
	code := "ok"
	if err != nil {
		if !errors.As(err, &cerr) {
			cerr = connect.NewError(connect.CodeUnknown, err)
		}
		code = cerr.Code().String()
	}
	AddAttributes(ctx, map[string]any{
		"code":     code,
		"duration": time.Since(start),
	})
	if cerr == nil {
		logAt(ctx, LevelInfo, "Finished")
		return
	}
	logConnectError(ctx, cerr)
}

func logConnectError(ctx context.Context, cerr *connect.Error) {
	if details := cerr.Details(); len(details) > 0 {
		msgs := make([]proto.Message, 0, len(details))
		for _, d := range details {
			v, err := d.Value()
			if err != nil {
				AddAttribute(ctx, "err_details_error", err.Error())
				continue
			}
			msgs = append(msgs, v)
		}
		AddAttribute(ctx, "err_details", msgs)
	}
	logAt(ctx, ConnectCodeToLevel(cerr.Code()), cerr.Message())
}
