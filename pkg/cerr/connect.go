package cerr

import (
	"context"

	"connectrpc.com/connect"
)

type convertConnectErrorInterceptor struct{}

// NewConvertConnectErrorInterceptor turns handler errors into connect errors
// carrying only the user-facing message and details.
func NewConvertConnectErrorInterceptor() connect.Interceptor {
	return &convertConnectErrorInterceptor{}
}

func (i *convertConnectErrorInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		resp, err := next(ctx, req)
		return resp, ExtractConnectError(ctx, err)
	}
}

func (i *convertConnectErrorInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *convertConnectErrorInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		return ExtractConnectError(ctx, next(ctx, conn))
	}
}

func ExtractConnectError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return normalize(ctx, err).ConnectError()
}
