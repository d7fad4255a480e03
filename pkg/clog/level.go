package clog

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
)

type Level int

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) Slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func HTTPStatusToLevel(status int) Level {
	switch {
	case status == 499:
		// client closed request
		return LevelInfo
	case status >= 100 && status < 400:
		return LevelInfo
	case status >= 400 && status < 500:
		return LevelWarn
	default:
		return LevelError
	}
}

func ConnectCodeToLevel(code connect.Code) Level {
	switch code {
	case connect.CodeCanceled,
		connect.CodeInvalidArgument,
		connect.CodeDeadlineExceeded,
		connect.CodeNotFound,
		connect.CodeAlreadyExists,
		connect.CodePermissionDenied,
		connect.CodeFailedPrecondition,
		connect.CodeAborted,
		connect.CodeOutOfRange,
		connect.CodeUnauthenticated:
		return LevelInfo
	default:
		return LevelError
	}
}

func logAt(ctx context.Context, level Level, msg string) {
	slog.Log(ctx, level.Slog(), msg)
}
