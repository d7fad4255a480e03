package cerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"

	"github.com/kazz187/smartplanner/pkg/clog"
)

type Error struct {
	Code    Code
	Msg     string          // shown to the user together with Code
	Err     error           // logged, never shown
	Stack   string          // captured for error-level codes
	Details []proto.Message // structured details returned to the user
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if clog.ConnectCodeToLevel(code.ConnectCode()) == clog.LevelError {
		buf := make([]byte, 2048)
		n := runtime.Stack(buf, false)
		err.Stack = string(buf[:n])
	}
	return err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AddViolation attaches a field violation detail and returns e for chaining.
func (e *Error) AddViolation(field, ruleID, msg string) *Error {
	v := &validate.Violation{
		Message: proto.String(msg),
		RuleId:  proto.String(ruleID),
	}
	if field != "" {
		v.Field = &validate.FieldPath{
			Elements: []*validate.FieldPathElement{{FieldName: proto.String(field)}},
		}
	}
	e.Details = append(e.Details, v)
	return e
}

// Violations returns the violation details attached to err, if any.
func Violations(err error) []*validate.Violation {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	var out []*validate.Violation
	for _, d := range e.Details {
		if v, ok := d.(*validate.Violation); ok {
			out = append(out, v)
		}
	}
	return out
}

func (e *Error) ConnectError() *connect.Error {
	connectErr := connect.NewError(e.Code.ConnectCode(), errors.New(e.Msg))
	for _, msg := range e.Details {
		detail, err := connect.NewErrorDetail(msg)
		if err != nil {
			continue
		}
		connectErr.AddDetail(detail)
	}
	return connectErr
}

func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Message returns the user-facing message of err. Errors that are not
// *Error have no safe message and yield fallback.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return fallback
}

// normalize turns any error into an *Error and records it on the log context.
// A caller that went away maps to Canceled and is not recorded.
func normalize(ctx context.Context, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return NewError(Canceled, "connection closed", err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.Err == "operation was canceled" {
		return NewError(Canceled, "connection closed", err)
	}

	clog.AddError(ctx, err)
	var e *Error
	if errors.As(err, &e) {
		if e.Stack != "" {
			clog.AddStack(ctx, e.Stack)
		}
		return e
	}
	return NewError(Unknown, "unknown error", err)
}
