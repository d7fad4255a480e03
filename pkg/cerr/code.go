package cerr

import (
	"net/http"

	"connectrpc.com/connect"
)

// Code mirrors the connect/gRPC status codes so that one error value can be
// rendered both as an RPC error and as a JSON HTTP response.
type Code int

const (
	OK Code = iota
	Canceled
	Unknown
	InvalidArgument
	DeadlineExceeded
	NotFound
	AlreadyExists
	PermissionDenied
	ResourceExhausted
	FailedPrecondition
	Aborted
	OutOfRange
	Unimplemented
	Internal
	Unavailable
	DataLoss
	Unauthenticated
)

var codeNames = [...]string{
	OK:                 "ok",
	Canceled:           "canceled",
	Unknown:            "unknown",
	InvalidArgument:    "invalid_argument",
	DeadlineExceeded:   "deadline_exceeded",
	NotFound:           "not_found",
	AlreadyExists:      "already_exists",
	PermissionDenied:   "permission_denied",
	ResourceExhausted:  "resource_exhausted",
	FailedPrecondition: "failed_precondition",
	Aborted:            "aborted",
	OutOfRange:         "out_of_range",
	Unimplemented:      "unimplemented",
	Internal:           "internal",
	Unavailable:        "unavailable",
	DataLoss:           "data_loss",
	Unauthenticated:    "unauthenticated",
}

func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return "unknown"
	}
	return codeNames[c]
}

// connect.Code values are numerically identical to ours for every non-OK code.
func (c Code) ConnectCode() connect.Code {
	if c <= OK || c > Unauthenticated {
		return connect.CodeUnknown
	}
	return connect.Code(c)
}

func CodeOf(err error) Code {
	cc := connect.CodeOf(err)
	if cc < connect.CodeCanceled || cc > connect.CodeUnauthenticated {
		return Unknown
	}
	return Code(cc)
}

func (c Code) HTTPCode() int {
	switch c {
	case OK:
		return http.StatusOK
	case Canceled:
		return 499
	case InvalidArgument, OutOfRange:
		return http.StatusBadRequest
	case DeadlineExceeded:
		return http.StatusGatewayTimeout
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists, Aborted:
		return http.StatusConflict
	case PermissionDenied:
		return http.StatusForbidden
	case ResourceExhausted:
		return http.StatusTooManyRequests
	case FailedPrecondition:
		return http.StatusPreconditionFailed
	case Unimplemented:
		return http.StatusNotImplemented
	case Unavailable:
		return http.StatusServiceUnavailable
	case Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus picks the code that best describes a status returned by an
// upstream HTTP service.
func FromHTTPStatus(status int) Code {
	switch {
	case status >= 200 && status < 300:
		return OK
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return InvalidArgument
	case status == http.StatusUnauthorized:
		return Unauthenticated
	case status == http.StatusForbidden:
		return PermissionDenied
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusConflict:
		return AlreadyExists
	case status == http.StatusTooManyRequests:
		return ResourceExhausted
	case status == http.StatusGatewayTimeout, status == http.StatusRequestTimeout:
		return DeadlineExceeded
	case status == http.StatusNotImplemented:
		return Unimplemented
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable:
		return Unavailable
	case status >= 400 && status < 500:
		return FailedPrecondition
	default:
		return Internal
	}
}
