package cerr

import (
	"fmt"
	"net/http"
)

// WrapUpstreamStatus builds the error for a non-2xx response of an upstream
// HTTP service. msg is shown to the user; the status is kept for the logs.
func WrapUpstreamStatus(status int, msg string) *Error {
	code := FromHTTPStatus(status)
	if code == OK {
		code = Unknown
	}
	return NewError(code, msg, fmt.Errorf("upstream responded %d %s", status, http.StatusText(status)))
}
