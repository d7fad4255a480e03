package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/kazz187/smartplanner/pkg/clog"
)

type responseReceiverKey struct{}

type responseReceiver struct {
	response any
	err      error
}

func responseReceiverFromContext(ctx context.Context) *responseReceiver {
	rr, _ := ctx.Value(responseReceiverKey{}).(*responseReceiver)
	return rr
}

// SetJSONResponse sets the body the JSON middleware writes after the handler returns.
func SetJSONResponse(ctx context.Context, response any) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.response = response
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// NewJSONChiMiddleware lets handlers report a value or an error through the
// context; the middleware renders it as JSON.
func NewJSONChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &responseReceiver{}
			ctx := context.WithValue(r.Context(), responseReceiverKey{}, rr)
			next.ServeHTTP(rw, r.WithContext(ctx))
			writeResponse(ctx, rw, rr)
		})
	}
}

type httpError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
}

func writeResponse(ctx context.Context, rw http.ResponseWriter, rr *responseReceiver) {
	if rr.err == nil {
		if rr.response == nil {
			return
		}
		writeJSON(ctx, rw, http.StatusOK, rr.response)
		return
	}
	WriteJSONError(ctx, rw, rr.err)
}

// WriteJSONError renders err as {code, message} with the matching HTTP status.
func WriteJSONError(ctx context.Context, rw http.ResponseWriter, err error) {
	e := normalize(ctx, err)
	body := httpError{Code: e.Code.String(), Message: e.Msg}
	for _, v := range Violations(e) {
		body.Violations = append(body.Violations, v.GetMessage())
	}
	writeJSON(ctx, rw, e.Code.HTTPCode(), body)
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, status int, v any) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		clog.AddError(ctx, NewError(Internal, "server error", err))
		status = http.StatusInternalServerError
		buf = bytes.NewBufferString(`{"code":"internal","message":"server error"}` + "\n")
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if _, err := rw.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, err)
	}
}
