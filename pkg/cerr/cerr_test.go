package cerr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/smartplanner/pkg/storage"
)

func TestNewError_StackOnlyForErrorLevel(t *testing.T) {
	assert.NotEmpty(t, NewError(Internal, "server error", nil).Stack)
	assert.Empty(t, NewError(InvalidArgument, "bad goal", nil).Stack)
}

func TestError_Wrapping(t *testing.T) {
	base := errors.New("dial tcp: refused")
	err := fmt.Errorf("create plan: %w", NewError(Unavailable, "planning service unreachable", base))

	assert.True(t, IsCode(err, Unavailable))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "planning service unreachable", Message(err, "fallback"))
	assert.Equal(t, "fallback", Message(base, "fallback"))
	assert.Equal(t, "[unavailable] planning service unreachable: dial tcp: refused", errors.Unwrap(err).Error())
}

func TestConnectError(t *testing.T) {
	e := NewError(InvalidArgument, "goal too short", nil).AddViolation("goal_text", "goal.min_len", "at least 10 characters")

	ce := e.ConnectError()
	assert.Equal(t, connect.CodeInvalidArgument, ce.Code())
	assert.Equal(t, "goal too short", ce.Message())
	require.Len(t, ce.Details(), 1)

	vs := Violations(e)
	require.Len(t, vs, 1)
	assert.Equal(t, "goal.min_len", vs[0].GetRuleId())
	assert.Equal(t, "goal_text", vs[0].GetField().GetElements()[0].GetFieldName())
}

func TestExtractConnectError(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ExtractConnectError(ctx, nil))
	assert.Equal(t, connect.CodeCanceled, connect.CodeOf(ExtractConnectError(ctx, context.Canceled)))
	assert.Equal(t, connect.CodeUnknown, connect.CodeOf(ExtractConnectError(ctx, errors.New("raw"))))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(ExtractConnectError(ctx, NewError(NotFound, "plan not found", nil))))
}

func TestCodeMappings(t *testing.T) {
	assert.Equal(t, "invalid_argument", InvalidArgument.String())
	assert.Equal(t, connect.CodeUnauthenticated, Unauthenticated.ConnectCode())
	assert.Equal(t, connect.CodeUnknown, OK.ConnectCode())
	assert.Equal(t, NotFound, CodeOf(connect.NewError(connect.CodeNotFound, nil)))
	assert.Equal(t, http.StatusServiceUnavailable, Unavailable.HTTPCode())
	assert.Equal(t, 499, Canceled.HTTPCode())

	cases := map[int]Code{
		200: OK,
		400: InvalidArgument,
		422: InvalidArgument,
		401: Unauthenticated,
		404: NotFound,
		418: FailedPrecondition,
		429: ResourceExhausted,
		502: Unavailable,
		504: DeadlineExceeded,
		500: Internal,
	}
	for status, want := range cases {
		assert.Equal(t, want, FromHTTPStatus(status), "status %d", status)
	}
}

func TestStorageWrappers(t *testing.T) {
	nf := fmt.Errorf("plans/x.yaml: %w", storage.ErrNotFound)
	assert.True(t, IsCode(WrapStorageReadError("plan", nf), NotFound))
	assert.True(t, IsCode(WrapStorageDeleteError("plan", nf), NotFound))
	assert.True(t, IsCode(WrapStorageReadError("plan", errors.New("io")), Internal))
	assert.True(t, IsCode(WrapStorageWriteError("plan", errors.New("io")), Internal))
}

func TestJSONChiMiddleware(t *testing.T) {
	mw := NewJSONChiMiddleware()

	t.Run("response", func(t *testing.T) {
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			SetJSONResponse(r.Context(), map[string]string{"id": "01HX"})
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":"01HX"}`, rec.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			SetJSONError(r.Context(), NewError(InvalidArgument, "goal too short", nil).AddViolation("goal_text", "goal.min_len", "too short"))
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body httpError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid_argument", body.Code)
		assert.Equal(t, "goal too short", body.Message)
		assert.Equal(t, []string{"too short"}, body.Violations)
	})

	t.Run("unknown error hides message", func(t *testing.T) {
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			SetJSONError(r.Context(), errors.New("secret internals"))
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
	})
}

func TestWrapUpstreamStatus(t *testing.T) {
	err := WrapUpstreamStatus(http.StatusUnprocessableEntity, "goal_text is required")
	assert.Equal(t, InvalidArgument, err.Code)
	assert.Equal(t, "goal_text is required", err.Msg)
	assert.EqualError(t, err, "[invalid_argument] goal_text is required: upstream responded 422 Unprocessable Entity")

	assert.Equal(t, Internal, WrapUpstreamStatus(http.StatusInternalServerError, "Failed to create plan").Code)
}
