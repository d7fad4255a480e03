package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttributes(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, "plan_id", "01HX")
	AddAttributes(ctx, map[string]any{"nested": map[string]any{"a": 1}})
	AddAttributes(ctx, map[string]any{"nested": map[string]any{"b": 2}})

	assert.Equal(t, "01HX", GetAttribute[string](ctx, "plan_id"))
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, GetAttributes(ctx)["nested"])
	assert.Equal(t, 0, GetAttribute[int](ctx, "plan_id"))

	err := errors.New("boom")
	AddError(ctx, err)
	assert.Equal(t, err, GetError(ctx))
}

func TestContextAttributes_NoBag(t *testing.T) {
	ctx := context.Background()
	AddAttribute(ctx, "k", "v")
	assert.Nil(t, GetAttributes(ctx))
	assert.Equal(t, "", GetStack(ctx))
}

func TestTextHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewAttributesHandler(NewTextHandler(buf, WithColor(false), WithLevel(slog.LevelDebug))))

	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{"method": "GET", "path": "/plans", "status": 200})
	logger.InfoContext(ctx, "OK", "plan_id", "01HX")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "INFO GET /plans 200 OK")
	assert.Equal(t, "    plan_id=01HX", lines[1])
}

func TestTextHandler_Level(t *testing.T) {
	h := NewTextHandler(&bytes.Buffer{})
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}

func TestHTTPStatusToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(200))
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(302))
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(499))
	assert.Equal(t, LevelWarn, HTTPStatusToLevel(404))
	assert.Equal(t, LevelError, HTTPStatusToLevel(502))
	assert.Equal(t, LevelError, HTTPStatusToLevel(0))
}

func TestSlogChiMiddleware(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(NewAttributesHandler(NewTextHandler(buf, WithColor(false)))))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := SlogChiMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddAttribute(r.Context(), "plan_id", "01HX")
		w.WriteHeader(http.StatusNotFound)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans/01HX", nil))

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "/plans/01HX 404 Not Found")
	assert.Contains(t, out, "plan_id=01HX")
}
