package clog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
)

type TextHandlerConfig struct {
	Color bool
	Level *slog.Level
	// Lead lists attribute keys printed inline before the message, in order.
	Lead []string
}

type TextHandlerOption func(*TextHandlerConfig)

func WithColor(c bool) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Color = c
	}
}

func WithLevel(level slog.Level) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Level = &level
	}
}

func WithLead(keys ...string) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Lead = keys
	}
}

// TextHandler is a human oriented handler for local development: one colored
// headline per record followed by the remaining attributes, one per line.
type TextHandler struct {
	cfg   TextHandlerConfig
	attrs []slog.Attr
	mu    *sync.Mutex
	w     io.Writer
}

func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	cfg := TextHandlerConfig{
		Color: true,
		Lead:  []string{"proto", "method", "procedure", "path", "status"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TextHandler{cfg: cfg, mu: &sync.Mutex{}, w: w}
}

func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.cfg.Level != nil {
		minLevel = *h.cfg.Level
	}
	return l >= minLevel
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// WithGroup is a no-op; groups are flattened by this handler.
func (h *TextHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *TextHandler) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if h.cfg.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (h *TextHandler) Handle(_ context.Context, record slog.Record) error {
	buf := &bytes.Buffer{}

	plain := h.paint()
	plain.Fprintf(buf, "%s ", record.Time.Format(time.RFC3339))
	h.paint(levelColor(record.Level)).Fprintf(buf, "%s ", record.Level)

	kv := make(map[string]slog.Value, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		kv[a.Key] = a.Value
	}
	record.Attrs(func(a slog.Attr) bool {
		kv[a.Key] = a.Value
		return true
	})

	for _, key := range h.cfg.Lead {
		if v, ok := kv[key]; ok {
			plain.Fprintf(buf, "%s ", v)
			delete(kv, key)
		}
	}

	msg := h.paint(color.FgGreen)
	if v, ok := kv["code"]; ok {
		msg.Fprintf(buf, "[%s] ", v)
		delete(kv, "code")
	}
	msg.Fprint(buf, record.Message)
	if e, ok := kv[ErrorAttributeKey]; ok {
		h.paint(color.FgRed).Fprintf(buf, " %q", e.String())
		delete(kv, ErrorAttributeKey)
	}
	buf.WriteByte('\n')

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "    %s=%s\n", k, kv[k])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func levelColor(l slog.Level) color.Attribute {
	switch {
	case l >= slog.LevelError:
		return color.FgRed
	case l >= slog.LevelWarn:
		return color.FgYellow
	case l >= slog.LevelInfo:
		return color.FgBlue
	default:
		return color.FgCyan
	}
}
