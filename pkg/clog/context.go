package clog

import (
	"context"
	"maps"
	"sync"
)

const (
	ErrorAttributeKey = "error.message"
	StackAttributeKey = "error.stack"
)

// bag holds request-scoped log attributes. Middleware installs one per
// request and handlers add to it; AttributesHandler reads it at log time.
type bag struct {
	mu    sync.RWMutex
	attrs map[string]any
}

type bagKey struct{}

func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, bagKey{}, &bag{attrs: make(map[string]any)})
}

func bagFrom(ctx context.Context) *bag {
	b, _ := ctx.Value(bagKey{}).(*bag)
	return b
}

func AddAttribute(ctx context.Context, key string, value any) {
	b := bagFrom(ctx)
	if b == nil {
		return
	}
	b.mu.Lock()
	b.attrs[key] = value
	b.mu.Unlock()
}

func AddAttributes(ctx context.Context, attrs map[string]any) {
	b := bagFrom(ctx)
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	merge(b.attrs, attrs)
}

// merge copies src into dst, descending into nested maps instead of replacing them.
func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		if existing, ok := dst[k].(map[string]any); ok {
			merge(existing, sub)
		} else {
			dst[k] = sub
		}
	}
}

func GetAttribute[T any](ctx context.Context, key string) T {
	var zero T
	b := bagFrom(ctx)
	if b == nil {
		return zero
	}
	b.mu.RLock()
	v, ok := b.attrs[key]
	b.mu.RUnlock()
	if !ok {
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		return zero
	}
	return typed
}

// GetAttributes returns a snapshot of the attributes stored in ctx.
func GetAttributes(ctx context.Context) map[string]any {
	b := bagFrom(ctx)
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.attrs)
}

func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func GetError(ctx context.Context) error {
	return GetAttribute[error](ctx, ErrorAttributeKey)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}

func GetStack(ctx context.Context) string {
	return GetAttribute[string](ctx, StackAttributeKey)
}
