// Package mdc carries a request-scoped diagnostic string map on context.Context.
// 与日志框架的 MDC 语义一致：trace id 从这里读取，SECURE_DATA/指纹也写回这里。
// The map is copy-on-write, a context value is never mutated in place.
package mdc

import (
	"context"
)

type ctxKey struct{}

// public func

// With returns a context whose diagnostic map has key set to value.
func With(ctx context.Context, key, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(key) == 0 {
		return ctx
	}
	next := copyMap(fromContext(ctx), 1)
	next[key] = value
	return context.WithValue(ctx, ctxKey{}, next)
}

// Get returns the value for key, empty string if absent.
func Get(ctx context.Context, key string) string {
	if ctx == nil {
		return ""
	}
	return fromContext(ctx)[key]
}

// Without returns a context whose diagnostic map lacks the given keys.
func Without(ctx context.Context, keys ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	cur := fromContext(ctx)
	if len(cur) == 0 {
		return ctx
	}
	next := copyMap(cur, 0)
	for _, k := range keys {
		delete(next, k)
	}
	return context.WithValue(ctx, ctxKey{}, next)
}

// Snapshot returns a copy of the whole diagnostic map.
func Snapshot(ctx context.Context) map[string]string {
	if ctx == nil {
		return map[string]string{}
	}
	return copyMap(fromContext(ctx), 0)
}

// private func

func fromContext(ctx context.Context) map[string]string {
	if m, ok := ctx.Value(ctxKey{}).(map[string]string); ok {
		return m
	}
	return nil
}

func copyMap(src map[string]string, extra int) map[string]string {
	dst := make(map[string]string, len(src)+extra)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
