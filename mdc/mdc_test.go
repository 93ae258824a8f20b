package mdc

import (
	"context"
	"testing"
)

func TestWithGet(t *testing.T) {
	ctx := With(context.Background(), "trace_id", "t-1")
	if got := Get(ctx, "trace_id"); got != "t-1" {
		t.Errorf("expect: t-1, actual: %s", got)
	}
	if got := Get(ctx, "missing"); got != "" {
		t.Errorf("expect: empty, actual: %s", got)
	}
	if got := Get(context.Background(), "trace_id"); got != "" {
		t.Errorf("expect: empty on bare context, actual: %s", got)
	}
}

// 写时复制：子 context 的修改不影响父 context
func TestCopyOnWrite(t *testing.T) {
	parent := With(context.Background(), "k", "v1")
	child := With(parent, "k", "v2")
	if Get(parent, "k") != "v1" || Get(child, "k") != "v2" {
		t.Errorf("expect: parent v1 child v2, actual: %s/%s", Get(parent, "k"), Get(child, "k"))
	}
}

func TestWithout(t *testing.T) {
	ctx := With(context.Background(), "a", "1")
	ctx = With(ctx, "b", "2")
	ctx = Without(ctx, "a", "missing")
	if Get(ctx, "a") != "" || Get(ctx, "b") != "2" {
		t.Errorf("expect: a removed b kept, actual: a=%s b=%s", Get(ctx, "a"), Get(ctx, "b"))
	}
	// removing from an empty context is a no-op
	if got := Get(Without(context.Background(), "x"), "x"); got != "" {
		t.Errorf("expect: empty, actual: %s", got)
	}
}

func TestSnapshot(t *testing.T) {
	ctx := With(context.Background(), "a", "1")
	ctx = With(ctx, "b", "2")
	snap := Snapshot(ctx)
	if len(snap) != 2 || snap["a"] != "1" || snap["b"] != "2" {
		t.Errorf("unexpected snapshot: %v", snap)
	}
	// snapshot is a copy
	snap["a"] = "changed"
	if Get(ctx, "a") != "1" {
		t.Errorf("expect: context unchanged after snapshot edit")
	}
}
