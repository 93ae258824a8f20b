package log

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestSetLoggerRedirects(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))

	Infof("hello %s", "world")
	Errorf("boom %d", 42)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expect: 2 entries, actual: %d", len(entries))
	}
	if entries[0].Message != "hello world" {
		t.Errorf("expect: hello world, actual: %s", entries[0].Message)
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("expect: error level, actual: %v", entries[1].Level)
	}
}

func TestSetLoggerNilIgnored(t *testing.T) {
	SetLogger(nil)
	if Errorf == nil {
		t.Errorf("expect: function vars untouched")
	}
}
