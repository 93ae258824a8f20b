// Package log is the internal logger of securelog.
// 默认使用 zap SugaredLogger，业务方可以通过替换函数变量接入自己的日志实现。
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// public func
var (
	Errorf   func(format string, v ...interface{})
	Warnf    func(format string, v ...interface{})
	Infof    func(format string, v ...interface{})
	Debugf   func(format string, v ...interface{})
	Flush    func()
	SetLevel func(level int)
)

const (
	LevelTrace = iota
	LevelDebug
	LevelInfo
	LevelNotice
	LevelWarn
	LevelError
	LevelFatal
)

var (
	atomLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar     *zap.SugaredLogger
)

func init() {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg := zap.Config{
		Level:            atomLevel,
		Encoding:         "console",
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}
	sugar = logger.Sugar()

	Errorf = sugar.Errorf
	Warnf = sugar.Warnf
	Infof = sugar.Infof
	Debugf = sugar.Debugf
	Flush = func() { _ = sugar.Sync() }
	SetLevel = setLevelImpl
}

// SetLogger replaces the zap logger behind the function vars.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		return
	}
	sugar = logger.Sugar()
	Errorf = sugar.Errorf
	Warnf = sugar.Warnf
	Infof = sugar.Infof
	Debugf = sugar.Debugf
	Flush = func() { _ = sugar.Sync() }
}

// private func

func setLevelImpl(level int) {
	switch level {
	case LevelTrace, LevelDebug:
		atomLevel.SetLevel(zapcore.DebugLevel)
	case LevelInfo, LevelNotice:
		atomLevel.SetLevel(zapcore.InfoLevel)
	case LevelWarn:
		atomLevel.SetLevel(zapcore.WarnLevel)
	case LevelError:
		atomLevel.SetLevel(zapcore.ErrorLevel)
	case LevelFatal:
		atomLevel.SetLevel(zapcore.FatalLevel)
	}
}
