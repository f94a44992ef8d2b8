package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	currentLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger       = newLogger()
)

func newLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = currentLevel
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

func SetLevel(level LogLevel) {
	currentLevel.SetLevel(level.zapLevel())
}

// Enabled reports whether messages at level would be emitted.
func Enabled(level LogLevel) bool {
	return currentLevel.Enabled(level.zapLevel())
}

func Debug(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	logger.Infof(format, v...)
}

func Warn(format string, v ...interface{}) {
	logger.Warnf(format, v...)
}

func Error(format string, v ...interface{}) {
	logger.Errorf(format, v...)
}

func Fatal(format string, v ...interface{}) {
	logger.Fatalf(format, v...)
}

// Sync flushes buffered log entries; call before exiting.
func Sync() {
	_ = logger.Sync()
}
