package logger

import (
	"go.uber.org/zap"
)

// NewZapLog builds a production logger at the given level ("debug", "info",
// "warn", "error").
func NewZapLog(level string) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zapcfg := zap.NewProductionConfig()
	zapcfg.Level = lvl
	zapcfg.DisableStacktrace = true
	return zapcfg.Build()
}

// Must is NewZapLog for entry points; an unparsable level falls back to info.
func Must(level string) *zap.Logger {
	zl, err := NewZapLog(level)
	if err == nil {
		return zl
	}
	zl, err = NewZapLog("info")
	if err != nil {
		return zap.NewNop()
	}
	zl.Warn("invalid log level, using info", zap.String("level", level))
	return zl
}
