package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewZapLog(t *testing.T) {
	zl, err := NewZapLog("warn")
	require.NoError(t, err)
	require.False(t, zl.Core().Enabled(zap.InfoLevel))
	require.True(t, zl.Core().Enabled(zap.WarnLevel))

	zl, err = NewZapLog("")
	require.NoError(t, err)
	require.True(t, zl.Core().Enabled(zap.InfoLevel))

	_, err = NewZapLog("loud")
	require.Error(t, err)
}

func TestMust_FallsBackToInfo(t *testing.T) {
	zl := Must("loud")
	require.True(t, zl.Core().Enabled(zap.InfoLevel))
	require.False(t, zl.Core().Enabled(zap.DebugLevel))
}
