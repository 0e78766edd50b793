package logger

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSafeLevel(t *testing.T) {
	require.Equal(t, zap.DebugLevel, safeLevel("DEBUG").Level())
	require.Equal(t, zap.InfoLevel, safeLevel("info").Level())
	require.Equal(t, zap.ErrorLevel, safeLevel("error").Level())
	require.Equal(t, zap.WarnLevel, safeLevel("").Level())
	require.Equal(t, zap.WarnLevel, safeLevel("bogus").Level())
}

func TestNewLogger(t *testing.T) {
	v := viper.New()
	v.Set("log.level", "debug")
	v.Set("log.format", "json")

	l, err := NewLogger(v)
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zap.DebugLevel))
}
