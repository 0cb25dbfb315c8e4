package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitLoggerLevelByMode(t *testing.T) {
	InitLogger("debug")
	require.NotNil(t, Log)
	assert.True(t, Log.Core().Enabled(zapcore.DebugLevel))

	InitLogger("release")
	require.NotNil(t, Log)
	assert.False(t, Log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Log.Core().Enabled(zapcore.InfoLevel))
}
