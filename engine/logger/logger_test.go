package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLoggerIsSilent(t *testing.T) {
	assert.NotPanics(t, func() {
		Debug("nothing")
		Info("nothing")
		Warn("nothing")
		Error("nothing")
		Sync()
	})
}

func TestFileOutput(t *testing.T) {
	prev := Log
	defer Use(prev)

	logFile := filepath.Join(t.TempDir(), "scene.log")
	cfg := DefaultFileConfig(logFile)
	cfg.Compress = false

	require.NoError(t, InitWithFileConfig("debug", cfg, false))
	Named("scene").Debug("updating lights", zap.Int("count", 2))
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "updating lights")
	assert.Contains(t, string(data), "scene")
	assert.Contains(t, string(data), "DEBUG")
}

func TestLevelFiltering(t *testing.T) {
	prev := Log
	defer Use(prev)

	core, logs := observer.New(zapcore.WarnLevel)
	Use(zap.New(core))

	Info("dropped")
	Warn("kept")
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}
