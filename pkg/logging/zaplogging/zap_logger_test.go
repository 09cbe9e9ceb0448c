package zaplogging

import (
	"testing"

	"github.com/core-tools/hsu-companion-go/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_ForwardsLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	zapLogger := NewZapLoggerFromCore(core)

	logger := logging.NewLogger("module: companion , ", logging.LogFuncs{
		Debugf: zapLogger.Debugf,
		Infof:  zapLogger.Infof,
		Warnf:  zapLogger.Warnf,
		Errorf: zapLogger.Errorf,
	})

	logger.Debugf("debug %d", 1)
	logger.Infof("Starting companion server from: %s", "/repo/server/app.cjs")
	logger.Warnf("warn")
	logger.Errorf("error")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "module: companion , debug 1", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "module: companion , Starting companion server from: /repo/server/app.cjs", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	zapLogger := NewZapLoggerFromCore(core)

	zapLogger.Infof("dropped")
	zapLogger.Warnf("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"", zapcore.InfoLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestNewZapLogger(t *testing.T) {
	logger, err := NewZapLogger(Config{Level: "debug", Encoding: EncodingJSON})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewZapLogger(Config{Level: "info", Encoding: "xml"})
	assert.Error(t, err)

	_, err = NewZapLogger(Config{Level: "loud"})
	assert.Error(t, err)
}
