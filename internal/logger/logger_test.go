package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestBuildConfig(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		wantLevel    zapcore.Level
		wantEncoding string
		wantOutput   string
	}{
		{"Defaults", Config{}, zapcore.InfoLevel, "json", "stdout"},
		{"Debug console", Config{Level: "DEBUG", Encoding: "console"}, zapcore.DebugLevel, "console", "stdout"},
		{"Invalid level falls back to info", Config{Level: "verbose"}, zapcore.InfoLevel, "json", "stdout"},
		{"Unknown encoding falls back to json", Config{Level: "warn", Encoding: "xml"}, zapcore.WarnLevel, "json", "stdout"},
		{"Output path", Config{OutputPath: "/var/log/relay.log"}, zapcore.InfoLevel, "json", "/var/log/relay.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zc := buildConfig(tt.cfg)

			assert.Equal(t, tt.wantLevel, zc.Level.Level())
			assert.Equal(t, tt.wantEncoding, zc.Encoding)
			assert.Equal(t, []string{tt.wantOutput}, zc.OutputPaths)
			assert.Equal(t, "timestamp", zc.EncoderConfig.TimeKey)
		})
	}
}

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.log")

	log, err := New(Config{Level: "error", OutputPath: path})
	require.NoError(t, err)
	defer func() { _ = log.Sync() }()

	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
}
