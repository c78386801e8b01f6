//go:build unit
// +build unit

package logger

import (
	"bytes"
	"testing"

	"github.com/MGTheTrain/crypto-rsa/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLogger_LogsToOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := newConsoleLogger(config.LogLevelInfo, &buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestConsoleLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := newConsoleLogger(config.LogLevelDebug, &buf)
	logger.Debug("released key pair handles")

	assert.Contains(t, buf.String(), "released key pair handles")
}

func TestConsoleLogger_Panic(t *testing.T) {
	var buf bytes.Buffer

	logger := newConsoleLogger(config.LogLevelInfo, &buf)

	assert.PanicsWithValue(t, "fatal condition", func() {
		logger.Panic("fatal condition")
	})
	assert.Contains(t, buf.String(), "fatal condition")
}

func TestNewConsoleLogger(t *testing.T) {
	logger := NewConsoleLogger(config.LogLevelInfo)
	require.NotNil(t, logger)

	require.NotPanics(t, func() {
		logger.Debug("test")
		logger.Info("test")
		logger.Warn("test")
		logger.Error("test")
	})
}
