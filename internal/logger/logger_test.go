package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithAgentName_Defaults(t *testing.T) {
	log, err := NewWithAgentName(NewDefaultFileLogConfig(), "firefox")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestLoggerBuilder_JSONConsole(t *testing.T) {
	var buf bytes.Buffer

	log, err := NewLoggerBuilder().
		WithConfig(FileLogConfig{LogFormat: "json", LogLevel: "warn"}).
		WithConsoleOutput(&buf).
		Build()
	require.NoError(t, err)

	log.Info().Msg("dropped")
	log.Warn().Str("component", "Test").Msg("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"message":"kept"`)
	assert.Contains(t, out, `"component":"Test"`)
}

func TestLoggerBuilder_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	log, err := NewLoggerBuilder().
		WithConfig(FileLogConfig{LogFormat: "text"}).
		WithConsoleOutput(&buf).
		Build()
	require.NoError(t, err)

	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "hello")
}

func TestLoggerBuilder_FileOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.log")

	log, err := NewLoggerBuilder().
		WithConfig(FileLogConfig{LogFile: path, LogFormat: "json", LogLevel: "debug"}).
		WithConsoleOutput(nil).
		WithAgentName("firefox").
		Build()
	require.NoError(t, err)

	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
	log.Debug().Msg("to file")

	data, err := os.ReadFile(filepath.Join(dir, "agents", "firefox", "agent.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestLoggerBuilder_Errors(t *testing.T) {
	_, err := NewLoggerBuilder().WithConsoleOutput(nil).Build()
	assert.Error(t, err)

	_, err = NewLoggerBuilder().WithConfig(FileLogConfig{LogLevel: "loud"}).Build()
	assert.Error(t, err)

	_, err = NewLoggerBuilder().WithConfig(FileLogConfig{LogFormat: "xml"}).Build()
	assert.Error(t, err)
}

func TestParseLevelAndFormat(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)

	tests := map[string]Format{"JSON": FormatJSON, "text": FormatText, "": FormatConsole, " console ": FormatConsole}
	for name, expected := range tests {
		format, err := ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, format)
	}
	_, err = ParseFormat("pretty")
	assert.Error(t, err)
}

func TestAgentLogPath(t *testing.T) {
	assert.Equal(t, filepath.Join("logs", "agents", "firefox", "agent.log"), agentLogPath(filepath.Join("logs", "agent.log"), "firefox"))
	assert.Equal(t, "agent.log", agentLogPath("agent.log", ""))
}
