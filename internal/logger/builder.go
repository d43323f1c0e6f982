package logger

import (
	"io"
	stdlog "log"
	"os"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/rs/zerolog"
)

// LoggerBuilder assembles the process logger from a log_config section.
type LoggerBuilder struct {
	config    FileLogConfig
	agentName string
	console   io.Writer
}

func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		config:  NewDefaultFileLogConfig(),
		console: os.Stderr,
	}
}

func (lb *LoggerBuilder) WithConfig(cfg FileLogConfig) *LoggerBuilder {
	lb.config = cfg
	return lb
}

// WithAgentName moves file output under agents/<name>/.
func (lb *LoggerBuilder) WithAgentName(name string) *LoggerBuilder {
	lb.agentName = name
	return lb
}

// WithConsoleOutput redirects console output, stderr by default. A nil
// writer turns console output off.
func (lb *LoggerBuilder) WithConsoleOutput(out io.Writer) *LoggerBuilder {
	lb.console = out
	return lb
}

// Build creates the logger and routes the standard log package through it.
func (lb *LoggerBuilder) Build() (zerolog.Logger, error) {
	level, err := ParseLevel(lb.config.LogLevel)
	if err != nil {
		return zerolog.Logger{}, err
	}
	format, err := ParseFormat(lb.config.LogFormat)
	if err != nil {
		return zerolog.Logger{}, err
	}

	var writers []io.Writer
	if lb.console != nil {
		writers = append(writers, encode(lb.console, format, true))
	}
	if lb.config.LogFile != "" {
		file, err := newRotatingFile(agentLogPath(lb.config.LogFile, lb.agentName), lb.config)
		if err != nil {
			return zerolog.Logger{}, err
		}
		writers = append(writers, encode(file, format, false))
	}
	if len(writers) == 0 {
		return zerolog.Logger{}, common.NewError("no output writers configured")
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)
	return logger, nil
}
