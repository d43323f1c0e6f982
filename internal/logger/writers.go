package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const consoleTimeFormat = "2006-01-02 15:04:05"

// encode wraps out so that lines come out in format. Files never get colors.
func encode(out io.Writer, format Format, color bool) io.Writer {
	switch format {
	case FormatJSON:
		return out
	case FormatText:
		return zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    true,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("[%s]", i))
			},
		}
	default:
		return zerolog.ConsoleWriter{Out: out, NoColor: !color, TimeFormat: consoleTimeFormat}
	}
}

// agentLogPath keeps each agent's log under agents/<name>/ next to path.
func agentLogPath(path, agentName string) string {
	if agentName == "" {
		return path
	}
	return filepath.Join(filepath.Dir(path), "agents", agentName, filepath.Base(path))
}

// newRotatingFile opens path through lumberjack, creating its directory.
func newRotatingFile(path string, cfg FileLogConfig) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, common.WrapError(err, "failed to create log directory")
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    orDefault(cfg.MaxLogSizeMB, DefaultMaxLogSizeMB),
		MaxBackups: orDefault(cfg.MaxLogBackups, DefaultMaxLogBackups),
		MaxAge:     orDefault(cfg.MaxLogAgeDays, DefaultMaxLogAgeDays),
		Compress:   cfg.CompressRotated,
		LocalTime:  true,
	}, nil
}
