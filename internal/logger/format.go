package logger

import (
	"strings"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/rs/zerolog"
)

// Format selects how log lines are encoded.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatText    Format = "text"
)

// ParseFormat maps a configured format name to a Format. Empty means console.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatConsole, nil
	case FormatConsole, FormatJSON, FormatText:
		return f, nil
	default:
		return "", common.NewValidationError("log_format", name, "unknown log format")
	}
}

// ParseLevel maps a configured level name to a zerolog level. Empty means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel, common.WrapError(err, "invalid log level")
	}
	return level, nil
}
