package logger

import "github.com/rs/zerolog"

// NewWithAgentName creates the process logger for agentName.
func NewWithAgentName(cfg FileLogConfig, agentName string) (zerolog.Logger, error) {
	return NewLoggerBuilder().
		WithConfig(cfg).
		WithAgentName(agentName).
		Build()
}
