package config

import "time"

// HostConfig defines how the agent is scheduled and observed
type HostConfig struct {
	Schedule            string `json:"schedule,omitempty" yaml:"schedule,omitempty" validate:"required,schedule"`
	StatusListenAddr    string `json:"status_listen_addr,omitempty" yaml:"status_listen_addr,omitempty" validate:"omitempty,hostname_port"`
	ErrorWindowMinutes  int    `json:"error_window_minutes,omitempty" yaml:"error_window_minutes,omitempty" validate:"min=0"`
	ShutdownTimeoutSecs int    `json:"shutdown_timeout_secs,omitempty" yaml:"shutdown_timeout_secs,omitempty" validate:"min=1"`
}

// NewDefaultHostConfig creates default host configuration
func NewDefaultHostConfig() HostConfig {
	return HostConfig{
		Schedule:            DefaultHostSchedule,
		StatusListenAddr:    DefaultHostStatusListenAddr,
		ErrorWindowMinutes:  DefaultHostErrorWindowMins,
		ShutdownTimeoutSecs: DefaultHostShutdownTimeoutSecs,
	}
}

// ErrorWindow is how long before the last event an error still counts as recent
func (c HostConfig) ErrorWindow() time.Duration {
	return time.Duration(c.ErrorWindowMinutes) * time.Minute
}

// ShutdownTimeout bounds the status server shutdown
func (c HostConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}
