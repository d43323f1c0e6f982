package logger

// Defaults for fields left empty in the log_config section.
const (
	DefaultLogFormat     = "console"
	DefaultLogLevel      = "info"
	DefaultMaxLogBackups = 3
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogAgeDays = 28
)

// FileLogConfig is the log_config section of the configuration file.
// Console output is always on; LogFile adds a rotated file.
type FileLogConfig struct {
	LogFile         string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat       string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel        string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups   int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty" validate:"min=0"`
	MaxLogSizeMB    int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty" validate:"min=0"`
	MaxLogAgeDays   int    `json:"max_log_age_days,omitempty" yaml:"max_log_age_days,omitempty" validate:"min=0"`
	CompressRotated bool   `json:"compress_rotated,omitempty" yaml:"compress_rotated,omitempty"`
}

func NewDefaultFileLogConfig() FileLogConfig {
	return FileLogConfig{
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
		MaxLogBackups: DefaultMaxLogBackups,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
		MaxLogAgeDays: DefaultMaxLogAgeDays,
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
