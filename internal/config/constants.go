package config

const (
	// ConfigPathEnv overrides the config file location
	ConfigPathEnv = "FIREFOXVERSIONS_CONFIG_PATH"

	// Agent Defaults
	DefaultAgentName = "firefox-versions"

	// HTTP Client Defaults
	DefaultHTTPTimeoutSecs      = 30
	DefaultHTTPMaxContentSizeKB = 1024
	DefaultHTTPFollowRedirects  = true
	DefaultHTTPMaxRedirects     = 10

	// Storage Defaults
	DefaultStorageSQLiteDBPath     = "database/firefoxversions.db"
	DefaultStorageParquetBasePath  = "database/archive"
	DefaultStorageCompressionCodec = "zstd"
	DefaultStorageArchiveEvents    = false

	// Host Defaults
	DefaultHostSchedule            = "every_1h"
	DefaultHostStatusListenAddr    = ""
	DefaultHostErrorWindowMins     = 2
	DefaultHostShutdownTimeoutSecs = 10
)
