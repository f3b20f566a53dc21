package constants

import "time"

const (
	AppName            = "streaks"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/streaks"
	DefaultDBPath      = DefaultConfigDir + "/streaks.db"
	DefaultConfigFile  = DefaultConfigDir + "/config.yaml"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// MaxHabitNameLength is the maximum length of a habit name after trimming, in characters
	MaxHabitNameLength = 50

	// Server constants
	DefaultListenAddr     = "127.0.0.1:8080"
	DefaultServerURL      = "http://127.0.0.1:8080"
	MaxRequestBodyBytes   = 4 << 10
	DefaultRateLimit      = 20
	DefaultRateBurst      = 40
	ServerReadTimeout     = 10 * time.Second
	ServerWriteTimeout    = 10 * time.Second
	ServerShutdownTimeout = 5 * time.Second
	ClientRequestTimeout  = 5 * time.Second
	DBConnectionEnv       = "STREAKS_DB_CONNECTION"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "streaks-"
)
