package config

import "time"

// Default configuration values.
const (
	DefaultPrefix           = "message-backups"
	DefaultInterval         = 24 * time.Hour
	DefaultRetentionDays    = 30
	DefaultCompressionLevel = 3
	DefaultSweepRate        = 10.0

	DefaultBackend      = "s3"
	DefaultStoreTimeout = 60 * time.Second
	DefaultStorageClass = "STANDARD_IA"

	DefaultBadgerDir        = "/var/lib/rostervault/objects"
	DefaultBadgerGCInterval = 10 * time.Minute

	DefaultOpsAddr         = "127.0.0.1:9090"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Backup: BackupSection{
			Prefix:           DefaultPrefix,
			Interval:         DefaultInterval,
			RetentionDays:    DefaultRetentionDays,
			CompressionLevel: DefaultCompressionLevel,
			SweepRate:        DefaultSweepRate,
		},
		Restore: RestoreSection{
			Enabled: true,
		},
		Store: StoreSection{
			Backend: DefaultBackend,
			Timeout: DefaultStoreTimeout,
			S3: S3Section{
				StorageClass: DefaultStorageClass,
			},
			Badger: BadgerSection{
				Dir:        DefaultBadgerDir,
				GCInterval: DefaultBadgerGCInterval,
				SyncWrites: true,
			},
		},
		Ops: OpsSection{
			Enabled:         true,
			Addr:            DefaultOpsAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
