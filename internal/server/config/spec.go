package config

import "time"

// ServerConfig is the root configuration for rostervault-server.
type ServerConfig struct {
	Backup  BackupSection  `koanf:"backup" json:"backup" yaml:"backup"`
	Restore RestoreSection `koanf:"restore" json:"restore" yaml:"restore"`
	Store   StoreSection   `koanf:"store" json:"store" yaml:"store"`
	Ops     OpsSection     `koanf:"ops" json:"ops" yaml:"ops"`
	Log     LogSection     `koanf:"log" json:"log" yaml:"log"`
}

// BackupSection configures the periodic backup loop.
type BackupSection struct {
	// Prefix is the object key prefix under which snapshots are written.
	Prefix string `koanf:"prefix" json:"prefix" yaml:"prefix"`

	// Interval between two ticks. The first tick runs one interval after start.
	Interval time.Duration `koanf:"interval" json:"interval" yaml:"interval"`

	// RetentionDays is how long snapshots are kept before the sweeper
	// deletes them.
	RetentionDays int `koanf:"retention_days" json:"retention_days" yaml:"retention_days"`

	// CompressionLevel is the zstd level, 1..22.
	CompressionLevel int `koanf:"compression_level" json:"compression_level" yaml:"compression_level"`

	// AtomicCapture holds all collection locks together while copying.
	AtomicCapture bool `koanf:"atomic_capture" json:"atomic_capture" yaml:"atomic_capture"`

	// SweepRate caps deletes per second during a sweep. Zero disables pacing.
	SweepRate float64 `koanf:"sweep_rate" json:"sweep_rate" yaml:"sweep_rate"`

	// EncryptionKey is an optional 32-byte master key, hex or base64.
	// When set, snapshots are sealed before upload.
	EncryptionKey string `koanf:"encryption_key" json:"encryption_key" yaml:"encryption_key"`

	// Cipher selects the AEAD ("aes-gcm", "chacha20-poly1305").
	// Empty picks by hardware support.
	Cipher string `koanf:"cipher" json:"cipher" yaml:"cipher"`
}

// RestoreSection configures startup restore.
type RestoreSection struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`
}

// StoreSection selects and configures the object store.
type StoreSection struct {
	// Backend is one of "s3", "badger", "memory".
	Backend string `koanf:"backend" json:"backend" yaml:"backend"`

	// Timeout bounds each remote call.
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`

	S3     S3Section     `koanf:"s3" json:"s3" yaml:"s3"`
	Badger BadgerSection `koanf:"badger" json:"badger" yaml:"badger"`
}

// S3Section configures the S3 backend.
type S3Section struct {
	Bucket       string `koanf:"bucket" json:"bucket" yaml:"bucket"`
	Region       string `koanf:"region" json:"region" yaml:"region"`
	Endpoint     string `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	PathStyle    bool   `koanf:"path_style" json:"path_style" yaml:"path_style"`
	StorageClass string `koanf:"storage_class" json:"storage_class" yaml:"storage_class"`

	// Static credentials. When empty the SDK default chain is used.
	AccessKeyID     string `koanf:"access_key_id" json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key" json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `koanf:"session_token" json:"session_token" yaml:"session_token"`

	// CAFile is a PEM bundle for endpoints behind a private CA.
	CAFile string `koanf:"ca_file" json:"ca_file" yaml:"ca_file"`
}

// BadgerSection configures the embedded Badger backend.
type BadgerSection struct {
	Dir        string        `koanf:"dir" json:"dir" yaml:"dir"`
	GCInterval time.Duration `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`
	SyncWrites bool          `koanf:"sync_writes" json:"sync_writes" yaml:"sync_writes"`
}

// OpsSection configures the operations HTTP server.
type OpsSection struct {
	Enabled         bool          `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Addr            string        `koanf:"addr" json:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// AdminAllowList restricts /admin/v1 to these IPs or CIDR blocks.
	// Empty allows any client that can reach Addr.
	AdminAllowList []string `koanf:"admin_allow_list" json:"admin_allow_list" yaml:"admin_allow_list"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
