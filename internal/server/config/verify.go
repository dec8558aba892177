package config

import (
	"strings"
	"time"

	"github.com/yndnr/rostervault/internal/core/domain"
	"github.com/yndnr/rostervault/internal/storage/objstore"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
	"github.com/yndnr/rostervault/internal/telemetry/logger"
	"github.com/yndnr/rostervault/pkg/crypto/adaptive"
)

// MinInterval is the shortest accepted backup interval.
const MinInterval = time.Hour

// Verify validates the configuration. Every failure is a
// domain.ErrConfiguration carrying the offending key.
func Verify(cfg *ServerConfig) error {
	if err := verifyBackup(&cfg.Backup); err != nil {
		return err
	}
	if err := verifyStore(&cfg.Store); err != nil {
		return err
	}
	if err := verifyOps(&cfg.Ops); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyBackup(cfg *BackupSection) error {
	if strings.Trim(cfg.Prefix, "/") == "" {
		return invalid("backup.prefix is required")
	}
	if cfg.Interval < MinInterval {
		return invalid("backup.interval must be at least %s, got %s", MinInterval, cfg.Interval)
	}
	if cfg.RetentionDays < 1 {
		return invalid("backup.retention_days must be at least 1, got %d", cfg.RetentionDays)
	}
	if cfg.CompressionLevel < snapshot.MinCompressionLevel || cfg.CompressionLevel > snapshot.MaxCompressionLevel {
		return invalid("backup.compression_level must be in %d..%d, got %d",
			snapshot.MinCompressionLevel, snapshot.MaxCompressionLevel, cfg.CompressionLevel)
	}
	if cfg.SweepRate < 0 {
		return invalid("backup.sweep_rate must not be negative")
	}
	if cfg.EncryptionKey != "" {
		key, err := snapshot.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return invalid("backup.encryption_key: %v", err)
		}
		snapshot.ZeroKey(key)
	}
	if _, err := adaptive.ParseCipherType(cfg.Cipher); err != nil {
		return invalid("backup.cipher %q is not supported", cfg.Cipher)
	}
	return nil
}

func verifyStore(cfg *StoreSection) error {
	if cfg.Timeout <= 0 {
		return invalid("store.timeout must be positive")
	}

	switch cfg.Backend {
	case objstore.BackendS3:
		if cfg.S3.Bucket == "" {
			return invalid("store.s3.bucket is required")
		}
		if cfg.S3.Region == "" {
			return invalid("store.s3.region is required")
		}
		if (cfg.S3.AccessKeyID == "") != (cfg.S3.SecretAccessKey == "") {
			return invalid("store.s3.access_key_id and store.s3.secret_access_key must be set together")
		}
	case objstore.BackendBadger:
		if cfg.Badger.Dir == "" {
			return invalid("store.badger.dir is required")
		}
	case objstore.BackendMemory:
	default:
		return invalid("store.backend %q is not one of s3, badger, memory", cfg.Backend)
	}
	return nil
}

func verifyOps(cfg *OpsSection) error {
	if cfg.Enabled && cfg.Addr == "" {
		return invalid("ops.addr is required when ops.enabled is true")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return invalid("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	if !logger.ValidFormat(cfg.Format) {
		return invalid("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return domain.ErrConfiguration.WithDetailsf(format, args...)
}
