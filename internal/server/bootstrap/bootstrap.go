package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/rostervault/internal/backup"
	"github.com/yndnr/rostervault/internal/server/config"
	"github.com/yndnr/rostervault/internal/storage/objstore"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
)

// Store is an opened object store and the function releasing it.
type Store struct {
	objstore.Store
	Backend string
	close   func() error
}

// Close releases the backend. Safe to call on stores that hold nothing.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the backend named by cfg.Backend. When reg is non-nil the
// badger backend registers its gauges there.
func OpenStore(ctx context.Context, cfg config.StoreSection, reg prometheus.Registerer, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	switch cfg.Backend {
	case objstore.BackendS3:
		s3, err := objstore.NewS3(ctx, objstore.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			StorageClass:    cfg.S3.StorageClass,
			Timeout:         cfg.Timeout,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			SessionToken:    cfg.S3.SessionToken,
			CAFile:          cfg.S3.CAFile,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("open s3 store: %w", err)
		}
		return &Store{Store: s3, Backend: cfg.Backend}, nil

	case objstore.BackendBadger:
		bcfg := objstore.DefaultBadgerConfig(cfg.Badger.Dir)
		if cfg.Badger.GCInterval > 0 {
			bcfg.GCInterval = cfg.Badger.GCInterval
		}
		bcfg.SyncWrites = cfg.Badger.SyncWrites
		b, err := objstore.NewBadger(bcfg, clockwork.NewRealClock(), log)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		if reg != nil {
			b.RegisterMetrics(reg)
		}
		return &Store{Store: b, Backend: cfg.Backend, close: b.Close}, nil

	case objstore.BackendMemory:
		log.Warn("memory object store selected; backups will not survive a restart")
		return &Store{Store: objstore.NewMemory(clockwork.NewRealClock()), Backend: cfg.Backend}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewCodec builds the snapshot codec for cfg. A configured encryption key
// enables sealing; the raw key is wiped once the cipher holds its subkey.
func NewCodec(cfg config.BackupSection) (*snapshot.Codec, error) {
	opts := []snapshot.CodecOption{snapshot.WithLevel(cfg.CompressionLevel)}

	if cfg.EncryptionKey != "" {
		key, err := snapshot.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		cipher, err := snapshot.NewCipher(key, cfg.Cipher)
		snapshot.ZeroKey(key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, snapshot.WithCipher(cipher))
	}

	return snapshot.NewCodec(opts...)
}

// SchedulerConfig maps the backup section onto scheduler tunables.
func SchedulerConfig(cfg config.BackupSection) backup.SchedulerConfig {
	mode := snapshot.CaptureEach
	if cfg.AtomicCapture {
		mode = snapshot.CaptureAtomic
	}
	return backup.SchedulerConfig{
		Prefix:        cfg.Prefix,
		Interval:      cfg.Interval,
		RetentionDays: cfg.RetentionDays,
		SweepRate:     cfg.SweepRate,
		CaptureMode:   mode,
	}
}
