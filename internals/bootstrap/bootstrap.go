package bootstrap

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"events_backend/internals/configs"
	database "events_backend/internals/databases"
	"events_backend/internals/features/app/events/repository"
	"events_backend/internals/helpers/cleanup"
	"events_backend/internals/helpers/upload"
)

// OpenDB connects, tunes the pool and migrates the schema.
func OpenDB(cfg *configs.AppConfig) (*gorm.DB, error) {
	db, err := database.ConnectDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	database.TunePool(db)
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}
	return db, nil
}

func StorageOptions(s configs.StorageConfig) upload.Options {
	return upload.Options{
		Driver: s.Driver,
		Dir:    s.Dir,
		Prefix: s.Prefix,
		OSS: upload.OSSConfig{
			Endpoint:      s.OSSEndpoint,
			AccessKey:     s.OSSAccessKey,
			SecretKey:     s.OSSSecretKey,
			SecurityToken: s.OSSToken,
			Bucket:        s.OSSBucket,
		},
		S3: upload.S3Config{
			Region:       s.S3Region,
			Endpoint:     s.S3Endpoint,
			UsePathStyle: s.S3UsePathStyle,
			Bucket:       s.S3Bucket,
		},
	}
}

// NewUploader builds the configured store and the image uploader on top of it.
func NewUploader(ctx context.Context, s configs.StorageConfig) (*upload.Uploader, error) {
	store, err := upload.New(ctx, StorageOptions(s))
	if err != nil {
		return nil, fmt.Errorf("storage %s: %w", s.Driver, err)
	}
	u := upload.NewUploader(store, s.PublicPrefix)
	u.VerifyImage = s.VerifyImage
	log.Printf("[INFO] Storage driver=%s verify_image=%t", s.Driver, s.VerifyImage)
	return u, nil
}

func QueueOptions(c configs.CleanupConfig) cleanup.Options {
	return cleanup.Options{
		Buffer:      c.Buffer,
		Workers:     c.Workers,
		MaxAttempts: c.MaxAttempts,
		Backoff:     c.Backoff,
		Timeout:     c.Timeout,
	}
}

// NewReaper returns nil when the store cannot enumerate its files.
func NewReaper(cfg *configs.AppConfig, store upload.Store, db *gorm.DB, dryRun bool) *cleanup.Reaper {
	lister, ok := store.(upload.Lister)
	if !ok {
		log.Printf("[WARN] Storage driver %s tidak mendukung listing, reaper dimatikan", cfg.Storage.Driver)
		return nil
	}
	return &cleanup.Reaper{
		Files:   lister,
		Remover: store,
		Refs:    repository.NewEventRepository(db),
		Config: cleanup.ReaperConfig{
			Retention:    cfg.Reaper.Retention,
			CronSchedule: cfg.Reaper.Schedule,
			DryRun:       dryRun || cfg.Reaper.DryRun,
		},
	}
}
