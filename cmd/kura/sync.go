package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/kura-voice/internal/s3"
)

// createSyncCommand создает команду sync
func (app *Application) createSyncCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Download missing cache files from S3, then re-index",
		Long:  `Download objects with the configured audio extension from the S3 bucket into the cache directory. Files whose size already matches are skipped.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.syncCache(ctx)
		},
	}
}

func (app *Application) syncCache(ctx context.Context) error {
	cfg := app.Config.S3
	syncer, err := s3.NewSyncer(&s3.Config{
		Region:     cfg.Region,
		AccessKey:  cfg.AccessKey,
		SecretKey:  cfg.SecretKey,
		Endpoint:   cfg.Endpoint,
		BucketName: cfg.Bucket,
		Prefix:     cfg.Prefix,
	}, app.Catalog.Root(), app.Catalog.Ext())
	if err != nil {
		return err
	}

	fmt.Printf("☁️  Синхронизация s3://%s/%s → %s\n", cfg.Bucket, cfg.Prefix, app.Catalog.Root())
	result, err := syncer.Sync(ctx)
	if err != nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}
	fmt.Printf("✅ Скачано: %d, пропущено: %d\n", result.Downloaded, result.Skipped)

	snap, err := app.Catalog.Reindex(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Треков в кэше: %d\n", snap.Len())
	return nil
}
