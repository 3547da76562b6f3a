package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/config"
	"github.com/princekumarofficial/familybook/internal/logger"
	"github.com/princekumarofficial/familybook/internal/services/media"
	"github.com/princekumarofficial/familybook/internal/storage/postgres"
	"github.com/princekumarofficial/familybook/internal/sweeper"
)

func main() {
	cfg := config.MustLoad()

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %s", err)
	}
	defer zl.Sync()

	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		zl.Fatal("failed to initialize database", zap.Error(err))
	}
	defer storage.Close()
	zl.Info("connected to postgres")

	minioClient, err := media.NewClient(cfg.MinIO)
	if err != nil {
		zl.Fatal("failed to initialize minio", zap.Error(err))
	}
	blobs := media.NewService(minioClient, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := sweeper.NewOrphanSweeper(blobs, storage, blobs.Buckets(), cfg.Sweeper.Interval, cfg.Sweeper.Grace, zl)
	worker.Start(ctx)

	zl.Info("orphan sweeper stopped")
}
