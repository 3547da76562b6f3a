// Package sweeper removes blobs that no row points at. A multi-file upload
// that stops part way can leave an object stored without its metadata row;
// those objects are found here and deleted once they are older than a grace
// period.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const keyBatch = 500

type Blobs interface {
	ListOlderThan(ctx context.Context, bucket string, cutoff time.Time) ([]minio.ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
}

type References interface {
	ReferencedObjectKeys(ctx context.Context, keys []string) (map[string]bool, error)
}

type OrphanSweeper struct {
	blobs    Blobs
	refs     References
	buckets  []string
	interval time.Duration
	grace    time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrphanSweeper(blobs Blobs, refs References, buckets []string, interval, grace time.Duration, logger *zap.Logger) *OrphanSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrphanSweeper{
		blobs:    blobs,
		refs:     refs,
		buckets:  buckets,
		interval: interval,
		grace:    grace,
		logger:   logger,
		now:      time.Now,
	}
}

// Start sweeps once right away and then on every tick until ctx is done.
func (s *OrphanSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("orphan sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("grace", s.grace))

	s.sweepAll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("orphan sweeper shutting down")
			return
		case <-ticker.C:
			s.sweepAll(ctx)
		}
	}
}

func (s *OrphanSweeper) sweepAll(ctx context.Context) {
	for _, bucket := range s.buckets {
		startTime := time.Now()

		removed, err := s.Sweep(ctx, bucket)
		if err != nil {
			s.logger.Error("failed to sweep bucket",
				zap.String("bucket", bucket),
				zap.Int("removed", removed),
				zap.Error(err))
			continue
		}

		s.logger.Info("completed bucket sweep",
			zap.String("bucket", bucket),
			zap.Int("removed", removed),
			zap.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	}
}

// Sweep deletes the unreferenced objects of bucket that are older than the
// grace period and returns how many were removed. Soft-deleted rows still
// count as references.
func (s *OrphanSweeper) Sweep(ctx context.Context, bucket string) (int, error) {
	objects, err := s.blobs.ListOlderThan(ctx, bucket, s.now().Add(-s.grace))
	if err != nil {
		return 0, err
	}

	removed := 0
	for start := 0; start < len(objects); start += keyBatch {
		end := min(start+keyBatch, len(objects))

		keys := make([]string, 0, end-start)
		for _, o := range objects[start:end] {
			keys = append(keys, o.Key)
		}

		referenced, err := s.refs.ReferencedObjectKeys(ctx, keys)
		if err != nil {
			return removed, fmt.Errorf("check references: %w", err)
		}

		for _, key := range keys {
			if referenced[key] {
				continue
			}
			if err := s.blobs.Delete(ctx, bucket, key); err != nil {
				return removed, fmt.Errorf("delete %s/%s: %w", bucket, key, err)
			}
			removed++
			s.logger.Debug("orphan removed", zap.String("bucket", bucket), zap.String("key", key))
		}
	}

	return removed, nil
}
