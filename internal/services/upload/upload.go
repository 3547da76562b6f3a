// Package upload stores a batch of files and records a metadata row for each.
//
// Files are handled one at a time in order. The first failure stops the batch;
// blobs and rows written for earlier files stay where they are and are
// returned next to the error.
package upload

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/types/media"
)

// Stage names the step a file failed at.
type Stage string

const (
	StageValidate Stage = "validate"
	StageOpen     Stage = "open"
	StageStore    Stage = "store"
	StageRecord   Stage = "record"
)

// FileError reports which file of a batch failed and where.
type FileError struct {
	Index int
	Name  string
	Stage Stage
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %d (%s): %s: %v", e.Index, e.Name, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Blobs is the blob store the gateway writes to.
type Blobs interface {
	Validate(contentType string, size int64) error
	ObjectKey(accountID, fileName string) string
	Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	PublicURL(bucket, key string) string
}

// RecordFunc inserts the metadata row for a stored blob and returns its id.
type RecordFunc func(ctx context.Context, stored media.Stored) (string, error)

type Gateway struct {
	blobs  Blobs
	logger *zap.Logger
}

func NewGateway(blobs Blobs, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{blobs: blobs, logger: logger}
}

// UploadAll validates every file first, so a bad type or size stores nothing.
// It then stores and records the files in order and stops at the first
// failure.
func (g *Gateway) UploadAll(ctx context.Context, bucket, accountID string, files []media.File, record RecordFunc) ([]media.UploadResult, error) {
	for i, f := range files {
		if err := g.blobs.Validate(f.ContentType, f.Size); err != nil {
			return nil, &FileError{Index: i, Name: f.Name, Stage: StageValidate, Err: err}
		}
	}

	results := make([]media.UploadResult, 0, len(files))
	for i, f := range files {
		res, err := g.uploadOne(ctx, bucket, accountID, f, record)
		if err != nil {
			err.Index = i
			g.logger.Warn("upload batch aborted",
				zap.String("account_id", accountID),
				zap.String("bucket", bucket),
				zap.Int("failed_index", i),
				zap.Int("stored", len(results)),
				zap.Error(err))
			return results, err
		}
		results = append(results, res)
	}

	g.logger.Info("upload batch stored",
		zap.String("account_id", accountID),
		zap.String("bucket", bucket),
		zap.Int("files", len(results)))
	return results, nil
}

func (g *Gateway) uploadOne(ctx context.Context, bucket, accountID string, f media.File, record RecordFunc) (media.UploadResult, *FileError) {
	body, err := f.Open()
	if err != nil {
		return media.UploadResult{}, &FileError{Name: f.Name, Stage: StageOpen, Err: err}
	}
	defer body.Close()

	key := g.blobs.ObjectKey(accountID, f.Name)
	if err := g.blobs.Upload(ctx, bucket, key, body, f.Size, f.ContentType); err != nil {
		return media.UploadResult{}, &FileError{Name: f.Name, Stage: StageStore, Err: err}
	}

	stored := media.Stored{
		Bucket:      bucket,
		ObjectKey:   key,
		URL:         g.blobs.PublicURL(bucket, key),
		FileName:    f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
	}

	id, err := record(ctx, stored)
	if err != nil {
		return media.UploadResult{}, &FileError{Name: f.Name, Stage: StageRecord, Err: err}
	}

	return media.UploadResult{Stored: stored, RecordID: id}, nil
}
