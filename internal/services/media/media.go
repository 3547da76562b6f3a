package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/princekumarofficial/familybook/internal/config"
)

var (
	ErrContentType = errors.New("content type is not allowed")
	ErrTooLarge    = errors.New("file is too large")
	ErrEmptyFile   = errors.New("file is empty")
)

// publicReadPolicy lets anyone GET objects of a bucket, so stored URLs stay
// valid without signing.
const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type Service struct {
	client *minio.Client
	config *config.Media
	useSSL bool
	// publicBase overrides the MinIO endpoint in public URLs.
	publicBase string
	now        func() time.Time
}

// NewClient builds the MinIO client shared by the service and the sweeper.
func NewClient(cfg config.MinIO) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return client, nil
}

func NewService(client *minio.Client, cfg *config.Config) *Service {
	return &Service{
		client:     client,
		config:     &cfg.Media,
		useSSL:     cfg.MinIO.UseSSL,
		publicBase: strings.TrimRight(cfg.MinIO.PublicBaseURL, "/"),
		now:        time.Now,
	}
}

func (s *Service) Buckets() []string {
	return []string{s.config.StoriesBucket, s.config.PhotosBucket}
}

// EnsureBuckets creates the media buckets with a public read policy.
func (s *Service) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range s.Buckets() {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check if bucket %q exists: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", bucket, err)
			}
		}
		if err := s.client.SetBucketPolicy(ctx, bucket, fmt.Sprintf(publicReadPolicy, bucket)); err != nil {
			return fmt.Errorf("failed to set policy on bucket %q: %w", bucket, err)
		}
	}
	return nil
}

// ValidateContentType checks if the content type is allowed
func (s *Service) ValidateContentType(contentType string) bool {
	for _, allowed := range s.config.AllowedMimeTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// Validate checks a file before anything is stored.
func (s *Service) Validate(contentType string, size int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if s.config.MaxFileSize > 0 && size > s.config.MaxFileSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, s.config.MaxFileSize)
	}
	if !s.ValidateContentType(contentType) {
		return fmt.Errorf("%w: %s", ErrContentType, contentType)
	}
	return nil
}

// ObjectKey builds accounts/<account_id>/<unixmilli>_<id8>_<name>. The random
// segment keeps two files with the same name in the same millisecond apart.
func (s *Service) ObjectKey(accountID, fileName string) string {
	return ObjectKey(accountID, fileName, s.now(), uuid.NewString()[:8])
}

func ObjectKey(accountID, fileName string, at time.Time, id string) string {
	name := unsafeName.ReplaceAllString(path.Base(fileName), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("accounts/%s/%d_%s_%s", accountID, at.UnixMilli(), id, name)
}

// Upload stores body under key.
func (s *Service) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PublicURL returns the durable URL of an object in a public bucket.
func (s *Service) PublicURL(bucket, key string) string {
	if s.publicBase != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicBase, bucket, key)
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	endpoint := strings.TrimPrefix(s.client.EndpointURL().String(), scheme+"://")
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, bucket, key)
}

// Delete removes an object from storage
func (s *Service) Delete(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// ListOlderThan lists the objects of a bucket last modified before cutoff.
func (s *Service) ListOlderThan(ctx context.Context, bucket string, cutoff time.Time) ([]minio.ObjectInfo, error) {
	var objects []minio.ObjectInfo
	objectsCh := s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    "accounts/",
		Recursive: true,
	})

	for object := range objectsCh {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects in %s: %w", bucket, object.Err)
		}
		if object.LastModified.Before(cutoff) {
			objects = append(objects, object)
		}
	}

	return objects, nil
}
