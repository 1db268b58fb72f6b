package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ============================================================================
// ARCHIVE — Raw upload files in object storage
// ============================================================================
// The parsed records live in the store; the original CSV bytes go here so a
// user can download exactly what they uploaded. Archiving is optional: Nop
// accepts writes and reports ErrDisabled for downloads.
// ============================================================================

// ErrDisabled is returned by Nop.URL.
var ErrDisabled = errors.New("archive disabled")

// Archiver stores raw upload files.
type Archiver interface {
	Archive(ctx context.Context, key string, data []byte) error
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Key returns the object key for an upload's raw file.
func Key(uploadID, filename string) string {
	return "uploads/" + uploadID + "/" + filename
}

// ============================================================================
// MINIO
// ============================================================================

// MinioConfig holds S3-compatible endpoint settings.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// MinioArchiver writes to an S3-compatible bucket.
type MinioArchiver struct {
	Client *minio.Client
	Bucket string
}

// NewMinioArchiver creates the client and makes sure the bucket exists.
func NewMinioArchiver(ctx context.Context, cfg MinioConfig) (*MinioArchiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.Printf("🪣 Created bucket %s", cfg.Bucket)
	}

	return &MinioArchiver{Client: client, Bucket: cfg.Bucket}, nil
}

func (a *MinioArchiver) Archive(ctx context.Context, key string, data []byte) error {
	if a == nil || a.Client == nil {
		return fmt.Errorf("s3 client not initialized")
	}

	_, err := a.Client.PutObject(ctx, a.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func (a *MinioArchiver) URL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if a == nil || a.Client == nil {
		return "", fmt.Errorf("s3 client not initialized")
	}

	u, err := a.Client.PresignedGetObject(ctx, a.Bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presigned get object: %w", err)
	}
	return u.String(), nil
}

// ============================================================================
// NOP
// ============================================================================

// Nop discards archives.
type Nop struct{}

func (Nop) Archive(context.Context, string, []byte) error { return nil }

func (Nop) URL(context.Context, string, time.Duration) (string, error) {
	return "", ErrDisabled
}
