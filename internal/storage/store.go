package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Uploader pushes local export files to durable storage.
type Uploader interface {
	UploadFile(ctx context.Context, localPath string) (string, error)
}

// Options configure the object store connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	UseSSL    bool
}

// ObjectStore uploads export artifacts to an S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string
	logger zerolog.Logger
	now    func() time.Time
}

var _ Uploader = (*ObjectStore)(nil)

// NewObjectStore connects to the endpoint and creates the bucket when missing.
func NewObjectStore(ctx context.Context, opts Options, logger zerolog.Logger) (*ObjectStore, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("object store endpoint and bucket are required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	log := logger.With().Str("component", "object_store").Str("bucket", opts.Bucket).Logger()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
		log.Info().Msg("bucket created")
	}

	return &ObjectStore{
		client: client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// UploadFile stores localPath under a date-partitioned key and returns the key.
func (s *ObjectStore) UploadFile(ctx context.Context, localPath string) (string, error) {
	key := ObjectKey(s.prefix, s.now(), localPath)
	info, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}
	s.logger.Info().Str("key", key).Int64("size", info.Size).Msg("export uploaded")
	return key, nil
}

// ObjectKey builds "<prefix>/<yyyy-mm-dd>/<basename>".
func ObjectKey(prefix string, at time.Time, localPath string) string {
	return path.Join(strings.Trim(prefix, "/"), at.UTC().Format("2006-01-02"), filepath.Base(localPath))
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".png":
		return "image/png"
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
