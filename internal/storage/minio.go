package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	Transport http.RoundTripper
}

type MinioStorage struct {
	client *minio.Client
	bucket string
	logger *logger_i.Logger
}

func NewMinio(ctx context.Context, opts MinioOptions) (*MinioStorage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:    opts.UseSSL,
		Region:    opts.Region,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, err
	}
	s := &MinioStorage{client: client, bucket: opts.Bucket, logger: logger_i.NewLogger("MinioStorage")}
	return s, nil
}

// EnsureBucket creates the bucket on first start.
func (m *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("%w: minio: %w", commonModels.ErrTransient, err)
	}
	if exists {
		return nil
	}
	m.logger.Info("bucket missing, creating", "bucket", m.bucket)
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

func (m *MinioStorage) Upload(ctx context.Context, r io.Reader, name string, ownerId string) (string, int64, error) {
	key := objectKey(name, ownerId)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, r, sizeOf(r), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", 0, fmt.Errorf("%w: minio put: %w", commonModels.ErrTransient, err)
	}
	return key, info.Size, nil
}

func (m *MinioStorage) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	if _, err := m.client.StatObject(ctx, m.bucket, path, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, commonModels.NewValidationError(commonModels.ErrFileMissing, path)
		}
		return nil, fmt.Errorf("%w: minio stat: %w", commonModels.ErrTransient, err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: minio get: %w", commonModels.ErrTransient, err)
	}
	return obj, nil
}

func (m *MinioStorage) Delete(ctx context.Context, path string) error {
	return m.client.RemoveObject(ctx, m.bucket, path, minio.RemoveObjectOptions{})
}

// sizeOf lets small uploads go out as a single PUT; -1 makes minio stream multipart.
func sizeOf(r io.Reader) int64 {
	s, ok := r.(io.Seeker)
	if !ok {
		return -1
	}
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return -1
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return -1
	}
	return end - cur
}
