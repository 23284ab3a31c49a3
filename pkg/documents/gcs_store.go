//go:build gcp

package documents

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// GCSStore implements Store using Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSStoreConfig holds configuration for GCSStore.
type GCSStoreConfig struct {
	Bucket string
	Prefix string
}

// NewGCSStore creates a new GCS-backed document store (uses ADC by default).
func NewGCSStore(ctx context.Context, cfg GCSStoreConfig) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *GCSStore) Store(ctx context.Context, data []byte) (string, error) {
	key, object := contentKey(data)
	obj := s.client.Bucket(s.bucket).Object(s.prefix + object)

	if _, err := obj.Attrs(ctx); err == nil {
		return key, nil
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/pdf"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close failed: %w", err)
	}

	return key, nil
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	object, err := objectName(key)
	if err != nil {
		return nil, err
	}

	reader, err := s.client.Bucket(s.bucket).Object(s.prefix + object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs get failed for %s: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	return io.ReadAll(reader)
}

func (s *GCSStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	object, err := objectName(key)
	if err != nil {
		return "", err
	}

	url, err := s.client.Bucket(s.bucket).SignedURL(s.prefix+object, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("gcs signed url failed for %s: %w", key, err)
	}
	return url, nil
}
