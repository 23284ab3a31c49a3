//go:build !gcp

package main

import (
	"context"
	"strings"
	"testing"

	"github.com/veltia-labs/veltia-core/pkg/config"
	"github.com/veltia-labs/veltia-core/pkg/documents"
)

func TestNewDocumentStoreFS(t *testing.T) {
	cfg := &config.Config{DocumentStore: "fs", DocumentDir: t.TempDir()}
	docs, err := newDocumentStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newDocumentStore(fs): %v", err)
	}
	if _, ok := docs.(*documents.FSStore); !ok {
		t.Errorf("expected *documents.FSStore, got %T", docs)
	}
}

func TestNewDocumentStoreS3RequiresBucket(t *testing.T) {
	cfg := &config.Config{DocumentStore: "s3"}
	if _, err := newDocumentStore(context.Background(), cfg); err == nil {
		t.Error("expected error without DOCUMENT_BUCKET")
	}
}

func TestNewDocumentStoreGCSWithoutTag(t *testing.T) {
	cfg := &config.Config{DocumentStore: "gcs", DocumentBucket: "veltia-docs"}
	_, err := newDocumentStore(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "gcp") {
		t.Errorf("expected gcp build tag error, got %v", err)
	}
}

func TestNewDocumentStoreUnknown(t *testing.T) {
	cfg := &config.Config{DocumentStore: "tape"}
	if _, err := newDocumentStore(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewRealtimePublisher(t *testing.T) {
	if pub := newRealtimePublisher(&config.Config{}); pub != nil {
		t.Error("expected nil publisher without REDIS_ADDR")
	}
	t.Setenv("REDIS_PASSWORD", "s3cret")
	pub := newRealtimePublisher(&config.Config{RedisAddr: "localhost:6379"})
	if pub == nil {
		t.Fatal("expected publisher when REDIS_ADDR is set")
	}
	_ = pub.Close()
}
