//go:build gcp

package main

import (
	"context"

	"github.com/veltia-labs/veltia-core/pkg/documents"
)

func newGCSDocumentStore(ctx context.Context, bucket string) (documents.Store, error) {
	return documents.NewGCSStore(ctx, documents.GCSStoreConfig{
		Bucket: bucket,
		Prefix: "documents/",
	})
}
