//go:build !gcp

package main

import (
	"context"
	"fmt"

	"github.com/veltia-labs/veltia-core/pkg/documents"
)

func newGCSDocumentStore(context.Context, string) (documents.Store, error) {
	return nil, fmt.Errorf("document store gcs: binary built without the gcp tag")
}
