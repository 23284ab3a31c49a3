// Package documents persists generated documents (signature PDFs) and hands
// out time-limited signed URLs for retrieval. Keys are content-addressed:
// "sha256:<hex>".
package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Store is the blob storage contract the signature path consumes.
type Store interface {
	// Store persists data and returns its content key.
	Store(ctx context.Context, data []byte) (string, error)
	// Get retrieves a document by its content key.
	Get(ctx context.Context, key string) ([]byte, error)
	// SignedURL returns a time-limited retrieval URL for the document.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

const keyPrefix = "sha256:"

func contentKey(data []byte) (key, objectName string) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	return keyPrefix + hash, hash + ".pdf"
}

func objectName(key string) (string, error) {
	if !strings.HasPrefix(key, keyPrefix) {
		return "", fmt.Errorf("invalid document key format: %s", key)
	}
	return key[len(keyPrefix):] + ".pdf", nil
}
