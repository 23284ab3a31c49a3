package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FSStore implements Store on the local filesystem, for development and
// tests. "Signed" URLs are plain file URLs; there is nothing to sign locally.
type FSStore struct {
	dir string
}

// NewFSStore creates a document store rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create document dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Store(_ context.Context, data []byte) (string, error) {
	key, object := contentKey(data)
	path := filepath.Join(s.dir, object)

	if _, err := os.Stat(path); err == nil {
		return key, nil
	}

	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return key, nil
}

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	object, err := objectName(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, object))
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", key, err)
	}
	return data, nil
}

func (s *FSStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	object, err := objectName(key)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(filepath.Join(s.dir, object))
	if err != nil {
		return "", err
	}
	return "file://" + abs, nil
}
