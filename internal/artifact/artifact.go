// Package artifact moves serialized model blobs to and from the external
// artifact store. The store is a flat key-to-blob namespace; publishing
// overwrites whatever sat under the logical name before.
package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrArtifactNotFound is returned by Download when nothing has been
// published under the logical name.
var ErrArtifactNotFound = errors.New("artifact not found")

// Store is the blob interface. Upload overwrites; no versioning.
type Store interface {
	Upload(ctx context.Context, logicalName string, blob []byte) error
	Download(ctx context.Context, logicalName string) ([]byte, error)
}

const keyPrefix = "artifact:"

// RedisStore keeps artifacts in Redis under artifact:<logicalName>.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Upload(ctx context.Context, logicalName string, blob []byte) error {
	if err := s.client.Set(ctx, keyPrefix+logicalName, blob, 0).Err(); err != nil {
		return fmt.Errorf("artifact upload %q: %w", logicalName, err)
	}
	return nil
}

func (s *RedisStore) Download(ctx context.Context, logicalName string) ([]byte, error) {
	blob, err := s.client.Get(ctx, keyPrefix+logicalName).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %q", ErrArtifactNotFound, logicalName)
	}
	if err != nil {
		return nil, fmt.Errorf("artifact download %q: %w", logicalName, err)
	}
	return blob, nil
}

// MemoryStore is an in-process Store for tests.
type MemoryStore struct {
	blobs map[string][]byte

	// FailUploads makes Upload return an error, for exercising the
	// publish failure path.
	FailUploads bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(_ context.Context, logicalName string, blob []byte) error {
	if s.FailUploads {
		return errors.New("upload refused")
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.blobs[logicalName] = cp
	return nil
}

func (s *MemoryStore) Download(_ context.Context, logicalName string) ([]byte, error) {
	blob, ok := s.blobs[logicalName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrArtifactNotFound, logicalName)
	}
	return blob, nil
}
