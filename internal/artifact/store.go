// Package artifact persists derived pipeline outputs and guarantees each one is
// produced at most once. The presence of an artifact under its key is the only
// validity signal: there is no hashing and no timestamp comparison.
package artifact

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotExist is returned by Store.Get when no artifact is stored under the key.
var ErrNotExist = errors.New("artifact does not exist")

// Store is durable key/value storage for artifacts. Keys are slash-separated
// relative paths such as "models/annual_model.pkl".
//
// Put must be atomic: readers observe either no artifact or the complete bytes,
// never a partial write.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// ArtifactWriteError reports a storage failure while persisting an artifact.
type ArtifactWriteError struct {
	Key string
	Err error
}

func (e *ArtifactWriteError) Error() string {
	return fmt.Sprintf("write artifact %q: %v", e.Key, e.Err)
}

func (e *ArtifactWriteError) Unwrap() error { return e.Err }
