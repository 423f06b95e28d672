package artifact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/aqi-forecast-etl/internal/observability"
)

// Producer computes the bytes of an artifact.
type Producer func(ctx context.Context) ([]byte, error)

// Cache is the compute-if-absent wrapper every expensive stage goes through.
type Cache struct {
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCache creates a Cache over store.
func NewCache(store Store, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	return &Cache{store: store, logger: logger, metrics: metrics}
}

// Store returns the backing store.
func (c *Cache) Store() Store {
	return c.store
}

// Ensure makes sure an artifact exists under key. When it already exists the
// producer is not called and Ensure returns false. Otherwise the producer runs
// and its output is stored atomically; Ensure returns true.
//
// Producer errors are returned unchanged and nothing is written. Write
// failures are returned as *ArtifactWriteError; a failed existence check is
// returned wrapped with the key.
func (c *Cache) Ensure(ctx context.Context, key string, produce Producer) (bool, error) {
	kind := Kind(key)

	exists, err := c.store.Exists(ctx, key)
	if err != nil {
		c.metrics.ArtifactErrors.WithLabelValues(kind).Inc()
		return false, fmt.Errorf("check artifact %q: %w", key, err)
	}
	if exists {
		c.metrics.ArtifactCache.WithLabelValues(kind, "hit").Inc()
		c.logger.Debug("artifact present, skipping", "key", key)
		return false, nil
	}
	c.metrics.ArtifactCache.WithLabelValues(kind, "miss").Inc()

	data, err := produce(ctx)
	if err != nil {
		c.metrics.ArtifactErrors.WithLabelValues(kind).Inc()
		return false, err
	}
	if err := c.store.Put(ctx, key, data); err != nil {
		c.metrics.ArtifactErrors.WithLabelValues(kind).Inc()
		return false, &ArtifactWriteError{Key: key, Err: err}
	}

	c.logger.Info("artifact written", "key", key, "bytes", len(data))
	return true, nil
}

// Load reads an artifact from the backing store.
func (c *Cache) Load(ctx context.Context, key string) ([]byte, error) {
	return c.store.Get(ctx, key)
}
