package cache

import (
	"context"
	"time"

	"expenses/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically drops expired entries from registered caches.
type Janitor struct {
	caches []Cleaner
	logger *log.Logger
}

// NewJanitor creates a janitor; logger may be nil.
func NewJanitor(logger *log.Logger, caches ...Cleaner) *Janitor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Janitor{
		caches: caches,
		logger: logger.WithComponent(log.ComponentCache),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.DebugContext(ctx, "Expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Sweep cleans all caches once and returns the number of removed entries.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}
