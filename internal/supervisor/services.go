package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GarbageCollector is implemented by the badger-backed cache.
type GarbageCollector interface {
	RunGC() error
}

// CacheGCService periodically reclaims cache value-log space.
type CacheGCService struct {
	cache    GarbageCollector
	interval time.Duration
	logger   zerolog.Logger
}

// NewCacheGCService returns a service ticking every interval (default 5m).
func NewCacheGCService(cache GarbageCollector, interval time.Duration, logger zerolog.Logger) *CacheGCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheGCService{
		cache:    cache,
		interval: interval,
		logger:   logger.With().Str("service", "cache-gc").Logger(),
	}
}

// Serve implements suture.Service. GC errors are logged, not returned, so a
// transient failure does not count against the restart budget.
func (s *CacheGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.cache.RunGC(); err != nil {
				s.logger.Warn().Err(err).Msg("cache gc failed")
			}
		}
	}
}

func (s *CacheGCService) String() string {
	return "cache-gc"
}
