// Package places is the place-provider client behind a three-tier
// cache: an in-flight group deduplicating concurrent identical calls,
// a small FIFO process cache, and a shared Redis tier.
package places

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/redis"
)

const (
	maxFetchAttempts = 2
	retryBackoff     = 250 * time.Millisecond

	// A biased text search this thin gets one retry without the bias.
	biasRetryThreshold = 1
)

type Service struct {
	cfg    *config.AppConfig
	logger *zap.Logger
	client *client
	flight singleflight.Group
	l1     *l1Cache
	l2     *l2Cache // nil when Redis is absent
	sem    *semaphore.Weighted

	hitsL0, hitsL1, hitsL2, misses atomic.Int64
}

// CacheCounters is a point-in-time view of tier traffic.
type CacheCounters struct {
	HitsL0 int64 `json:"hitsL0"`
	HitsL1 int64 `json:"hitsL1"`
	HitsL2 int64 `json:"hitsL2"`
	Misses int64 `json:"misses"`
}

func NewService(cfg *config.AppConfig, logger *zap.Logger, rdb *redis.Client) *Service {
	var l2 *l2Cache
	if rdb != nil {
		l2 = newL2Cache(rdb)
	}
	return &Service{
		cfg:    cfg,
		logger: logger.Named("places"),
		client: newClient(cfg.Provider),
		l1:     newL1Cache(cfg.Cache.L1Size, time.Duration(cfg.Cache.L1TTLSeconds)*time.Second),
		l2:     l2,
		sem:    semaphore.NewWeighted(int64(max(cfg.Provider.MaxConcurrent, 1))),
	}
}

// Search runs one provider call through the cache tiers. A biased text
// search returning at most one result is retried once without the
// bias; the retry caches under its own key.
func (s *Service) Search(ctx context.Context, params models.ProviderParams) ([]models.Candidate, error) {
	candidates, err := s.cached(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(candidates) <= biasRetryThreshold && params.Bias != nil {
		unbiased := params
		unbiased.Bias = nil
		retried, retryErr := s.cached(ctx, unbiased)
		s.logger.Info("bias_retry",
			zap.String("key", logHash(cacheKey(params))),
			zap.Int("biasedResults", len(candidates)),
			zap.Int("retryResults", len(retried)),
			zap.Error(retryErr),
		)
		if retryErr == nil && len(retried) > len(candidates) {
			return retried, nil
		}
	}
	return candidates, nil
}

// FetchPhoto streams a photo by its opaque reference.
func (s *Service) FetchPhoto(ctx context.Context, ref string, maxWidthPx int) (io.ReadCloser, string, error) {
	return s.client.fetchPhoto(ctx, ref, maxWidthPx)
}

// CacheSize reports the current L1 entry count.
func (s *Service) CacheSize() int { return s.l1.len() }

// CacheStats reports tier hit and miss counts since process start.
func (s *Service) CacheStats() CacheCounters {
	return CacheCounters{
		HitsL0: s.hitsL0.Load(),
		HitsL1: s.hitsL1.Load(),
		HitsL2: s.hitsL2.Load(),
		Misses: s.misses.Load(),
	}
}

func (s *Service) cached(ctx context.Context, params models.ProviderParams) ([]models.Candidate, error) {
	key := cacheKey(params)
	hash := logHash(key)
	started := time.Now()
	s.logger.Debug("wrap_enter",
		zap.String("key", hash),
		zap.String("route", string(params.Route)),
		zap.Bool("openNow", params.OpenNow),
	)

	executed := false
	v, err, _ := s.flight.Do(key, func() (any, error) {
		executed = true
		return s.lookupOrFetch(ctx, params, key, hash)
	})
	if !executed {
		s.hitsL0.Add(1)
		s.logger.Debug("cache_hit", zap.String("key", hash), zap.String("tier", "l0"))
	}

	var out []models.Candidate
	if v != nil {
		out = v.([]models.Candidate)
	}
	s.logger.Debug("wrap_exit",
		zap.String("key", hash),
		zap.Int("results", len(out)),
		zap.Duration("took", time.Since(started)),
		zap.Error(err),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lookupOrFetch runs inside the in-flight group: check L1, then L2,
// then call the provider and populate L2 before L1. L2 reads insert a
// fresh L1 entry rather than refreshing an old one.
func (s *Service) lookupOrFetch(ctx context.Context, params models.ProviderParams, key, hash string) ([]models.Candidate, error) {
	if candidates, age, ok := s.l1.get(key); ok {
		s.hitsL1.Add(1)
		s.logger.Debug("cache_hit", zap.String("key", hash), zap.String("tier", "l1"), zap.Duration("age", age))
		return candidates, nil
	}
	if s.l2 != nil {
		candidates, remaining, ok, err := s.l2.get(ctx, key)
		if err != nil {
			s.logger.Warn("l2_read_failed", zap.String("key", hash), zap.Error(err))
		} else if ok {
			s.hitsL2.Add(1)
			s.l1.set(key, candidates)
			s.logger.Debug("cache_hit", zap.String("key", hash), zap.String("tier", "l2"), zap.Duration("ttlRemaining", remaining))
			return candidates, nil
		}
	}
	s.misses.Add(1)
	s.logger.Debug("cache_miss", zap.String("key", hash))

	candidates, err := s.fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	ttl := s.l2TTL(params)
	var l2OK bool
	if s.l2 != nil {
		if err := s.l2.set(ctx, key, candidates, ttl); err != nil {
			s.logger.Warn("l2_store_failed", zap.String("key", hash), zap.Error(err))
		} else {
			l2OK = true
		}
	}
	s.l1.set(key, candidates)
	s.logger.Debug("cache_store", zap.String("key", hash), zap.Duration("ttl", ttl), zap.Bool("l2", l2OK))
	return candidates, nil
}

// l2TTL shortens the shared-cache lifetime when openness is part of the
// parameters, since open-now data goes stale in minutes.
func (s *Service) l2TTL(params models.ProviderParams) time.Duration {
	if params.OpenNow {
		return time.Duration(s.cfg.Cache.L2OpenNowTTLSeconds) * time.Second
	}
	return time.Duration(s.cfg.Cache.L2TTLSeconds) * time.Second
}

func (s *Service) fetch(ctx context.Context, params models.ProviderParams) ([]models.Candidate, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout())
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(retryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, lastErr
			case <-timer.C:
			}
		}
		candidates, err := s.dispatch(ctx, params)
		if err == nil {
			return candidates, nil
		}
		lastErr = err
		if !isTransient(err) || ctx.Err() != nil {
			return nil, err
		}
		s.logger.Warn("provider_retry",
			zap.Int("attempt", attempt),
			zap.String("route", string(params.Route)),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

func (s *Service) dispatch(ctx context.Context, params models.ProviderParams) ([]models.Candidate, error) {
	switch params.Route {
	case models.RouteNearby:
		return s.client.searchNearby(ctx, params, *params.Center)
	case models.RouteLandmark:
		center, err := s.client.geocode(ctx, params.GeocodeQuery, params.Region, params.Language)
		if err != nil {
			return nil, err
		}
		return s.client.searchNearby(ctx, params, center)
	default:
		return s.client.searchText(ctx, params)
	}
}

// acquire takes a slot under the outbound-call ceiling, waiting at most
// the configured queue time.
func (s *Service) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Provider.QueueWaitMS)*time.Millisecond)
	defer cancel()
	if err := s.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrQueueWait
	}
	return nil
}
