package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/redis"
)

// redisStore keeps each job as a JSON value with a TTL set at create
// time, plus a ZSET index (score = creation time) so sweeps can find
// ids whose values already expired. Updates rewrite the value with
// KEEPTTL so a slow job never outlives its original deadline.
type redisStore struct {
	rc     *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

func newRedisStore(cfg *config.AppConfig, logger *zap.Logger, rc *redis.Client) *redisStore {
	return &redisStore{rc: rc, logger: logger, ttl: cfg.JobTTL()}
}

func jobKey(id string) string { return redis.Key("jobs", id) }

func jobIndexKey() string { return redis.Key("jobs", "index") }

func (s *redisStore) Create(ctx context.Context, id string) (*models.Job, error) {
	now := time.Now()
	job := &models.Job{
		ID:        id,
		Status:    models.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	ok, err := s.rc.Raw().SetNX(ctx, jobKey(id), data, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrExists
	}
	err = s.rc.Raw().ZAdd(ctx, jobIndexKey(), goredis.Z{
		Score:  float64(now.UnixMilli()),
		Member: id,
	}).Err()
	if err != nil {
		// The index only feeds sweeps; the job itself is stored.
		s.logger.Warn("job index add failed", zap.String("jobId", id), zap.Error(err))
	}
	return job, nil
}

func (s *redisStore) SetStatus(ctx context.Context, id string, status models.JobStatus) error {
	return s.mutate(ctx, id, func(job *models.Job) error {
		return transition(job, status)
	})
}

func (s *redisStore) SetResult(ctx context.Context, id string, result *models.SearchResponse) error {
	return s.mutate(ctx, id, func(job *models.Job) error {
		if err := transition(job, models.JobDoneSuccess); err != nil {
			return err
		}
		job.Result = result
		job.Error = ""
		return nil
	})
}

func (s *redisStore) SetError(ctx context.Context, id string, message string) error {
	return s.mutate(ctx, id, func(job *models.Job) error {
		if err := transition(job, models.JobDoneFailed); err != nil {
			return err
		}
		job.Error = message
		return nil
	})
}

func (s *redisStore) Get(ctx context.Context, id string) (*models.Job, error) {
	data, err := s.rc.Raw().Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *redisStore) mutate(ctx context.Context, id string, fn func(*models.Job) error) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(job); err != nil {
		return err
	}
	job.UpdatedAt = time.Now()
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.rc.Raw().Set(ctx, jobKey(id), data, goredis.KeepTTL).Err()
}

// Sweep removes index members whose job value has expired. Returns
// how many ids were dropped.
func (s *redisStore) Sweep(ctx context.Context) (int, error) {
	ids, err := s.rc.Raw().ZRange(ctx, jobIndexKey(), 0, -1).Result()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		exists, err := s.rc.Exists(ctx, jobKey(id))
		if err != nil {
			return removed, err
		}
		if exists {
			continue
		}
		if err := s.rc.Raw().ZRem(ctx, jobIndexKey(), id).Err(); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
