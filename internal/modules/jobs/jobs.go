// Package jobs persists async search jobs from enqueue to terminal
// state. A Redis-backed store shares jobs across processes; a
// process-local store stands in when Redis is not configured. Both
// enforce the PENDING to RUNNING to DONE state machine and expire
// jobs after the configured TTL.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/redis"
)

var (
	// ErrNotFound marks a job id that was never created or has expired.
	ErrNotFound = errors.New("job not found")
	// ErrExists marks a duplicate create for an id that is still live.
	ErrExists = errors.New("job already exists")
	// ErrInvalidTransition marks a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid job transition")
)

// Store is the job contract the pipeline writes through. Create
// registers a PENDING job under the request id, the setters advance
// it, and Get serves result polling. Sweep drops bookkeeping for
// expired jobs and is meant for a background schedule.
type Store interface {
	Create(ctx context.Context, id string) (*models.Job, error)
	SetStatus(ctx context.Context, id string, status models.JobStatus) error
	SetResult(ctx context.Context, id string, result *models.SearchResponse) error
	SetError(ctx context.Context, id string, message string) error
	Get(ctx context.Context, id string) (*models.Job, error)
	Sweep(ctx context.Context) (int, error)
}

// NewStore returns the Redis store when a client is available and the
// process-local fallback otherwise. Callers that require durability
// should refuse to boot without Redis instead of accepting the
// fallback.
func NewStore(cfg *config.AppConfig, logger *zap.Logger, rc *redis.Client) Store {
	log := logger.Named("jobs")
	if rc != nil {
		return newRedisStore(cfg, log, rc)
	}
	log.Warn("redis unavailable, async jobs are process-local")
	return newMemoryStore(cfg.JobTTL())
}

func transition(job *models.Job, next models.JobStatus) error {
	if !job.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, job.Status, next)
	}
	job.Status = next
	return nil
}
