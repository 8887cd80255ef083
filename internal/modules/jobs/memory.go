package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/dinefind/core/internal/models"
)

// memoryStore is the single-process fallback. Jobs live in a map and
// expire lazily on access; Sweep reclaims the rest.
type memoryStore struct {
	mu   sync.Mutex
	jobs map[string]*memoryEntry
	ttl  time.Duration
}

type memoryEntry struct {
	job     models.Job
	expires time.Time
}

func newMemoryStore(ttl time.Duration) *memoryStore {
	return &memoryStore{jobs: make(map[string]*memoryEntry), ttl: ttl}
}

func (s *memoryStore) Create(_ context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if e, ok := s.jobs[id]; ok && now.Before(e.expires) {
		return nil, ErrExists
	}
	job := models.Job{
		ID:        id,
		Status:    models.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[id] = &memoryEntry{job: job, expires: now.Add(s.ttl)}
	out := job
	return &out, nil
}

func (s *memoryStore) SetStatus(_ context.Context, id string, status models.JobStatus) error {
	return s.mutate(id, func(job *models.Job) error {
		return transition(job, status)
	})
}

func (s *memoryStore) SetResult(_ context.Context, id string, result *models.SearchResponse) error {
	return s.mutate(id, func(job *models.Job) error {
		if err := transition(job, models.JobDoneSuccess); err != nil {
			return err
		}
		job.Result = result
		job.Error = ""
		return nil
	})
}

func (s *memoryStore) SetError(_ context.Context, id string, message string) error {
	return s.mutate(id, func(job *models.Job) error {
		if err := transition(job, models.JobDoneFailed); err != nil {
			return err
		}
		job.Error = message
		return nil
	})
}

func (s *memoryStore) Get(_ context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(e.expires) {
		delete(s.jobs, id)
		return nil, ErrNotFound
	}
	out := e.job
	return &out, nil
}

func (s *memoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, e := range s.jobs {
		if now.After(e.expires) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memoryStore) mutate(id string, fn func(*models.Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if time.Now().After(e.expires) {
		delete(s.jobs, id)
		return ErrNotFound
	}
	if err := fn(&e.job); err != nil {
		return err
	}
	e.job.UpdatedAt = time.Now()
	return nil
}
