package places

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/redis"
)

// l2Entry is the stored envelope. Carrying the write time and TTL in
// the value spares a second round trip for ttl-remaining accounting.
type l2Entry struct {
	Created    time.Time          `json:"created"`
	TTLSeconds int                `json:"ttlSeconds"`
	Candidates []models.Candidate `json:"candidates"`
}

type l2Cache struct {
	client *redis.Client
}

func newL2Cache(client *redis.Client) *l2Cache { return &l2Cache{client: client} }

func l2Key(key string) string { return redis.Key("places", key) }

func (c *l2Cache) get(ctx context.Context, key string) ([]models.Candidate, time.Duration, bool, error) {
	raw, err := c.client.Get(ctx, l2Key(key))
	if err != nil {
		return nil, 0, false, err
	}
	if raw == "" {
		return nil, 0, false, nil
	}
	var entry l2Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, 0, false, err
	}
	remaining := time.Duration(entry.TTLSeconds)*time.Second - time.Since(entry.Created)
	if remaining < 0 {
		remaining = 0
	}
	return entry.Candidates, remaining, true, nil
}

func (c *l2Cache) set(ctx context.Context, key string, candidates []models.Candidate, ttl time.Duration) error {
	entry := l2Entry{Created: time.Now(), TTLSeconds: int(ttl / time.Second), Candidates: candidates}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, l2Key(key), raw, ttl)
}
