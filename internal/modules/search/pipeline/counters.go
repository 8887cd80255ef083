package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/dinefind/core/internal/models"
)

// counters are process-wide orchestrator tallies served by the stats
// endpoint. The failure breakdown is a small keyed map; everything hot
// is atomic.
type counters struct {
	total           atomic.Int64
	succeeded       atomic.Int64
	gateFallbacks   atomic.Int64
	smartSkips      atomic.Int64
	nearMeOverrides atomic.Int64

	mu       sync.Mutex
	byReason map[models.FailureReason]int64
}

func (c *counters) record(reason models.FailureReason) {
	c.total.Add(1)
	if reason == models.FailureNone {
		c.succeeded.Add(1)
		return
	}
	c.mu.Lock()
	if c.byReason == nil {
		c.byReason = make(map[models.FailureReason]int64)
	}
	c.byReason[reason]++
	c.mu.Unlock()
}

// Stats is a point-in-time snapshot of the orchestrator counters.
type Stats struct {
	Total           int64            `json:"total"`
	Succeeded       int64            `json:"succeeded"`
	GateFallbacks   int64            `json:"gateFallbacks"`
	SmartSkips      int64            `json:"smartSkips"`
	NearMeOverrides int64            `json:"nearMeOverrides"`
	ByFailureReason map[string]int64 `json:"byFailureReason,omitempty"`
}

func (p *Pipeline) Stats() Stats {
	s := Stats{
		Total:           p.counters.total.Load(),
		Succeeded:       p.counters.succeeded.Load(),
		GateFallbacks:   p.counters.gateFallbacks.Load(),
		SmartSkips:      p.counters.smartSkips.Load(),
		NearMeOverrides: p.counters.nearMeOverrides.Load(),
	}
	p.counters.mu.Lock()
	if len(p.counters.byReason) > 0 {
		s.ByFailureReason = make(map[string]int64, len(p.counters.byReason))
		for reason, n := range p.counters.byReason {
			s.ByFailureReason[string(reason)] = n
		}
	}
	p.counters.mu.Unlock()
	return s
}
