package places

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinefind/core/internal/models"
)

func oneCandidate(id string) []models.Candidate {
	return []models.Candidate{{ProviderID: id}}
}

func TestL1EvictsFIFO(t *testing.T) {
	c := newL1Cache(2, time.Minute)
	c.set("a", oneCandidate("a"))
	c.set("b", oneCandidate("b"))
	c.set("c", oneCandidate("c"))

	_, _, ok := c.get("a")
	assert.False(t, ok, "oldest entry should be evicted")
	_, _, ok = c.get("b")
	assert.True(t, ok)
	_, _, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.len())
}

// Overwriting a key must not let its stale queue position evict the
// fresh value.
func TestL1OverwriteSurvivesEviction(t *testing.T) {
	c := newL1Cache(2, time.Minute)
	c.set("a", oneCandidate("a1"))
	c.set("b", oneCandidate("b"))
	c.set("a", oneCandidate("a2"))
	c.set("c", oneCandidate("c"))

	got, _, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "a2", got[0].ProviderID)
	_, _, ok = c.get("b")
	assert.False(t, ok, "b was the oldest live entry")
	_, _, ok = c.get("c")
	assert.True(t, ok)
}

func TestL1ExpiresOnRead(t *testing.T) {
	c := newL1Cache(10, 10*time.Millisecond)
	c.set("a", oneCandidate("a"))
	time.Sleep(30 * time.Millisecond)

	_, _, ok := c.get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.len())
}

func TestL1ReportsAge(t *testing.T) {
	c := newL1Cache(10, time.Minute)
	c.set("a", oneCandidate("a"))

	_, age, ok := c.get("a")
	require.True(t, ok)
	assert.GreaterOrEqual(t, age, time.Duration(0))
	assert.Less(t, age, time.Second)
}
