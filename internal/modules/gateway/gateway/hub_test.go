package gateway

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/pkg/redis"
)

func newTestHub(t *testing.T, rc *redis.Client) *Hub {
	t.Helper()
	cfg := &config.AppConfig{
		Gateway: config.GatewayConfig{BacklogSize: 3, BacklogTTLSeconds: 120},
	}
	ticket := func(token string) (string, bool) {
		if token == "good-ticket" {
			return "session-1", true
		}
		return "", false
	}
	return NewHub(cfg, rc, zap.NewNop(), ticket, func(string) bool { return false })
}

type recorder struct {
	mu   sync.Mutex
	msgs []PushMessage
}

func (r *recorder) emit(msg PushMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recorder) data() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, fmt.Sprint(m.Data))
	}
	return out
}

func TestPublishBuffersUntilSubscribe(t *testing.T) {
	h := newTestHub(t, nil)
	ctx := context.Background()

	h.Publish(ctx, ChannelSearch, "req-1", PushProgress, "first")
	h.Publish(ctx, ChannelSearch, "req-1", PushResults, "second")

	subs, keys, backlogged := h.Stats()
	assert.Equal(t, 0, subs)
	assert.Equal(t, 1, keys)
	assert.Equal(t, 2, backlogged)

	rec := &recorder{}
	drained := h.subscribeKey(roomKey(ChannelSearch, "req-1"), "sid-1", rec.emit)
	assert.Equal(t, 2, drained)
	assert.Equal(t, []string{"first", "second"}, rec.data())

	// Once live, delivery is immediate and nothing re-enters the backlog.
	h.Publish(ctx, ChannelSearch, "req-1", PushError, "third")
	assert.Equal(t, []string{"first", "second", "third"}, rec.data())
	_, _, backlogged = h.Stats()
	assert.Equal(t, 0, backlogged)
}

func TestBacklogDropsOldestBeyondCap(t *testing.T) {
	h := newTestHub(t, nil) // cap 3
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		h.Publish(ctx, ChannelSearch, "req-2", PushProgress, fmt.Sprintf("m%d", i))
	}

	rec := &recorder{}
	drained := h.subscribeKey(roomKey(ChannelSearch, "req-2"), "sid-1", rec.emit)
	assert.Equal(t, 3, drained)
	assert.Equal(t, []string{"m3", "m4", "m5"}, rec.data())
}

func TestBacklogExpires(t *testing.T) {
	h := newTestHub(t, nil)
	h.backlogTTL = 20 * time.Millisecond
	ctx := context.Background()

	h.Publish(ctx, ChannelSearch, "req-3", PushResults, "stale")
	time.Sleep(40 * time.Millisecond)

	rec := &recorder{}
	drained := h.subscribeKey(roomKey(ChannelSearch, "req-3"), "sid-1", rec.emit)
	assert.Equal(t, 0, drained)
	assert.Empty(t, rec.data())
}

func TestLiveDeliveryReachesEverySubscriber(t *testing.T) {
	h := newTestHub(t, nil)
	ctx := context.Background()

	a, b := &recorder{}, &recorder{}
	key := roomKey(ChannelAssistant, "req-4")
	h.subscribeKey(key, "sid-a", a.emit)
	h.subscribeKey(key, "sid-b", b.emit)

	h.Publish(ctx, ChannelAssistant, "req-4", PushProgress, "hello")

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, ChannelAssistant, a.msgs[0].Channel)
	assert.Equal(t, "req-4", a.msgs[0].RequestID)
}

func TestUnsubscribeForgetsIdleKey(t *testing.T) {
	h := newTestHub(t, nil)
	ctx := context.Background()

	rec := &recorder{}
	key := roomKey(ChannelSearch, "req-5")
	h.subscribeKey(key, "sid-1", rec.emit)
	h.unsubscribeKey(key, "sid-1")

	_, keys, _ := h.Stats()
	assert.Equal(t, 0, keys)

	// Later publishes start a fresh backlog rather than reaching the
	// departed subscriber.
	h.Publish(ctx, ChannelSearch, "req-5", PushResults, "late")
	assert.Equal(t, 0, rec.count())
	_, _, backlogged := h.Stats()
	assert.Equal(t, 1, backlogged)
}

func TestSweepBacklogsDropsExpiredAndIdleKeys(t *testing.T) {
	h := newTestHub(t, nil)
	h.backlogTTL = 20 * time.Millisecond
	ctx := context.Background()

	h.Publish(ctx, ChannelSearch, "req-6", PushProgress, "old")
	h.Publish(ctx, ChannelSearch, "req-7", PushProgress, "old")
	time.Sleep(40 * time.Millisecond)

	dropped := h.SweepBacklogs()
	assert.Equal(t, 2, dropped)
	_, keys, backlogged := h.Stats()
	assert.Equal(t, 0, keys)
	assert.Equal(t, 0, backlogged)
}

func TestFanoutReachesOtherInstanceOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	open := func() *redis.Client {
		rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		return redis.NewFromClient(rdb)
	}

	hubA := newTestHub(t, open())
	hubB := newTestHub(t, open())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hubA.Run(ctx)
	go hubB.Run(ctx)

	localRec, remoteRec := &recorder{}, &recorder{}
	key := roomKey(ChannelSearch, "req-8")
	hubA.subscribeKey(key, "sid-a", localRec.emit)
	hubB.subscribeKey(key, "sid-b", remoteRec.emit)

	published := 0
	require.Eventually(t, func() bool {
		published++
		hubA.Publish(ctx, ChannelSearch, "req-8", PushProgress, "ping")
		return remoteRec.count() > 0
	}, 2*time.Second, 20*time.Millisecond)

	// The publishing instance must not double-deliver its own echo.
	assert.Equal(t, published, localRec.count())
}

func TestParseEnvelopeNormalizesLegacyShapes(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		ok        bool
		channel   string
		requestID string
		sessionID string
		typ       string
	}{
		{
			name: "canonical",
			input: map[string]any{
				"v": 1, "type": "subscribe", "channel": "search",
				"requestId": "req-1", "sessionId": "sess-1",
			},
			ok: true, channel: "search", requestID: "req-1", sessionID: "sess-1", typ: "subscribe",
		},
		{
			name:  "request id inside payload",
			input: map[string]any{"type": "subscribe", "payload": map[string]any{"request_id": "req-2"}},
			ok:    true, channel: "search", requestID: "req-2", typ: "subscribe",
		},
		{
			name:  "legacy reqId without version",
			input: map[string]any{"type": "Subscribe", "reqId": "req-3"},
			ok:    true, channel: "search", requestID: "req-3", typ: "subscribe",
		},
		{
			name:  "json string frame",
			input: `{"v":1,"type":"unsubscribe","channel":"assistant","payload":{"reqId":"req-4","sessionId":"sess-4"}}`,
			ok:    true, channel: "assistant", requestID: "req-4", sessionID: "sess-4", typ: "unsubscribe",
		},
		{
			name:  "unknown version refused",
			input: map[string]any{"v": 2, "type": "subscribe", "requestId": "req-5"},
			ok:    false,
		},
		{
			name:  "missing type refused",
			input: map[string]any{"v": 1, "requestId": "req-6"},
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ok := parseEnvelope(tt.input)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.channel, env.Channel)
			assert.Equal(t, tt.requestID, env.RequestID)
			assert.Equal(t, tt.sessionID, env.SessionID)
			assert.Equal(t, tt.typ, env.Type)
			assert.Equal(t, envelopeVersion, env.V)
		})
	}
}

func TestValidChannel(t *testing.T) {
	assert.True(t, validChannel(ChannelSearch))
	assert.True(t, validChannel(ChannelAssistant))
	assert.False(t, validChannel("admin"))
	assert.False(t, validChannel(""))
}
