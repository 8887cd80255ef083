// Package gateway is the push side of async search: a socket.io server
// where clients subscribe to (channel, requestId) keys and receive
// progress and terminal results. Messages published while nobody
// listens wait in a bounded per-key backlog and are drained, in order,
// when the subscriber arrives. A Redis pub/sub channel fans published
// messages out to the other instances.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/pkg/redis"
)

// NewHub wires the socket.io server and namespaces. rc may be nil for
// single-instance deployments; fan-out is skipped then. validateTicket
// guards push subscriptions, validateDebug guards the log stream.
func NewHub(cfg *config.AppConfig, rc *redis.Client, logger *zap.Logger, validateTicket TicketValidator, validateDebug func(string) bool) *Hub {
	h := &Hub{
		rooms:          make(map[string]*room),
		logSubs:        make(map[string]debugLogSubscription),
		rc:             rc,
		logger:         logger.Named("gateway"),
		sio:            socketio.NewServer(nil, nil),
		origin:         uuid.NewString(),
		validateTicket: validateTicket,
		validateDebug:  validateDebug,
		backlogSize:    cfg.Gateway.BacklogSize,
		backlogTTL:     time.Duration(cfg.Gateway.BacklogTTLSeconds) * time.Second,
	}
	h.registerNamespaces()
	return h
}

// Run blocks until ctx is done, relaying fan-out frames from the other
// instances meanwhile.
func (h *Hub) Run(ctx context.Context) {
	if h.rc != nil {
		go h.subscribeRedis(ctx)
	}
	<-ctx.Done()
	h.sio.Close(nil)
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}

// Publish delivers one message to local subscribers of the key and
// fans it out to the other instances. Without a subscriber anywhere
// the message waits in each instance's backlog so whichever instance
// the client reaches can replay it.
func (h *Hub) Publish(ctx context.Context, channel, requestID, typ string, data interface{}) {
	msg := PushMessage{Channel: channel, RequestID: requestID, Type: typ, Data: data}
	h.deliver(msg)
	if h.rc == nil {
		return
	}
	frame, err := json.Marshal(fanoutFrame{Origin: h.origin, Message: msg})
	if err != nil {
		h.logger.Warn("push marshal failed", zap.String("channel", channel), zap.Error(err))
		return
	}
	if err := h.rc.Publish(ctx, redisChanPush, string(frame)); err != nil {
		h.logger.Warn("push fanout failed", zap.String("channel", channel), zap.Error(err))
	}
}

func (h *Hub) deliver(msg PushMessage) {
	r := h.room(roomKey(msg.Channel, msg.RequestID), true)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.subs) > 0 {
		for _, emit := range r.subs {
			emit(msg)
		}
		return
	}
	r.dropExpired(now, h.backlogTTL)
	r.backlog = append(r.backlog, backlogEntry{msg: msg, at: now})
	if over := len(r.backlog) - h.backlogSize; over > 0 {
		r.backlog = append(r.backlog[:0], r.backlog[over:]...)
	}
}

// subscribeKey drains the key's backlog to emit and registers it for
// live delivery, all under the room lock so no publish can slip
// between the two. Returns the number of drained messages.
func (h *Hub) subscribeKey(key, sid string, emit func(PushMessage)) int {
	r := h.room(key, true)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropExpired(time.Now(), h.backlogTTL)
	drained := len(r.backlog)
	for _, e := range r.backlog {
		emit(e.msg)
	}
	r.backlog = nil
	if r.subs == nil {
		r.subs = make(map[string]func(PushMessage))
	}
	r.subs[sid] = emit
	return drained
}

func (h *Hub) unsubscribeKey(key, sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[key]
	if !ok {
		return
	}
	r.mu.Lock()
	delete(r.subs, sid)
	empty := len(r.subs) == 0 && len(r.backlog) == 0
	r.mu.Unlock()
	if empty {
		delete(h.rooms, key)
	}
}

// SweepBacklogs drops expired backlog entries and forgets idle keys.
// Returns how many messages were discarded.
func (h *Hub) SweepBacklogs() int {
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()
	dropped := 0
	for key, r := range h.rooms {
		r.mu.Lock()
		before := len(r.backlog)
		r.dropExpired(now, h.backlogTTL)
		dropped += before - len(r.backlog)
		empty := len(r.subs) == 0 && len(r.backlog) == 0
		r.mu.Unlock()
		if empty {
			delete(h.rooms, key)
		}
	}
	return dropped
}

// Stats reports live subscriber registrations, tracked keys, and
// backlogged message count.
func (h *Hub) Stats() (subscribers, keys, backlogged int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range h.rooms {
		r.mu.Lock()
		subscribers += len(r.subs)
		backlogged += len(r.backlog)
		r.mu.Unlock()
	}
	return subscribers, len(h.rooms), backlogged
}

func (h *Hub) room(key string, create bool) *room {
	h.mu.RLock()
	r, ok := h.rooms[key]
	h.mu.RUnlock()
	if ok || !create {
		return r
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[key]; ok {
		return r
	}
	r = &room{subs: make(map[string]func(PushMessage))}
	h.rooms[key] = r
	return r
}

func roomKey(channel, requestID string) string {
	return channel + "/" + requestID
}

// dropExpired removes the expired prefix; entries are appended in time
// order so a prefix scan suffices. Caller holds r.mu.
func (r *room) dropExpired(now time.Time, ttl time.Duration) {
	cut := 0
	for cut < len(r.backlog) && now.Sub(r.backlog[cut].at) > ttl {
		cut++
	}
	if cut > 0 {
		r.backlog = append(r.backlog[:0], r.backlog[cut:]...)
	}
}

// subscribeRedis applies fan-out frames from the other instances.
// Frames this instance published are skipped by origin.
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChanPush)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			var frame fanoutFrame
			if err := json.Unmarshal([]byte(redisMsg.Payload), &frame); err != nil {
				continue
			}
			if frame.Origin == h.origin {
				continue
			}
			h.deliver(frame.Message)
		}
	}
}
