package gateway

import (
	"sync"
	"time"

	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/pkg/redis"
)

const (
	ChannelSearch    = "search"
	ChannelAssistant = "assistant"

	namespaceSearch = "/search"
	namespaceDebug  = "/debug"

	envelopeVersion = 1

	messageSubscribe   = "subscribe"
	messageUnsubscribe = "unsubscribe"
	messageEvent       = "event"

	// Server-side message types on a channel.
	PushResults  = "results"
	PushProgress = "progress"
	PushError    = "error"

	// Control frames outside any channel.
	typeConnected    = "connected"
	typeUnauthorized = "unauthorized"
	typeBadEnvelope  = "bad_envelope"
	typeStdout       = "stdout"

	debugLogSnapshotChunkSize = 32 * 1024
)

// redisChanPush carries cross-instance fan-out frames.
var redisChanPush = redis.Key("gateway", "push")

// PushMessage is the server-to-client envelope. Channel messages carry
// channel + requestId + one of the Push* types; control frames (connect
// ack, refusals) have an empty channel.
type PushMessage struct {
	Channel   string      `json:"channel,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
}

// clientEnvelope is the canonical client frame after legacy-shape
// normalization.
type clientEnvelope struct {
	V         int
	Type      string
	Channel   string
	RequestID string
	SessionID string
}

type backlogEntry struct {
	msg PushMessage
	at  time.Time
}

// room tracks one (channel, requestId) key: live subscriber emit
// functions keyed by socket id, plus the bounded backlog used while
// nobody is listening. All access goes through its own mutex so keys
// never contend with each other.
type room struct {
	mu      sync.Mutex
	subs    map[string]func(PushMessage)
	backlog []backlogEntry
}

type fanoutFrame struct {
	Origin  string      `json:"origin"`
	Message PushMessage `json:"message"`
}

type debugLogSubscription struct {
	streamID int
	stopCh   chan struct{}
}

// TicketValidator checks a push subscription ticket and returns the
// session id it was issued for.
type TicketValidator func(token string) (sessionID string, ok bool)

// Hub owns the socket.io server, the per-key rooms and the Redis
// fan-out that links instances.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room

	logSubMu sync.Mutex
	logSubs  map[string]debugLogSubscription

	rc     *redis.Client
	logger *zap.Logger
	sio    *socketio.Server

	// origin tags fan-out frames so an instance skips its own echo.
	origin string

	validateTicket TicketValidator
	validateDebug  func(string) bool
	backlogSize    int
	backlogTTL     time.Duration
}
