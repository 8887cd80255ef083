package gateway

import (
	"strings"
	"sync"

	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

func (h *Hub) registerNamespaces() {
	searchNS := h.sio.Of(namespaceSearch, nil)
	_ = searchNS.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		h.handleSearchConnection(client)
	})

	debugNS := h.sio.Of(namespaceDebug, nil)
	_ = debugNS.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		h.handleDebugConnection(client)
	})
}

func (h *Hub) handleSearchConnection(client *socketio.Socket) {
	ticket := normalizeToken(extractTicket(client))
	sessionID, ok := "", false
	if ticket != "" && h.validateTicket != nil {
		sessionID, ok = h.validateTicket(ticket)
	}
	if !ok {
		_ = client.Emit("message", PushMessage{Type: typeUnauthorized, Data: "subscription requires a valid ticket"})
		client.Disconnect(true)
		return
	}

	sid := string(client.Id())
	emit := func(msg PushMessage) {
		_ = client.Emit("message", msg)
	}

	var joinedMu sync.Mutex
	joined := make(map[string]struct{})

	_ = client.Emit("message", PushMessage{
		Type: typeConnected,
		Data: map[string]interface{}{"sessionId": sessionID},
	})

	_ = client.On("message", func(eventArgs ...any) {
		env, ok := parseEnvelope(eventArgs...)
		if !ok {
			_ = client.Emit("message", PushMessage{Type: typeBadEnvelope})
			return
		}

		switch env.Type {
		case messageSubscribe:
			if !validChannel(env.Channel) || env.RequestID == "" {
				_ = client.Emit("message", PushMessage{
					Channel: env.Channel,
					Type:    typeBadEnvelope,
					Data:    "subscribe needs a known channel and a requestId",
				})
				return
			}
			key := roomKey(env.Channel, env.RequestID)
			joinedMu.Lock()
			_, already := joined[key]
			joined[key] = struct{}{}
			joinedMu.Unlock()
			if already {
				return
			}
			drained := h.subscribeKey(key, sid, emit)
			h.logger.Debug("push subscribe",
				zap.String("channel", env.Channel),
				zap.String("requestId", env.RequestID),
				zap.String("sessionId", sessionID),
				zap.Int("drained", drained),
			)

		case messageUnsubscribe:
			if env.RequestID == "" {
				return
			}
			key := roomKey(env.Channel, env.RequestID)
			joinedMu.Lock()
			delete(joined, key)
			joinedMu.Unlock()
			h.unsubscribeKey(key, sid)

		case messageEvent:
			// client-side telemetry frame, nothing to do server-side
		}
	})

	_ = client.On("disconnect", func(_ ...any) {
		joinedMu.Lock()
		keys := make([]string, 0, len(joined))
		for k := range joined {
			keys = append(keys, k)
		}
		joined = make(map[string]struct{})
		joinedMu.Unlock()
		for _, k := range keys {
			h.unsubscribeKey(k, sid)
		}
	})
}

func (h *Hub) handleDebugConnection(client *socketio.Socket) {
	token := normalizeToken(extractToken(client))
	if token == "" || h.validateDebug == nil || !h.validateDebug(token) {
		_ = client.Emit("message", PushMessage{Type: typeUnauthorized, Data: "log stream requires authentication"})
		client.Disconnect(true)
		return
	}

	sid := string(client.Id())
	_ = client.Emit("message", PushMessage{Type: typeConnected})

	_ = client.On("log", func(eventArgs ...any) {
		h.subscribeStdout(client, parsePrevLogOption(eventArgs))
	})
	_ = client.On("unlog", func(_ ...any) {
		h.unsubscribeStdout(sid)
	})
	_ = client.On("disconnect", func(_ ...any) {
		h.unsubscribeStdout(sid)
	})
}

func extractTicket(client *socketio.Socket) string {
	handshake := client.Handshake()
	if handshake == nil {
		return ""
	}
	if v := firstValueFromMultiMap(handshake.Query, "ticket"); v != "" {
		return v
	}
	if v := firstValueFromMultiMap(handshake.Headers, "authorization"); v != "" {
		return v
	}
	// pre-envelope clients sent the ticket as token
	return firstValueFromMultiMap(handshake.Query, "token")
}

func extractToken(client *socketio.Socket) string {
	handshake := client.Handshake()
	if handshake == nil {
		return ""
	}
	if v := firstValueFromMultiMap(handshake.Query, "token"); v != "" {
		return v
	}
	return firstValueFromMultiMap(handshake.Headers, "authorization")
}

func firstValueFromMultiMap(values map[string][]string, key string) string {
	for k, list := range values {
		if !strings.EqualFold(strings.TrimSpace(k), key) || len(list) == 0 {
			continue
		}
		if v := strings.TrimSpace(list[0]); v != "" {
			return v
		}
	}
	return ""
}

func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
