package gateway

import (
	"encoding/json"
	"strings"
)

// parseEnvelope decodes one inbound frame into the canonical envelope.
// Clients historically sent the request id at the top level, inside a
// payload object, or as reqId; all of those normalize to RequestID. A
// missing version or channel reads as v1 on the search channel.
func parseEnvelope(args ...any) (clientEnvelope, bool) {
	if len(args) == 0 || args[0] == nil {
		return clientEnvelope{}, false
	}

	raw, ok := rawMap(args[0])
	if !ok {
		return clientEnvelope{}, false
	}
	payload := mapFromAny(raw["payload"])

	env := clientEnvelope{
		V:       intFromAny(raw["v"], envelopeVersion),
		Type:    strings.ToLower(strFromAny(raw["type"])),
		Channel: strings.ToLower(strFromAny(raw["channel"])),
		RequestID: firstNonEmptyString(
			strFromAny(raw["requestId"]),
			strFromAny(raw["request_id"]),
			strFromAny(raw["reqId"]),
			strFromAny(payload["requestId"]),
			strFromAny(payload["request_id"]),
			strFromAny(payload["reqId"]),
		),
		SessionID: firstNonEmptyString(
			strFromAny(raw["sessionId"]),
			strFromAny(raw["session_id"]),
			strFromAny(payload["sessionId"]),
			strFromAny(payload["session_id"]),
		),
	}
	if env.Channel == "" {
		env.Channel = ChannelSearch
	}
	if env.V != envelopeVersion || env.Type == "" {
		return clientEnvelope{}, false
	}
	return env, true
}

func validChannel(channel string) bool {
	return channel == ChannelSearch || channel == ChannelAssistant
}

func rawMap(v any) (map[string]interface{}, bool) {
	switch typed := v.(type) {
	case map[string]interface{}:
		return typed, true
	case string:
		out := map[string]interface{}{}
		if err := json.Unmarshal([]byte(typed), &out); err != nil {
			return nil, false
		}
		return out, true
	case []byte:
		out := map[string]interface{}{}
		if err := json.Unmarshal(typed, &out); err != nil {
			return nil, false
		}
		return out, true
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return nil, false
		}
		out := map[string]interface{}{}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, false
		}
		return out, true
	}
}

func mapFromAny(v interface{}) map[string]interface{} {
	switch typed := v.(type) {
	case nil:
		return map[string]interface{}{}
	case map[string]interface{}:
		return typed
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return map[string]interface{}{}
		}
		out := map[string]interface{}{}
		if err := json.Unmarshal(data, &out); err != nil {
			return map[string]interface{}{}
		}
		return out
	}
}

func strFromAny(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func intFromAny(v interface{}, fallback int) int {
	switch typed := v.(type) {
	case nil:
		return fallback
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return int(n)
		}
	case string:
		s := strings.TrimSpace(typed)
		if s == "" {
			return fallback
		}
		var n int
		if err := json.Unmarshal([]byte(s), &n); err == nil {
			return n
		}
	}
	return fallback
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
