package models

import "time"

// AnalyticsEvent is one client-side event captured in the bounded ring.
type AnalyticsEvent struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"sessionId,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	IP        string                 `json:"ip,omitempty"`
	UA        string                 `json:"ua,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
