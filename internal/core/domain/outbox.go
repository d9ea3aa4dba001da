package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outbox event types.
const (
	EventAdModerated = "ad.moderated"
)

// OutboxEvent is a domain event recorded alongside the change it describes
// and relayed to the broker after commit.
type OutboxEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewOutboxEvent encodes v as the payload of an event of the given type.
func NewOutboxEvent(eventType string, v any) (*OutboxEvent, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", eventType, err)
	}
	return &OutboxEvent{Type: eventType, Payload: payload}, nil
}
