package amqp

import (
	"encoding/json"
	"time"
)

const (
	TypeLedgerUpdated = "ledger_updated"
	TypeManualReview  = "manual_review"
)

// Message is the envelope published to the notification queue. Type
// discriminates the payload fields in use.
type Message struct {
	Type      string    `json:"type"`
	Inserted  int       `json:"inserted,omitempty"`
	Skipped   int       `json:"skipped,omitempty"`
	RawText   string    `json:"raw_text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerUpdated builds a notification that new ledger data arrived.
func NewLedgerUpdated(inserted, skipped int) *Message {
	return &Message{
		Type:      TypeLedgerUpdated,
		Inserted:  inserted,
		Skipped:   skipped,
		Timestamp: time.Now(),
	}
}

// NewManualReview builds an escalation carrying the raw statement text
// that no parser strategy could handle.
func NewManualReview(raw string) *Message {
	return &Message{
		Type:      TypeManualReview,
		RawText:   raw,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes a message from JSON bytes.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
