package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened to a bill.
type EventType string

const (
	EventBillUpserted EventType = "bill.upserted"
	EventBillDeleted  EventType = "bill.deleted"
	EventBillReminder EventType = "bill.reminder"
)

// Message is the body of every bill event. It carries only the bill id, the
// worker loads the current bill from storage.
type Message struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	BillID    int64     `json:"bill_id"`
	DueDate   string    `json:"due_date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh id and the current time.
func NewMessage(typ EventType, billID int64) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Type:      typ,
		BillID:    billID,
		Timestamp: time.Now().UTC(),
	}
}

// NewReminderMessage creates a bill.reminder message for a bill due on dueDate.
func NewReminderMessage(billID int64, dueDate string) *Message {
	m := NewMessage(EventBillReminder, billID)
	m.DueDate = dueDate
	return m
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes and checks a message body.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventBillUpserted, EventBillDeleted, EventBillReminder:
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
	if msg.BillID <= 0 {
		return nil, fmt.Errorf("invalid bill id %d", msg.BillID)
	}
	return &msg, nil
}
