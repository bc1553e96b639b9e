package model

import (
	"time"
)

// Direction indicates whether a message was received or produced.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// DeliveryStatus records whether an outgoing message reached the transport.
type DeliveryStatus string

const (
	// DeliverySent means the transport accepted the message.
	DeliverySent DeliveryStatus = "sent"
	// DeliveryHeld means the message is recorded but awaiting human approval
	// or a send retry; it was not dispatched.
	DeliveryHeld DeliveryStatus = "held"
)

// Message is one entry in a conversation history. Immutable once appended.
type Message struct {
	ID        string    `json:"id"`
	Direction Direction `json:"direction"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Delivery is set on outgoing messages only.
	Delivery DeliveryStatus `json:"delivery,omitempty"`

	// Metadata carries transport-specific fields (sender address, subject,
	// raw message id). Used for de-duplication and reply addressing.
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (m Message) clone() Message {
	cp := m
	if m.Metadata != nil {
		cp.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			cp.Metadata[k] = v
		}
	}
	return cp
}

// Metadata keys populated by the intake path.
const (
	MetaSender    = "sender"
	MetaSubject   = "subject"
	MetaMessageID = "message_id"
)
