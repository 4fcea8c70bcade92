package models

import (
	"encoding/json"
	"time"
)

// Wire event names, client and server side.
const (
	EventJoinRoom   = "join-room"
	EventMessage    = "message"
	EventImage      = "image"
	EventAuth       = "auth"
	EventUserJoined = "user-joined"
	EventUserLeft   = "user-left"
	EventHistory    = "history"
)

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
)

// Envelope is the framing for every websocket exchange:
// {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into a ready-to-send envelope.
func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// Message is a routed chat event after the server has stamped it. The kind
// decides the wire event name; Buffer is only set for images. Sender and
// UserID always come from the verified session, never from the inbound
// payload.
type Message struct {
	Kind   MessageKind `json:"-"`
	Room   string      `json:"room"`
	Sender string      `json:"sender"`
	UserID string      `json:"userId"`
	Text   string      `json:"text,omitempty"`
	Buffer []byte      `json:"buffer,omitempty"`
	Date   time.Time   `json:"date"`
}

// Event maps the message kind to its broadcast event name.
func (m *Message) Event() string {
	if m.Kind == KindImage {
		return EventImage
	}
	return EventMessage
}

// JoinRequest is the payload of a join-room event.
type JoinRequest struct {
	Room string `json:"room"`
}

// ChatPayload is the client side of message/image events. Room, sender and
// userId fields sent by clients are accepted on the wire but ignored.
type ChatPayload struct {
	Room   string `json:"room,omitempty"`
	Text   string `json:"text,omitempty"`
	Buffer []byte `json:"buffer,omitempty"`
	Sender string `json:"sender,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// AuthPayload is sent privately to a connection right after it joins a room.
type AuthPayload struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// HistoryPayload carries the full ordered room log to a new joiner.
type HistoryPayload struct {
	Messages []HistoryEntry `json:"messages"`
}

// HistoryEntry is a stored message plus its kind, so clients can render
// replayed images and texts the same way as live ones. Live events carry
// the kind in the envelope's event name, so Message excludes it from JSON;
// the Kind here deliberately shadows the embedded Message.Kind to put it
// back on the wire for replay entries. Both fields are kept in sync by
// HistoryCache.Append.
type HistoryEntry struct {
	Message
	Kind MessageKind `json:"kind"`
}
