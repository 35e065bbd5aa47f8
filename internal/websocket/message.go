package websocket

import (
	"encoding/json"
	"time"

	"notes-server/internal/domain"
)

type MessageType string

const (
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"

	TypeNoteCreated = MessageType(domain.NoteCreated)
	TypeNoteUpdated = MessageType(domain.NoteUpdated)
	TypeNotePinned  = MessageType(domain.NotePinned)
	TypeNoteDeleted = MessageType(domain.NoteDeleted)
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NotePayload carries the note as it is after the change. For
// note_deleted only the id is set.
type NotePayload struct {
	NoteID string       `json:"noteId"`
	Note   *domain.Note `json:"note,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
