package chatws

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/roomly-app/MessagingBack/internal/models"
)

type EventType string

const (
	EventMessageCreated EventType = "message_created"
	EventStatusChanged  EventType = "status_changed"
)

// Event is the envelope pushed to room subscribers. The ULID id is sortable,
// so clients can detect replays across reconnects.
type Event struct {
	ID             string          `json:"event_id"`
	Type           EventType       `json:"type"`
	ConversationID string          `json:"conversation_id"`
	Message        *models.Message `json:"message,omitempty"`
	Status         *StatusChange   `json:"status,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

type StatusChange struct {
	MessageID string               `json:"message_id"`
	Status    models.MessageStatus `json:"status"`
	ReaderID  string               `json:"reader_id,omitempty"`
}

func NewMessageEvent(message *models.Message) *Event {
	return &Event{
		ID:             ulid.Make().String(),
		Type:           EventMessageCreated,
		ConversationID: message.ConversationID,
		Message:        message,
		Timestamp:      time.Now().UTC(),
	}
}

func NewStatusEvent(conversationID, messageID string, status models.MessageStatus, readerID string) *Event {
	return &Event{
		ID:             ulid.Make().String(),
		Type:           EventStatusChanged,
		ConversationID: conversationID,
		Status: &StatusChange{
			MessageID: messageID,
			Status:    status,
			ReaderID:  readerID,
		},
		Timestamp: time.Now().UTC(),
	}
}
