package models

import "time"

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

var statusRank = map[MessageStatus]int{
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

func (s MessageStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// ForwardOf reports whether s is a strictly later delivery state than other.
// Transitions only ever move sent -> delivered -> read.
func (s MessageStatus) ForwardOf(other MessageStatus) bool {
	return statusRank[s] > statusRank[other]
}

type Conversation struct {
	ID           string       `json:"id"`
	Name         string       `json:"name,omitempty"`
	Participants []string     `json:"participants"`
	LastMessage  *LastMessage `json:"last_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, participant := range c.Participants {
		if participant == userID {
			return true
		}
	}
	return false
}

// LastMessage is the denormalized summary kept on the conversation row. It is
// a projection of the newest message, never the source of truth.
type LastMessage struct {
	Content  string    `json:"content"`
	SenderID string    `json:"sender_id"`
	SentAt   time.Time `json:"sent_at"`
}

type ConversationSummary struct {
	Conversation
	UnreadCount int `json:"unread_count"`
}

type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	SenderID       string        `json:"sender_id"`
	Content        string        `json:"content"`
	Seq            int64         `json:"seq"`
	Timestamp      time.Time     `json:"timestamp"`
	Status         MessageStatus `json:"status"`
	IsReadBy       []string      `json:"is_read_by"`
}

func (m *Message) ReadBy(userID string) bool {
	for _, reader := range m.IsReadBy {
		if reader == userID {
			return true
		}
	}
	return false
}

const lastMessageSnippetLen = 160

// Summary builds the conversation-level projection of this message. Content
// longer than the snippet length is truncated on a rune boundary.
func (m *Message) Summary() LastMessage {
	snippet := m.Content
	if runes := []rune(snippet); len(runes) > lastMessageSnippetLen {
		snippet = string(runes[:lastMessageSnippetLen])
	}
	return LastMessage{
		Content:  snippet,
		SenderID: m.SenderID,
		SentAt:   m.Timestamp,
	}
}

type PageInfo struct {
	Limit      int   `json:"limit"`
	NextCursor int64 `json:"next_cursor,omitempty"`
	HasMore    bool  `json:"has_more"`
}
