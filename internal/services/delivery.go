package services

import (
	"context"
	"sort"
	"strings"

	"github.com/roomly-app/MessagingBack/internal/metrics"
	"github.com/roomly-app/MessagingBack/internal/models"
	chatws "github.com/roomly-app/MessagingBack/internal/websocket"
)

// Delivery write paths. Each one follows the same two-phase contract: the
// durable write must succeed before any publish is attempted, and publish
// outcomes never affect the response. Persist and publish are serialized per
// conversation so the event order seen by subscribers equals commit order.

// SendMessage validates, appends the message, refreshes the conversation's
// last-message summary and fans the new message out to the room. A failed
// append leaves no partial effects. When a dedup token replays an earlier
// send, the stored row is returned and summary/publish are skipped (both
// already happened for the original).
func (s *ChatService) SendMessage(
	ctx context.Context,
	conversationID string,
	senderID string,
	content string,
	dedupToken string,
) (*models.Message, error) {
	if conversationID == "" {
		return nil, ErrInvalidInput
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidInput
	}
	senderID = normalizeUserID(senderID)

	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !conversation.HasParticipant(senderID) {
		return nil, ErrForbidden
	}

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	message, created, err := s.messages.Append(ctx, conversationID, senderID, content, strings.TrimSpace(dedupToken))
	if err != nil {
		return nil, storeErr(err)
	}
	if !created {
		return message, nil
	}
	metrics.MessagesPersisted.Inc()

	if err := s.conversations.SetLastMessage(ctx, conversationID, message.Summary()); err != nil {
		return nil, storeErr(err)
	}

	s.hub.Publish(conversationID, chatws.NewMessageEvent(message))
	return message, nil
}

// UpdateMessageStatus moves a message forward along sent -> delivered -> read.
// Regressions and repeats return the current record unchanged. A sender
// cannot read-acknowledge its own message; that too is a no-op. Only an
// actual change is published.
func (s *ChatService) UpdateMessageStatus(
	ctx context.Context,
	messageID string,
	status models.MessageStatus,
	readerID string,
) (*models.Message, error) {
	if messageID == "" || !status.Valid() {
		return nil, ErrInvalidInput
	}
	readerID = normalizeUserID(readerID)

	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, storeErr(err)
	}
	conversation, err := s.conversations.GetByID(ctx, message.ConversationID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !conversation.HasParticipant(readerID) {
		return nil, ErrForbidden
	}
	if status == models.StatusRead && readerID == message.SenderID {
		return message, nil
	}

	unlock := s.locks.Lock(message.ConversationID)
	defer unlock()

	updated, changed, err := s.messages.UpdateStatus(ctx, messageID, status, readerID)
	if err != nil {
		return nil, storeErr(err)
	}
	if changed {
		metrics.StatusUpdates.Inc()
		s.hub.Publish(updated.ConversationID, chatws.NewStatusEvent(updated.ConversationID, updated.ID, updated.Status, readerID))
	}

	return updated, nil
}

// MarkConversationRead read-acknowledges everything the caller has not
// authored or read yet, then publishes one status event per affected message
// in log order. Returns the number of messages updated.
func (s *ChatService) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int, error) {
	readerID = normalizeUserID(readerID)
	if _, err := s.GetConversation(ctx, conversationID, readerID); err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	affected, err := s.messages.MarkConversationRead(ctx, conversationID, readerID)
	if err != nil {
		return 0, storeErr(err)
	}

	sort.Slice(affected, func(i, j int) bool { return affected[i].Seq < affected[j].Seq })
	for i := range affected {
		metrics.StatusUpdates.Inc()
		s.hub.Publish(conversationID, chatws.NewStatusEvent(conversationID, affected[i].ID, affected[i].Status, readerID))
	}

	return len(affected), nil
}
