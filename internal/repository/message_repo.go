package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/roomly-app/MessagingBack/internal/models"
)

const messageColumns = `id, conversation_id, sender_id, content, seq, sent_at, status, is_read_by`

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append inserts a message with a store-assigned sequence number and
// timestamp. With a dedup token, a retry of an already-stored message returns
// the original row and created == false.
func (r *MessageRepository) Append(
	ctx context.Context,
	conversationID string,
	senderID string,
	content string,
	dedupToken string,
) (*models.Message, bool, error) {
	if dedupToken == "" {
		query := `
			INSERT INTO messages (id, conversation_id, sender_id, content)
			VALUES ($1, $2, $3, $4)
			RETURNING ` + messageColumns

		message, err := scanMessage(r.db.QueryRow(ctx, query, uuid.NewString(), conversationID, senderID, content))
		if err != nil {
			return nil, false, err
		}
		return message, true, nil
	}

	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, dedup_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (conversation_id, sender_id, dedup_token) WHERE dedup_token IS NOT NULL
		DO NOTHING
		RETURNING ` + messageColumns

	message, err := scanMessage(r.db.QueryRow(ctx, query, uuid.NewString(), conversationID, senderID, content, dedupToken))
	if err == nil {
		return message, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Conflict: the token was already used, fetch the original row.
	existing := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1 AND sender_id = $2 AND dedup_token = $3
	`
	message, err = scanMessage(r.db.QueryRow(ctx, existing, conversationID, senderID, dedupToken))
	if err != nil {
		return nil, false, err
	}
	return message, false, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, messageID string) (*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE id = $1
	`
	return scanMessage(r.db.QueryRow(ctx, query, messageID))
}

// ListByConversation returns messages in (sent_at, seq) ascending order,
// starting after the given sequence cursor. The extra row probes for more.
func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID string,
	afterSeq int64,
	limit int,
) ([]models.Message, bool, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1 AND seq > $2
		ORDER BY sent_at ASC, seq ASC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, conversationID, afterSeq, limit+1)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0, limit)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.Content,
			&message.Seq,
			&message.Timestamp,
			&message.Status,
			&message.IsReadBy,
		); err != nil {
			return nil, false, err
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	return messages, hasMore, nil
}

// UpdateStatus applies a forward-only status transition and, for read, grows
// the reader set. The update matches zero rows when nothing would change, in
// which case the current row is returned with changed == false. Regressions
// and repeats are therefore no-ops, never errors.
func (r *MessageRepository) UpdateStatus(
	ctx context.Context,
	messageID string,
	status models.MessageStatus,
	readerID string,
) (*models.Message, bool, error) {
	query := `
		UPDATE messages SET
			status = CASE
				WHEN (CASE $2::text WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 WHEN 'read' THEN 3 ELSE 0 END) >
				     (CASE status WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 WHEN 'read' THEN 3 ELSE 0 END)
				THEN $2 ELSE status END,
			is_read_by = CASE
				WHEN $2 = 'read' AND $3 <> sender_id AND NOT ($3 = ANY(is_read_by))
				THEN array_append(is_read_by, $3::text) ELSE is_read_by END
		WHERE id = $1
		  AND (
			(CASE $2::text WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 WHEN 'read' THEN 3 ELSE 0 END) >
			(CASE status WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 WHEN 'read' THEN 3 ELSE 0 END)
			OR ($2 = 'read' AND $3 <> sender_id AND NOT ($3 = ANY(is_read_by)))
		  )
		RETURNING ` + messageColumns

	message, err := scanMessage(r.db.QueryRow(ctx, query, messageID, string(status), readerID))
	if err == nil {
		return message, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	current, err := r.GetByID(ctx, messageID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// MarkConversationRead read-acknowledges every message the reader has not
// authored and not yet read. Returns the affected rows in log order.
func (r *MessageRepository) MarkConversationRead(
	ctx context.Context,
	conversationID string,
	readerID string,
) ([]models.Message, error) {
	query := `
		UPDATE messages SET
			status = 'read',
			is_read_by = array_append(is_read_by, $2::text)
		WHERE conversation_id = $1
		  AND sender_id <> $2
		  AND NOT ($2 = ANY(is_read_by))
		RETURNING ` + messageColumns

	rows, err := r.db.Query(ctx, query, conversationID, readerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	affected := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.Content,
			&message.Seq,
			&message.Timestamp,
			&message.Status,
			&message.IsReadBy,
		); err != nil {
			return nil, err
		}
		affected = append(affected, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return affected, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var message models.Message
	err := row.Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.Content,
		&message.Seq,
		&message.Timestamp,
		&message.Status,
		&message.IsReadBy,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}
