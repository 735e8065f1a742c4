package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/roomly-app/MessagingBack/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a conversation for the given participant set, or returns the
// existing one when a conversation with the exact same set already exists.
// Participants are expected to be normalized and sorted by the caller; the
// sorted set doubles as the conflict key.
func (r *ConversationRepository) Create(
	ctx context.Context,
	participants []string,
	name string,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (id, name, participants, participants_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (participants_key)
		DO UPDATE SET participants_key = conversations.participants_key
		RETURNING id, name, participants,
			last_message_content, last_message_sender, last_message_at,
			created_at
	`

	return scanConversation(r.db.QueryRow(
		ctx,
		query,
		uuid.NewString(),
		name,
		participants,
		strings.Join(participants, ","),
	))
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID string) (*models.Conversation, error) {
	query := `
		SELECT id, name, participants,
			last_message_content, last_message_sender, last_message_at,
			created_at
		FROM conversations
		WHERE id = $1
	`

	return scanConversation(r.db.QueryRow(ctx, query, conversationID))
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	userID string,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.name,
			c.participants,
			c.last_message_content,
			c.last_message_sender,
			c.last_message_at,
			c.created_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE conversation_id = c.id
			  AND sender_id <> $1
			  AND NOT ($1 = ANY(is_read_by))
		) uc ON TRUE
		WHERE $1 = ANY(c.participants)
		ORDER BY COALESCE(c.last_message_at, c.created_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var lastContent sql.NullString
		var lastSender sql.NullString
		var lastAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Participants,
			&lastContent,
			&lastSender,
			&lastAt,
			&summary.CreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if lastAt.Valid {
			summary.LastMessage = &models.LastMessage{
				Content:  lastContent.String,
				SenderID: lastSender.String,
				SentAt:   lastAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// SetLastMessage overwrites the denormalized last-message summary. Callers
// serialize invocations per conversation so summaries land in append order.
func (r *ConversationRepository) SetLastMessage(
	ctx context.Context,
	conversationID string,
	summary models.LastMessage,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_content = $2,
		    last_message_sender = $3,
		    last_message_at = $4
		WHERE id = $1
	`, conversationID, summary.Content, summary.SenderID, summary.SentAt)
	return err
}

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var conversation models.Conversation
	var lastContent sql.NullString
	var lastSender sql.NullString
	var lastAt sql.NullTime

	err := row.Scan(
		&conversation.ID,
		&conversation.Name,
		&conversation.Participants,
		&lastContent,
		&lastSender,
		&lastAt,
		&conversation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastAt.Valid {
		conversation.LastMessage = &models.LastMessage{
			Content:  lastContent.String,
			SenderID: lastSender.String,
			SentAt:   lastAt.Time,
		}
	}

	return &conversation, nil
}
