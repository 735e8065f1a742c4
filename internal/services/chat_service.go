package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/roomly-app/MessagingBack/internal/models"
	chatws "github.com/roomly-app/MessagingBack/internal/websocket"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("store unavailable")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type conversationStore interface {
	Create(ctx context.Context, participants []string, name string) (*models.Conversation, error)
	GetByID(ctx context.Context, conversationID string) (*models.Conversation, error)
	ListForParticipant(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	SetLastMessage(ctx context.Context, conversationID string, summary models.LastMessage) error
}

type messageStore interface {
	Append(ctx context.Context, conversationID, senderID, content, dedupToken string) (*models.Message, bool, error)
	GetByID(ctx context.Context, messageID string) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]models.Message, bool, error)
	UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus, readerID string) (*models.Message, bool, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string) ([]models.Message, error)
}

type eventPublisher interface {
	Publish(roomID string, event *chatws.Event)
}

// ChatService owns conversation and message access plus the delivery path
// that keeps the durable log and live subscribers consistent (delivery.go).
type ChatService struct {
	conversations conversationStore
	messages      messageStore
	hub           eventPublisher
	locks         *conversationLocks
	logger        zerolog.Logger
}

func NewChatService(
	conversations conversationStore,
	messages messageStore,
	hub eventPublisher,
	logger zerolog.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		hub:           hub,
		locks:         newConversationLocks(),
		logger:        logger.With().Str("component", "chat").Logger(),
	}
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	userID = normalizeUserID(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	summaries, err := s.conversations.ListForParticipant(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return summaries, nil
}

func (s *ChatService) GetConversation(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !conversation.HasParticipant(normalizeUserID(userID)) {
		return nil, ErrForbidden
	}
	return conversation, nil
}

// CreateConversation registers a conversation for the given participant set,
// reusing an existing one when the set matches. The creator must be part of
// the set. An optional first message runs through the full delivery path.
func (s *ChatService) CreateConversation(
	ctx context.Context,
	actorID string,
	participants []string,
	name string,
	initialMessage string,
) (*models.Conversation, error) {
	normalized, err := normalizeParticipants(participants)
	if err != nil {
		return nil, err
	}

	actorID = normalizeUserID(actorID)
	if !containsString(normalized, actorID) {
		return nil, ErrForbidden
	}

	conversation, err := s.conversations.Create(ctx, normalized, strings.TrimSpace(name))
	if err != nil {
		return nil, storeErr(err)
	}

	if strings.TrimSpace(initialMessage) != "" {
		message, err := s.SendMessage(ctx, conversation.ID, actorID, initialMessage, "")
		if err != nil {
			return nil, err
		}
		summary := message.Summary()
		conversation.LastMessage = &summary
	}

	return conversation, nil
}

func (s *ChatService) ListMessages(
	ctx context.Context,
	userID string,
	conversationID string,
	afterSeq int64,
	limit int,
) ([]models.Message, bool, error) {
	if limit <= 0 || afterSeq < 0 {
		return nil, false, ErrInvalidInput
	}
	if _, err := s.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, false, err
	}

	messages, hasMore, err := s.messages.ListByConversation(ctx, conversationID, afterSeq, limit)
	if err != nil {
		return nil, false, storeErr(err)
	}
	return messages, hasMore, nil
}

func normalizeUserID(userID string) string {
	return strings.ToLower(strings.TrimSpace(userID))
}

// normalizeParticipants lowercases, validates and sorts the participant set.
// Duplicates after normalization are rejected rather than collapsed.
func normalizeParticipants(participants []string) ([]string, error) {
	if len(participants) == 0 {
		return nil, ErrInvalidInput
	}

	normalized := make([]string, 0, len(participants))
	seen := make(map[string]struct{}, len(participants))
	for _, participant := range participants {
		participant = normalizeUserID(participant)
		if !emailPattern.MatchString(participant) {
			return nil, ErrInvalidInput
		}
		if _, dup := seen[participant]; dup {
			return nil, ErrInvalidInput
		}
		seen[participant] = struct{}{}
		normalized = append(normalized, participant)
	}

	sort.Strings(normalized)
	return normalized, nil
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

// storeErr translates persistence failures into the service taxonomy: missing
// rows become ErrNotFound, connectivity problems become the retryable
// ErrUnavailable, anything else passes through for the generic 500 path.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case isConnectivityErr(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}

func isConnectivityErr(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
