package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/roomly-app/MessagingBack/internal/models"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func testParticipants(t *testing.T) (string, string) {
	t.Helper()
	suffix := uuid.NewString()[:8]
	return "alice-" + suffix + "@example.com", "bob-" + suffix + "@example.com"
}

func cleanupConversation(t *testing.T, ctx context.Context, pool *pgxpool.Pool, conversationID string) {
	t.Helper()
	if _, err := pool.Exec(ctx, "DELETE FROM conversations WHERE id = $1", conversationID); err != nil {
		t.Errorf("cleanup conversation %s: %v", conversationID, err)
	}
}

func TestConversationCreateIsIdempotentPerParticipantSet(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	conversations := NewConversationRepository(pool)

	alice, bob := testParticipants(t)

	first, err := conversations.Create(ctx, []string{alice, bob}, "Flat viewing")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanupConversation(t, ctx, pool, first.ID) })

	second, err := conversations.Create(ctx, []string{alice, bob}, "different name")
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("same participant set produced two conversations: %s, %s", first.ID, second.ID)
	}
	if second.Name != "Flat viewing" {
		t.Errorf("existing conversation renamed on re-create: %q", second.Name)
	}

	fetched, err := conversations.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(fetched.Participants) != 2 {
		t.Errorf("unexpected participants: %v", fetched.Participants)
	}
}

func TestMessageAppendListAndPagination(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	conversations := NewConversationRepository(pool)
	messages := NewMessageRepository(pool)

	alice, bob := testParticipants(t)
	conversation, err := conversations.Create(ctx, []string{alice, bob}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanupConversation(t, ctx, pool, conversation.ID) })

	var seqs []int64
	for i := 0; i < 5; i++ {
		message, created, err := messages.Append(ctx, conversation.ID, alice, fmt.Sprintf("message %d", i), "")
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		if !created {
			t.Fatalf("Append %d reported existing row", i)
		}
		if message.Status != models.StatusSent {
			t.Fatalf("new message status %q, want sent", message.Status)
		}
		seqs = append(seqs, message.Seq)
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Fatalf("seq not increasing: %v", seqs)
		}
	}

	firstPage, hasMore, err := messages.ListByConversation(ctx, conversation.ID, 0, 3)
	if err != nil {
		t.Fatalf("ListByConversation: %v", err)
	}
	if len(firstPage) != 3 || !hasMore {
		t.Fatalf("got %d messages hasMore=%v, want 3 true", len(firstPage), hasMore)
	}
	if firstPage[0].Content != "message 0" {
		t.Errorf("history not oldest first: %q", firstPage[0].Content)
	}

	secondPage, hasMore, err := messages.ListByConversation(ctx, conversation.ID, firstPage[2].Seq, 3)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(secondPage) != 2 || hasMore {
		t.Fatalf("got %d messages hasMore=%v, want 2 false", len(secondPage), hasMore)
	}
	if secondPage[0].Content != "message 3" {
		t.Errorf("cursor did not resume after seq %d: %q", firstPage[2].Seq, secondPage[0].Content)
	}
}

func TestMessageAppendDeduplicatesByToken(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	conversations := NewConversationRepository(pool)
	messages := NewMessageRepository(pool)

	alice, bob := testParticipants(t)
	conversation, err := conversations.Create(ctx, []string{alice, bob}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanupConversation(t, ctx, pool, conversation.ID) })

	original, created, err := messages.Append(ctx, conversation.ID, alice, "hello", "client-token-1")
	if err != nil || !created {
		t.Fatalf("Append: created=%v err=%v", created, err)
	}

	replay, created, err := messages.Append(ctx, conversation.ID, alice, "hello again", "client-token-1")
	if err != nil {
		t.Fatalf("replay Append: %v", err)
	}
	if created {
		t.Fatalf("replay created a second row")
	}
	if replay.ID != original.ID || replay.Content != "hello" {
		t.Fatalf("replay returned %+v, want original row", replay)
	}

	// A different sender may reuse the token.
	other, created, err := messages.Append(ctx, conversation.ID, bob, "mine", "client-token-1")
	if err != nil || !created {
		t.Fatalf("other sender Append: created=%v err=%v", created, err)
	}
	if other.ID == original.ID {
		t.Fatalf("token collided across senders")
	}
}

func TestMessageStatusProgressionIsMonotonic(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	conversations := NewConversationRepository(pool)
	messages := NewMessageRepository(pool)

	alice, bob := testParticipants(t)
	conversation, err := conversations.Create(ctx, []string{alice, bob}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanupConversation(t, ctx, pool, conversation.ID) })

	message, _, err := messages.Append(ctx, conversation.ID, alice, "hello", "")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	delivered, changed, err := messages.UpdateStatus(ctx, message.ID, models.StatusDelivered, bob)
	if err != nil {
		t.Fatalf("UpdateStatus delivered: %v", err)
	}
	if !changed || delivered.Status != models.StatusDelivered {
		t.Fatalf("expected delivered change, got changed=%v status=%q", changed, delivered.Status)
	}

	read, changed, err := messages.UpdateStatus(ctx, message.ID, models.StatusRead, bob)
	if err != nil {
		t.Fatalf("UpdateStatus read: %v", err)
	}
	if !changed || read.Status != models.StatusRead {
		t.Fatalf("expected read change, got changed=%v status=%q", changed, read.Status)
	}
	if !read.ReadBy(bob) {
		t.Errorf("reader missing from is_read_by: %v", read.IsReadBy)
	}

	// Regression attempt leaves the row untouched.
	current, changed, err := messages.UpdateStatus(ctx, message.ID, models.StatusDelivered, bob)
	if err != nil {
		t.Fatalf("UpdateStatus regression: %v", err)
	}
	if changed || current.Status != models.StatusRead {
		t.Fatalf("regression applied: changed=%v status=%q", changed, current.Status)
	}

	// Repeating the same status is a no-op too.
	repeat, changed, err := messages.UpdateStatus(ctx, message.ID, models.StatusRead, bob)
	if err != nil {
		t.Fatalf("UpdateStatus repeat: %v", err)
	}
	if changed {
		t.Fatalf("repeat reported a change: %+v", repeat)
	}
}

func TestMarkConversationReadUpdatesOnlyForeignUnread(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	conversations := NewConversationRepository(pool)
	messages := NewMessageRepository(pool)

	alice, bob := testParticipants(t)
	conversation, err := conversations.Create(ctx, []string{alice, bob}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanupConversation(t, ctx, pool, conversation.ID) })

	if _, _, err := messages.Append(ctx, conversation.ID, alice, "from alice 1", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, _, err := messages.Append(ctx, conversation.ID, alice, "from alice 2", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, _, err := messages.Append(ctx, conversation.ID, bob, "from bob", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}

	affected, err := messages.MarkConversationRead(ctx, conversation.ID, bob)
	if err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	if len(affected) != 2 {
		t.Fatalf("got %d affected, want 2 (bob's own message excluded)", len(affected))
	}
	for _, message := range affected {
		if message.Status != models.StatusRead || !message.ReadBy(bob) {
			t.Errorf("message %s not marked read for bob: %+v", message.ID, message)
		}
		if message.SenderID != alice {
			t.Errorf("bob's own message was affected: %+v", message)
		}
	}

	// A second pass has nothing left to do.
	again, err := messages.MarkConversationRead(ctx, conversation.ID, bob)
	if err != nil {
		t.Fatalf("second MarkConversationRead: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second pass affected %d messages", len(again))
	}
}

func TestListForParticipantOrdersByActivityAndCountsUnread(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	conversations := NewConversationRepository(pool)
	messages := NewMessageRepository(pool)

	alice, bob := testParticipants(t)
	carol := "carol-" + uuid.NewString()[:8] + "@example.com"

	older, err := conversations.Create(ctx, []string{alice, bob}, "")
	if err != nil {
		t.Fatalf("Create older: %v", err)
	}
	t.Cleanup(func() { cleanupConversation(t, ctx, pool, older.ID) })

	newer, err := conversations.Create(ctx, []string{alice, carol}, "")
	if err != nil {
		t.Fatalf("Create newer: %v", err)
	}
	t.Cleanup(func() { cleanupConversation(t, ctx, pool, newer.ID) })

	oldMessage, _, err := messages.Append(ctx, older.ID, bob, "old news", "")
	if err != nil {
		t.Fatalf("Append older: %v", err)
	}
	if err := conversations.SetLastMessage(ctx, older.ID, oldMessage.Summary()); err != nil {
		t.Fatalf("SetLastMessage older: %v", err)
	}

	newMessage, _, err := messages.Append(ctx, newer.ID, carol, "fresh", "")
	if err != nil {
		t.Fatalf("Append newer: %v", err)
	}
	if err := conversations.SetLastMessage(ctx, newer.ID, newMessage.Summary()); err != nil {
		t.Fatalf("SetLastMessage newer: %v", err)
	}

	summaries, err := conversations.ListForParticipant(ctx, alice)
	if err != nil {
		t.Fatalf("ListForParticipant: %v", err)
	}

	indexOf := func(conversationID string) int {
		for i := range summaries {
			if summaries[i].ID == conversationID {
				return i
			}
		}
		return -1
	}

	newerIdx, olderIdx := indexOf(newer.ID), indexOf(older.ID)
	if newerIdx == -1 || olderIdx == -1 {
		t.Fatalf("seeded conversations missing from listing")
	}
	if newerIdx > olderIdx {
		t.Errorf("latest activity should sort first: newer at %d, older at %d", newerIdx, olderIdx)
	}

	if summaries[newerIdx].UnreadCount != 1 {
		t.Errorf("got unread %d for newer, want 1", summaries[newerIdx].UnreadCount)
	}
	if summaries[newerIdx].LastMessage == nil || summaries[newerIdx].LastMessage.Content != "fresh" {
		t.Errorf("last message summary missing: %+v", summaries[newerIdx].LastMessage)
	}

	// Reading clears the counter.
	if _, err := messages.MarkConversationRead(ctx, newer.ID, alice); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	summaries, err = conversations.ListForParticipant(ctx, alice)
	if err != nil {
		t.Fatalf("second ListForParticipant: %v", err)
	}
	if idx := indexOf(newer.ID); idx == -1 || summaries[idx].UnreadCount != 0 {
		t.Errorf("unread not cleared after read")
	}
}
