package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/roomly-app/MessagingBack/internal/database"
	"github.com/roomly-app/MessagingBack/internal/repository"
)

// Seeds a local database with a couple of conversations so the API has
// something to return during development.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		log.Fatal("DB_URL environment variable is required")
	}
	if err := database.ConnectDB(dbUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conversations := repository.NewConversationRepository(database.DB)
	messages := repository.NewMessageRepository(database.DB)

	pairs := []struct {
		participants []string
		name         string
		lines        []string
	}{
		{
			participants: []string{"alice@example.com", "bob@example.com"},
			name:         "",
			lines: []string{
				"Hey Bob, is the apartment on 5th still available?",
				"It is! Want to set up a viewing this week?",
				"Thursday afternoon works for me.",
			},
		},
		{
			participants: []string{"alice@example.com", "carol@example.com"},
			name:         "Lease questions",
			lines: []string{
				"Carol, quick question about the lease renewal.",
			},
		},
	}

	for _, pair := range pairs {
		conversation, err := conversations.Create(ctx, pair.participants, pair.name)
		if err != nil {
			log.Fatalf("Failed to create conversation: %v", err)
		}

		for i, line := range pair.lines {
			sender := pair.participants[i%len(pair.participants)]
			message, created, err := messages.Append(ctx, conversation.ID, sender, line, "")
			if err != nil {
				log.Fatalf("Failed to append message: %v", err)
			}
			if !created {
				continue
			}
			if err := conversations.SetLastMessage(ctx, conversation.ID, message.Summary()); err != nil {
				log.Fatalf("Failed to update conversation preview: %v", err)
			}
		}

		log.Printf("Seeded conversation %s with %d messages", conversation.ID, len(pair.lines))
	}
}
