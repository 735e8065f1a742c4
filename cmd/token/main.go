package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/roomly-app/MessagingBack/pkg/utils"
)

// Mints a development token for exercising the API by hand:
//
//	go run ./cmd/token -user alice@example.com
func main() {
	userID := flag.String("user", "", "User id to embed in the token")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Usage: token -user <user-id>")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	token, err := utils.GenerateToken(*userID, secret)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println(token)
}
