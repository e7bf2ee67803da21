package main

import (
	"context"
	"flag"
	"log"
	"time"

	"gymtrack_app_echo/internal/app"
	"gymtrack_app_echo/internal/config"
	"gymtrack_app_echo/internal/logger"
)

func main() {
	userID := flag.Uint("user", 0, "User ID to message")
	subject := flag.String("subject", "Test message", "Message subject")
	msg := flag.String("msg", "Test message from GymTrack", "Message body")
	flag.Parse()

	if *userID == 0 {
		log.Fatal("Please provide a user ID using -user flag")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger.New("dev"))
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer a.Close()

	log.Printf("Sending message to user %d over their preferred channel", *userID)
	if err := a.Messenger.Send(ctx, uint(*userID), *subject, *msg); err != nil {
		log.Fatalf("Failed to send message: %v", err)
	}
	log.Println("Message sent successfully!")
}
