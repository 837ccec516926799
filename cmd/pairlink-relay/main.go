package main

import (
	"log"

	"github.com/joho/godotenv"

	"pairlink/internal/relay"
)

func main() {
	godotenv.Load()

	rl, err := relay.NewRelay()
	if err != nil {
		log.Fatalf("Failed to initialize relay: %v", err)
	}

	rl.Run()
}
