package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragdex/internal/adapters/driving/cli"
)

func main() {
	// API keys may live in a .env file next to the binary.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
