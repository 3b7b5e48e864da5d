package main

import (
	"github.com/joho/godotenv"

	"codechunk/internal/cli"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	// API keys may live in a .env file; a missing one is fine.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.Execute()
}
