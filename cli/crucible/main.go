package main

import (
	"os"

	"github.com/joho/godotenv"

	cruciblecmder "github.com/forgelabs/crucible/cmd/crucible"
)

func main() {
	// Best effort: API keys may live in a local .env file.
	_ = godotenv.Load()

	cmd := cruciblecmder.NewCrucibleCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
