package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/fernwood-labs/recall-cli/internal/adapters/driving/cli"
)

func main() {
	// Optional; API keys can come from the environment directly.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
