package main

import (
	"github.com/joho/godotenv"

	"github.com/apivet/apivet/internal/cli"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Optional .env for API keys; absence is fine.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.Execute()
}
