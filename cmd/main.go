package main

import (
	"os"

	"github.com/joho/godotenv"
	"oc-checklist-service/internal/cli"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
