package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
