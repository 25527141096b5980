package main

import (
	"os"

	"github.com/wonny/rollstitch/backend/cmd/rollstitch/commands"
)

// main is the entry point for the rollstitch CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/rollstitch [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
