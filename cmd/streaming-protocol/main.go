// Package main provides the entry point for the streaming protocol tool.
package main

import (
	"log/slog"
	"os"

	"github.com/nameless-analytics/nameless-tools/cmd/streaming-protocol/commands"
)

func main() {
	a, err := commands.New()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	os.Exit(run(a))
}

type app interface {
	Run() error
	UsageError() bool
}

func run(a app) int {
	if err := a.Run(); err != nil {
		slog.Error(err.Error())

		if a.UsageError() {
			return 2
		}
		return 1
	}

	return 0
}
