package main

import (
	"log/slog"
	"os"

	"github.com/dshills/strata/internal/cli"
	"github.com/dshills/strata/internal/logging"
)

func main() {
	logger := logging.New(os.Stderr, slog.LevelInfo, "text")
	if err := cli.Execute(os.Args[1:], logger); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
