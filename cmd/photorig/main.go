// Package main is the entry point for the photorig CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	logger := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(logger))

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "photorig: %v\n", err)
		os.Exit(1)
	}
}
