// Package main provides the entry point for payauth-cli.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yndnr/payauth-go/internal/cli/command"
	"github.com/yndnr/payauth-go/internal/infra/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	app := command.App()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
