// File: cmd/sauce-e2e/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/xkilldash9x/sauce-e2e/cmd"
	"github.com/xkilldash9x/sauce-e2e/internal/observability"
)

func main() {
	// A missing .env is fine; real environment variables always win.
	_ = godotenv.Load()

	// Interrupts cancel the run; open sessions and the browser are still closed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cmd.Execute(ctx)
	stop()
	observability.Sync()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, cmd.ErrSuiteFailed):
		return 1
	default:
		return 2
	}
}
