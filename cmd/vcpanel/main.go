// Command vcpanel builds founder and venture-capital research datasets.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkguldan/empirical/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
