// Package main provides the jaeger command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/born-ml/jaeger/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
