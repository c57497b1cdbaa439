package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/cli"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/config"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.LoadLocal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(&cli.Env{Config: cfg}).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
