package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/virtualtourist/internal/cli"
	"codeberg.org/snonux/virtualtourist/internal/processor"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create flags instance
	flags := cli.NewFlags()

	proc := processor.NewProcessor(ctx, flags)
	defer func() {
		if err := proc.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags, proc)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
