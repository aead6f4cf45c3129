package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/translore/internal/cli"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	a := &app{}
	defer a.close()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags, a)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Execute command
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		a.close()
		os.Exit(1)
	}
}
