// Command midori runs an IRC bot from a JSON configuration file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	irc "github.com/midori-irc/midori"

	_ "github.com/midori-irc/midori/extensions/greeter"
	_ "github.com/midori-irc/midori/extensions/seen"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "midori [config-path]",
		Short: "Run an IRC bot from a JSON configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := "config.json"
	if len(args) == 1 {
		path = args[0]
	}

	log := irc.NewLogger()

	cfg, err := irc.LoadConfig(path)
	if err != nil {
		log.WithError(err).Error("midori: configuration error")
		return fmt.Errorf("midori: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sup := irc.NewSupervisor(cfg, log)
	return sup.Run(ctx)
}
