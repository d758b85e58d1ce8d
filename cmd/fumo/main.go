package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "fumo",
		Short:         "Chat bot command dispatcher",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to config.yaml or its directory")

	cmd.AddCommand(
		newStartCommand(&configPath),
		newChatCommand(&configPath),
		newConfigCommand(&configPath),
		newCommandsCommand(&configPath),
		newChannelsCommand(&configPath),
		newLogsCommand(&configPath),
		newPermsCommand(&configPath),
		newVersionCommand(),
	)
	return cmd
}
