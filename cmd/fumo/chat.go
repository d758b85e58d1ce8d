package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/fumo/internal/console"
	"github.com/mattjoyce/fumo/internal/log"
)

func newChatCommand(configPath *string) *cobra.Command {
	var session sessionFlags
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot from an interactive prompt",
		Long: "Opens a prompt that feeds every line through the dispatcher as a chat\n" +
			"message in --channel from --user. Ctrl+C or Ctrl+D exits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), *configPath, session)
		},
	}
	session.register(cmd)
	return cmd
}

func runChat(ctx context.Context, configPath string, session sessionFlags) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	// Logs go to stderr at warn and above so they do not bury the prompt.
	log.SetupWriter("warn", os.Stderr)

	if ctx == nil {
		ctx = context.Background()
	}
	b, err := openBot(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	id := session.identity()
	if err := b.join(ctx, id.Channel); err != nil {
		return err
	}

	historyFile := filepath.Join(filepath.Dir(cfg.State.Path), ".fumo_history")
	term, err := console.NewTerminal(fmt.Sprintf("#%s %s> ", id.Channel.Name, id.User.Name), historyFile)
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer term.Close()

	con := console.New(id, term, term.Stdout())
	disp, err := b.dispatcher(con, con, log.WithComponent("dispatch"))
	if err != nil {
		return err
	}
	return disp.Start(ctx, con)
}
