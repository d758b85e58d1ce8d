package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/fumo/internal/api"
	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/console"
	"github.com/mattjoyce/fumo/internal/lock"
	"github.com/mattjoyce/fumo/internal/log"
)

type sessionFlags struct {
	channel   string
	user      string
	moderator bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.channel, "channel", "fumo", "Channel the console speaks in")
	cmd.Flags().StringVar(&f.user, "user", defaultUser(), "User the console speaks as")
	cmd.Flags().BoolVar(&f.moderator, "moderator", false, "Mark console messages as sent by a moderator")
}

// identity uses names as ids, so --user equal to --channel is the
// broadcaster.
func (f *sessionFlags) identity() console.Identity {
	return console.Identity{
		Channel:   chat.Channel{ID: f.channel, Name: f.channel},
		User:      chat.User{ID: f.user, Name: f.user},
		Moderator: f.moderator,
	}
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "operator"
}

func newStartCommand(configPath *string) *cobra.Command {
	var (
		session   sessionFlags
		noConsole bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the bot in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStart(cmd.Context(), *configPath, session, noConsole)
		},
	}
	session.register(cmd)
	cmd.Flags().BoolVar(&noConsole, "no-console", false, "Do not read commands from stdin")
	return cmd
}

func runStart(parent context.Context, configPath string, session sessionFlags, noConsole bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("fumo starting", "version", version, "config", configPath)

	lockPath := lock.PathFor(cfg.State.Path)
	instanceLock, err := lock.Acquire(lockPath)
	if err != nil {
		return fmt.Errorf("acquire instance lock %s: %w", lockPath, err)
	}
	defer instanceLock.Release()
	logger.Info("acquired instance lock", "path", lockPath)

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	b, err := openBot(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	logger.Info("database opened", "path", cfg.State.Path, "commands", b.registry.Len())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 4)

	pruner, err := b.pruner()
	if err != nil {
		return err
	}
	go func() {
		if err := pruner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("audit pruner: %w", err)
		}
	}()

	if cfg.Website.Enabled {
		website := api.New(api.Config{
			Listen:      cfg.Website.Listen,
			APIKey:      cfg.Website.APIKey,
			ServiceName: cfg.Service.Name,
		}, b.registry, b.audit, b.hub, log.WithComponent("website"))
		go func() {
			if err := website.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("website: %w", err)
			}
		}()
		logger.Info("website enabled", "listen", cfg.Website.Listen)
	}

	if !noConsole {
		id := session.identity()
		if err := b.join(ctx, id.Channel); err != nil {
			return err
		}
		term := console.New(id, console.NewLineReader(os.Stdin), os.Stdout)
		outbox := chat.NewOutbox(term, cfg.Outbound.Rate, cfg.Outbound.Burst, cfg.Outbound.QueueSize, log.WithComponent("outbox"))
		disp, err := b.dispatcher(outbox, term, log.WithComponent("dispatch"))
		if err != nil {
			return err
		}
		go func() {
			if err := outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("outbox: %w", err)
			}
		}()
		go func() {
			if err := disp.Start(ctx, term); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("dispatcher: %w", err)
				return
			}
			logger.Info("console input closed")
		}()
	}

	logger.Info("fumo running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		return err
	}

	logger.Info("fumo stopped")
	return nil
}
