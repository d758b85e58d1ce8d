package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattjoyce/fumo/internal/audit"
	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/command"
	"github.com/mattjoyce/fumo/internal/commands"
	"github.com/mattjoyce/fumo/internal/config"
	"github.com/mattjoyce/fumo/internal/cooldown"
	"github.com/mattjoyce/fumo/internal/dispatch"
	"github.com/mattjoyce/fumo/internal/events"
	"github.com/mattjoyce/fumo/internal/filter"
	"github.com/mattjoyce/fumo/internal/log"
	"github.com/mattjoyce/fumo/internal/settings"
	"github.com/mattjoyce/fumo/internal/storage"
)

// bot bundles the state shared by every command that needs the database.
type bot struct {
	cfg       *config.Config
	db        *sql.DB
	settings  *settings.Store
	audit     *audit.Store
	hub       *events.Hub
	registry  *command.Registry
	startedAt time.Time
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func buildRegistry(cfg *config.Config) (*command.Registry, error) {
	b := command.NewBuilder(cfg.Bot.DefaultCooldown)
	if err := commands.Register(b); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	return b.Build(), nil
}

func openBot(ctx context.Context, cfg *config.Config) (*bot, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.State.Path, err)
	}
	return &bot{
		cfg:       cfg,
		db:        db,
		settings:  settings.NewStore(db),
		audit:     audit.NewStore(db),
		hub:       events.NewHub(256),
		registry:  registry,
		startedAt: time.Now(),
	}, nil
}

func (b *bot) Close() error {
	return b.db.Close()
}

// join records channel so per-channel settings can be attached to it.
func (b *bot) join(ctx context.Context, channel chat.Channel) error {
	if err := b.settings.UpsertChannel(ctx, channel); err != nil {
		return fmt.Errorf("join %s: %w", channel.Name, err)
	}
	log.WithComponent("main").Info("joined channel", "channel", channel.Name, "channel_id", channel.ID)
	return nil
}

func (b *bot) dispatcher(sender chat.Sender, channels chat.ChannelManager, logger *slog.Logger) (*dispatch.Dispatcher, error) {
	contentFilter, err := filter.New(
		b.cfg.Filter.GlobalPatterns,
		b.settings,
		filter.NewPajbotChecker(b.cfg.Filter.ModerationTimeout),
		log.WithComponent("filter"),
	)
	if err != nil {
		return nil, fmt.Errorf("build content filter: %w", err)
	}

	return dispatch.New(dispatch.Deps{
		Registry:  b.registry,
		Settings:  b.settings,
		Cooldowns: cooldown.NewManager(),
		Filter:    contentFilter,
		Audit:     b.audit,
		Sender:    sender,
		Events:    b.hub,
		Capabilities: command.Capabilities{
			Settings:  b.settings,
			Channels:  channels,
			PublicURL: b.cfg.Website.PublicURL,
			StartedAt: b.startedAt,
		},
		Logger: logger,
	}, dispatch.Options{
		GlobalPrefix:   b.cfg.Bot.GlobalPrefix,
		CommandTimeout: b.cfg.Bot.CommandTimeout,
		MaxConcurrent:  b.cfg.Bot.MaxConcurrent,
		SelfUserID:     b.cfg.Bot.UserID,
	})
}

func (b *bot) pruner() (*audit.Pruner, error) {
	return audit.NewPruner(b.audit, b.cfg.Audit.Retention, b.cfg.Audit.PruneSchedule, log.WithComponent("audit"))
}
