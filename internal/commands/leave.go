package commands

import (
	"context"
	"log/slog"

	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/command"
)

func Leave() command.Definition {
	return command.Definition{
		Pattern:     "leave|part",
		Flags:       command.FlagBroadcasterOnly,
		Description: "Makes the bot leave this channel",
		Usage:       []string{"leave"},
		New: func(caps command.Capabilities) command.Command {
			logger := caps.Logger
			if logger == nil {
				logger = slog.Default()
			}
			return &leave{settings: caps.Settings, channels: caps.Channels, logger: logger}
		},
	}
}

type leave struct {
	settings command.Settings
	channels chat.ChannelManager
	logger   *slog.Logger
}

func (l *leave) Execute(ctx context.Context, inv *command.Invocation) (command.Result, error) {
	if err := l.settings.DeleteChannel(ctx, inv.Channel.ID); err != nil {
		l.logger.Error("failed to leave channel", "channel", inv.Channel.Name, "error", err)
		return command.Text("An error occured, try again later"), nil
	}
	if l.channels != nil {
		if err := l.channels.Part(ctx, inv.Channel.Name); err != nil {
			l.logger.Error("failed to part channel", "channel", inv.Channel.Name, "error", err)
			return command.Text("An error occured, try again later"), nil
		}
	}
	return command.Text("👍"), nil
}
