package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattjoyce/fumo/internal/command"
	"github.com/mattjoyce/fumo/internal/settings"
)

const maxPrefixLength = 15

func Prefix() command.Definition {
	return command.Definition{
		Pattern:     "prefix",
		Flags:       command.FlagModeratorOnly | command.FlagReply,
		Description: "Changes the command prefix of this channel",
		Usage:       []string{"prefix <new prefix>", "prefix reset"},
		Middleware:  []command.Middleware{RequireArgs(1, "prefix <new prefix> | prefix reset")},
		New: func(caps command.Capabilities) command.Command {
			return &prefix{settings: caps.Settings}
		},
	}
}

type prefix struct {
	settings command.Settings
}

func (p *prefix) Execute(ctx context.Context, inv *command.Invocation) (command.Result, error) {
	value := inv.Args[0]
	if len(value) > maxPrefixLength {
		return command.Result{}, command.InvalidInput("Prefix can be at most %d characters", maxPrefixLength)
	}

	reset := value == "reset"
	if reset {
		value = ""
	}
	if err := p.settings.SetPrefix(ctx, inv.Channel.ID, value); err != nil {
		if errors.Is(err, settings.ErrChannelNotFound) {
			return command.Result{}, command.NotFound("This channel is not registered")
		}
		return command.Result{}, fmt.Errorf("set prefix: %w", err)
	}

	if reset {
		return command.Text("Prefix reset to the default"), nil
	}
	return command.Text(fmt.Sprintf("Prefix set to %s", value)), nil
}
