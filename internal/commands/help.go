package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mattjoyce/fumo/internal/command"
)

// CommandsPagePath is where the website lists every command.
const CommandsPagePath = "/commands/index.html"

func Help() command.Definition {
	return command.Definition{
		Pattern:     "help",
		Flags:       command.FlagReply | command.FlagIgnoreContentFilter,
		Cooldown:    10 * time.Second,
		Description: "Describes a command, or links the command list",
		Usage:       []string{"help", "help <command>"},
		New: func(caps command.Capabilities) command.Command {
			return &help{registry: caps.Registry, publicURL: caps.PublicURL}
		},
	}
}

type help struct {
	registry  *command.Registry
	publicURL string
}

func (h *help) Execute(_ context.Context, inv *command.Invocation) (command.Result, error) {
	if len(inv.Args) == 0 {
		if link, ok := commandsPageURL(h.publicURL); ok {
			return command.Text(link), nil
		}
		return command.Result{}, command.InvalidInput("No command provided")
	}

	name := inv.Args[0]
	def, ok := h.registry.Lookup(name)
	if !ok {
		return command.Text(fmt.Sprintf("The command %s does not exist", name)), nil
	}
	return command.Text(fmt.Sprintf("%s Description - %s Cooldown - %gs - Requires - %s",
		def.Name(), def.Description, def.Cooldown.Seconds(), strings.Join(def.Permissions, ", "))), nil
}

func commandsPageURL(publicURL string) (string, bool) {
	if publicURL == "" {
		return "", false
	}
	base, err := url.Parse(publicURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", false
	}
	return base.ResolveReference(&url.URL{Path: CommandsPagePath}).String(), true
}
