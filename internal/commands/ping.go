package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mattjoyce/fumo/internal/command"
)

func Ping() command.Definition {
	return command.Definition{
		Pattern:     "[Pp]ing",
		Flags:       command.FlagReply,
		Description: "Reports how long the bot has been running",
		Usage:       []string{"ping"},
		New: func(caps command.Capabilities) command.Command {
			return &ping{startedAt: caps.StartedAt, now: time.Now}
		},
	}
}

type ping struct {
	startedAt time.Time
	now       func() time.Time
}

func (p *ping) Execute(context.Context, *command.Invocation) (command.Result, error) {
	return command.Text("🕴️ Uptime: " + FormatUptime(p.now().Sub(p.startedAt))), nil
}

// FormatUptime renders d as "1d 2h 3m 4s", omitting leading zero units.
func FormatUptime(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	secs := int64(d / time.Second)
	units := []struct {
		size int64
		name string
	}{
		{86400, "d"},
		{3600, "h"},
		{60, "m"},
		{1, "s"},
	}
	var parts []string
	for _, u := range units {
		n := secs / u.size
		secs %= u.size
		if n == 0 && len(parts) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d%s", n, u.name))
	}
	return strings.Join(parts, " ")
}
