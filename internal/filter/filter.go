// Package filter screens outgoing command text before it reaches chat.
package filter

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/command"
)

const (
	// ReasonGlobal is reported when a process-wide pattern matches.
	ReasonGlobal = "Global banphrase"
	// ReasonInternal is reported when the moderation check itself failed.
	ReasonInternal = "Internal error"
)

// Redact renders the text sent in place of a blocked message.
func Redact(reason string) string {
	return "FeelsOkayMan blocked by 👉 " + reason
}

// Filtered is the outcome of Apply.
type Filtered struct {
	Text    string
	Blocked bool
	Reason  string
}

// Checker asks an external moderation service about text.
type Checker interface {
	Check(ctx context.Context, endpoint, text string) (blocked bool, reason string, err error)
}

// EndpointLookup returns the moderation endpoint configured for a channel,
// or "" when there is none.
type EndpointLookup interface {
	ModerationEndpoint(ctx context.Context, channelID string) (string, error)
}

// Filter applies the global patterns and then the channel's external check.
type Filter struct {
	patterns  []*regexp.Regexp
	endpoints EndpointLookup
	checker   Checker
	logger    *slog.Logger
}

// New compiles patterns. endpoints and checker may be nil, in which case only
// the global patterns apply.
func New(patterns []string, endpoints EndpointLookup, checker Checker, logger *slog.Logger) (*Filter, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile filter pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{
		patterns:  compiled,
		endpoints: endpoints,
		checker:   checker,
		logger:    logger,
	}, nil
}

// Apply screens text produced by def for channel. The original text is never
// returned when blocked. The only error is cancellation of ctx.
func (f *Filter) Apply(ctx context.Context, def *command.Definition, text string, channel chat.Channel) (Filtered, error) {
	if def != nil && def.Flags.Has(command.FlagIgnoreContentFilter) {
		return Filtered{Text: text}, nil
	}
	for _, re := range f.patterns {
		if re.MatchString(text) {
			return blocked(ReasonGlobal), nil
		}
	}
	if f.endpoints == nil || f.checker == nil {
		return Filtered{Text: text}, nil
	}

	endpoint, err := f.endpoints.ModerationEndpoint(ctx, channel.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Filtered{}, ctxErr
		}
		f.logger.Error("moderation endpoint lookup failed",
			"check", "moderation", "channel", channel.Name, "error", err)
		return blocked(ReasonInternal), nil
	}
	if endpoint == "" {
		return Filtered{Text: text}, nil
	}

	isBlocked, reason, err := f.checker.Check(ctx, endpoint, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Filtered{}, ctxErr
		}
		f.logger.Error("moderation check failed",
			"check", "moderation", "channel", channel.Name, "endpoint", endpoint, "error", err)
		return blocked(ReasonInternal), nil
	}
	if isBlocked {
		return blocked(reason), nil
	}
	return Filtered{Text: text}, nil
}

func blocked(reason string) Filtered {
	return Filtered{Text: Redact(reason), Blocked: true, Reason: reason}
}
