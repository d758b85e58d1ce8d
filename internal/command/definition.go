package command

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/mattjoyce/fumo/internal/chat"
)

// Well-known permissions.
const (
	PermissionDefault = "default"
	// PermissionAdmin bypasses every permission, moderator and broadcaster check.
	PermissionAdmin = "admin.execute"
	// PermissionChatError lets a user see internal fault messages in chat.
	PermissionChatError = "user.chat_error"
)

// Result is what a command produced. ReplyID is filled in by the dispatcher
// for FlagReply commands.
type Result struct {
	Message string
	ReplyID string
}

// Text is shorthand for a plain result.
func Text(message string) Result {
	return Result{Message: message}
}

// Invocation carries everything a single dispatch knows about the call. It is
// owned by one dispatch and must not be retained after Execute returns.
type Invocation struct {
	// ID is the audit record id of this invocation.
	ID string
	// Identifier is the token that selected the command, e.g. "Ping".
	Identifier string
	Channel    chat.Channel
	User       chat.User
	Args       []string
	// Message is the raw inbound message, needed to build reply references.
	Message chat.Message
}

// Command is one live instance of a command's behaviour.
type Command interface {
	Execute(ctx context.Context, inv *Invocation) (Result, error)
}

// Func adapts a plain function to Command.
type Func func(ctx context.Context, inv *Invocation) (Result, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, inv *Invocation) (Result, error) {
	return f(ctx, inv)
}

// Releaser is implemented by commands holding resources that must be freed
// when the invocation ends.
type Releaser interface {
	Release()
}

// Settings is the slice of the settings store commands may write to.
type Settings interface {
	SetPrefix(ctx context.Context, channelID, prefix string) error
	DeleteChannel(ctx context.Context, channelID string) error
}

// Capabilities are the collaborators a Factory may bind into a new command.
// A factory takes only what it needs.
type Capabilities struct {
	Registry  *Registry
	Settings  Settings
	Channels  chat.ChannelManager
	PublicURL string
	StartedAt time.Time
	Logger    *slog.Logger
}

// Factory builds a fresh command for one invocation.
type Factory func(caps Capabilities) Command

// Definition declares a command. It is immutable once registered.
type Definition struct {
	// Pattern is a regular expression matched against the start of the
	// identifier. "leave|part" matches both "leave" and "partyhat".
	Pattern     string
	Flags       Flags
	Permissions []string
	Cooldown    time.Duration
	Description string
	// Usage lines rendered on the commands page.
	Usage      []string
	Middleware []Middleware
	New        Factory

	matcher *regexp.Regexp
}

// Name is the human-readable command name, the pattern source.
func (d *Definition) Name() string {
	return d.Pattern
}

// Matches reports whether identifier selects this command.
func (d *Definition) Matches(identifier string) bool {
	return d.matcher != nil && d.matcher.MatchString(identifier)
}

// ModeratorOnly reports whether only moderators and the broadcaster may run it.
func (d *Definition) ModeratorOnly() bool {
	return d.Flags.Has(FlagModeratorOnly)
}

// BroadcasterOnly reports whether only the broadcaster may run it.
func (d *Definition) BroadcasterOnly() bool {
	return d.Flags.Has(FlagBroadcasterOnly)
}
