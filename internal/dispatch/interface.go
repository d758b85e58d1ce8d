package dispatch

import (
	"context"

	"github.com/mattjoyce/fumo/internal/audit"
	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/command"
	"github.com/mattjoyce/fumo/internal/filter"
)

//go:generate mockgen -destination=mocks/mock_dispatch.go -package=mocks github.com/mattjoyce/fumo/internal/dispatch AuditSink,Settings
//go:generate mockgen -destination=mocks/mock_chat.go -package=mocks github.com/mattjoyce/fumo/internal/chat Sender

// AuditSink stores execution records.
type AuditSink interface {
	Persist(ctx context.Context, rec audit.Record) error
}

// Settings supplies per-channel prefixes and per-user permissions.
type Settings interface {
	ChannelPrefix(ctx context.Context, channelID string) (string, error)
	User(ctx context.Context, userID, name string) (chat.User, error)
}

// ContentFilter screens outgoing text.
type ContentFilter interface {
	Apply(ctx context.Context, def *command.Definition, text string, channel chat.Channel) (filter.Filtered, error)
}
