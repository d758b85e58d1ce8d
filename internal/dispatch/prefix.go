package dispatch

import (
	"context"
	"fmt"

	"github.com/mattjoyce/fumo/internal/chat"
)

// PrefixStore returns a channel's prefix override, "" when unset.
type PrefixStore interface {
	ChannelPrefix(ctx context.Context, channelID string) (string, error)
}

// Resolver picks the invocation prefix for a channel.
type Resolver struct {
	store  PrefixStore
	global string
}

func NewResolver(store PrefixStore, global string) *Resolver {
	return &Resolver{store: store, global: global}
}

// Resolve returns the channel override if set, else the global prefix.
func (r *Resolver) Resolve(ctx context.Context, channel chat.Channel) (string, error) {
	if r.store == nil {
		return r.global, nil
	}
	prefix, err := r.store.ChannelPrefix(ctx, channel.ID)
	if err != nil {
		return "", fmt.Errorf("channel prefix for %s: %w", channel.Name, err)
	}
	if prefix != "" {
		return prefix, nil
	}
	return r.global, nil
}
