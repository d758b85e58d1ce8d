// Package chat holds the transport-neutral message model shared by the
// dispatcher, the commands and whatever chat transport feeds them.
package chat

import (
	"context"
	"slices"
)

// Channel identifies a chat room the bot has joined.
type Channel struct {
	ID   string
	Name string
}

// User is the author of a message together with the permissions granted to
// them by the permission store.
type User struct {
	ID          string
	Name        string
	Permissions []string
}

// HasPermission reports whether the user was granted permission.
func (u User) HasPermission(permission string) bool {
	return slices.Contains(u.Permissions, permission)
}

// Privmsg is the transport's handle on the raw inbound message.
type Privmsg struct {
	ID          string
	AuthorIsMod bool
}

// Message is one inbound chat message, already split on whitespace.
type Message struct {
	Channel Channel
	User    User
	Tokens  []string
	Privmsg Privmsg
}

// IsBroadcaster reports whether the author owns the channel.
func (m Message) IsBroadcaster() bool {
	return m.User.ID != "" && m.User.ID == m.Channel.ID
}

// IsModerator reports whether the author moderates the channel. The
// broadcaster always counts as a moderator.
func (m Message) IsModerator() bool {
	return m.Privmsg.AuthorIsMod || m.IsBroadcaster()
}

// Sender delivers text to a channel, optionally as a reply to a message id.
type Sender interface {
	Send(ctx context.Context, channel, text, replyID string) error
}

// Source yields inbound messages. Next returns io.EOF once the source is
// exhausted.
type Source interface {
	Next(ctx context.Context) (Message, error)
}

// ChannelManager is implemented by transports that can leave a channel.
type ChannelManager interface {
	Part(ctx context.Context, channel string) error
}
