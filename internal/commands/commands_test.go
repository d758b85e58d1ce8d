package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/command"
	"github.com/mattjoyce/fumo/internal/settings"
)

type fakeSettings struct {
	prefixes map[string]string
	deleted  []string
	err      error
}

func (f *fakeSettings) SetPrefix(_ context.Context, channelID, prefix string) error {
	if f.err != nil {
		return f.err
	}
	f.prefixes[channelID] = prefix
	return nil
}

func (f *fakeSettings) DeleteChannel(_ context.Context, channelID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, channelID)
	return nil
}

type fakeChannels struct {
	parted []string
	err    error
}

func (f *fakeChannels) Part(_ context.Context, channel string) error {
	f.parted = append(f.parted, channel)
	return f.err
}

func builtins(t *testing.T) *command.Registry {
	t.Helper()
	b := command.NewBuilder(5 * time.Second)
	require.NoError(t, Register(b))
	return b.Build()
}

func run(t *testing.T, reg *command.Registry, caps command.Capabilities, identifier string, args ...string) (command.Result, error) {
	t.Helper()
	inst, release, ok := reg.CreateInvocation(identifier, caps)
	require.True(t, ok, "command %q not found", identifier)
	defer release()
	return inst.Command.Execute(context.Background(), &command.Invocation{
		Identifier: identifier,
		Channel:    chat.Channel{ID: "100", Name: "forsen"},
		Args:       args,
	})
}

func TestDefinitionsRegisterCleanly(t *testing.T) {
	reg := builtins(t)
	assert.Equal(t, len(Definitions()), reg.Len())

	for _, id := range []string{"ping", "Ping", "help", "prefix", "leave", "part"} {
		_, ok := reg.Lookup(id)
		assert.True(t, ok, id)
	}
}

func TestPing(t *testing.T) {
	reg := builtins(t)
	res, err := run(t, reg, command.Capabilities{StartedAt: time.Now().Add(-90 * time.Second)}, "ping")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "🕴️ Uptime: 1m 3")

	def, _ := reg.Lookup("ping")
	assert.True(t, def.Flags.Has(command.FlagReply))
}

func TestFormatUptime(t *testing.T) {
	tests := map[time.Duration]string{
		0:                                 "0s",
		42 * time.Second:                  "42s",
		time.Hour + 5*time.Second:         "1h 0m 5s",
		26*time.Hour + 3*time.Minute:      "1d 2h 3m 0s",
		90*time.Second + time.Millisecond: "1m 30s",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatUptime(in), in.String())
	}
}

func TestHelp(t *testing.T) {
	reg := builtins(t)

	res, err := run(t, reg, command.Capabilities{}, "help", "ping")
	require.NoError(t, err)
	assert.Equal(t, "[Pp]ing Description - Reports how long the bot has been running Cooldown - 5s - Requires - default", res.Message)

	res, err = run(t, reg, command.Capabilities{}, "help", "nope")
	require.NoError(t, err)
	assert.Equal(t, "The command nope does not exist", res.Message)

	_, err = run(t, reg, command.Capabilities{}, "help")
	assert.Equal(t, command.KindInvalidInput, command.KindOf(err))
	assert.EqualError(t, err, "No command provided")

	res, err = run(t, reg, command.Capabilities{PublicURL: "https://fumo.example/bot/"}, "help")
	require.NoError(t, err)
	assert.Equal(t, "https://fumo.example/commands/index.html", res.Message)
}

func TestPrefix(t *testing.T) {
	reg := builtins(t)
	store := &fakeSettings{prefixes: map[string]string{}}
	caps := command.Capabilities{Settings: store}

	res, err := run(t, reg, caps, "prefix", "?")
	require.NoError(t, err)
	assert.Equal(t, "Prefix set to ?", res.Message)
	assert.Equal(t, "?", store.prefixes["100"])

	res, err = run(t, reg, caps, "prefix", "reset")
	require.NoError(t, err)
	assert.Equal(t, "Prefix reset to the default", res.Message)
	assert.Equal(t, "", store.prefixes["100"])

	_, err = run(t, reg, caps, "prefix", "waytoolongprefix!!")
	assert.Equal(t, command.KindInvalidInput, command.KindOf(err))

	def, _ := reg.Lookup("prefix")
	assert.True(t, def.ModeratorOnly())
	require.Len(t, def.Middleware, 1)
}

func TestPrefixErrors(t *testing.T) {
	reg := builtins(t)

	_, err := run(t, reg, command.Capabilities{Settings: &fakeSettings{err: settings.ErrChannelNotFound}}, "prefix", "?")
	assert.Equal(t, command.KindNotFound, command.KindOf(err))

	_, err = run(t, reg, command.Capabilities{Settings: &fakeSettings{err: errors.New("disk full")}}, "prefix", "?")
	assert.Equal(t, command.KindInternal, command.KindOf(err))
}

func TestLeave(t *testing.T) {
	reg := builtins(t)
	store := &fakeSettings{}
	channels := &fakeChannels{}

	res, err := run(t, reg, command.Capabilities{Settings: store, Channels: channels}, "part")
	require.NoError(t, err)
	assert.Equal(t, "👍", res.Message)
	assert.Equal(t, []string{"100"}, store.deleted)
	assert.Equal(t, []string{"forsen"}, channels.parted)

	def, _ := reg.Lookup("leave")
	assert.True(t, def.BroadcasterOnly())
}

func TestLeaveFailuresAreFriendly(t *testing.T) {
	reg := builtins(t)

	res, err := run(t, reg, command.Capabilities{Settings: &fakeSettings{err: fmt.Errorf("locked")}}, "leave")
	require.NoError(t, err)
	assert.Equal(t, "An error occured, try again later", res.Message)

	channels := &fakeChannels{err: errors.New("not connected")}
	res, err = run(t, reg, command.Capabilities{Settings: &fakeSettings{}, Channels: channels}, "leave")
	require.NoError(t, err)
	assert.Equal(t, "An error occured, try again later", res.Message)
}

func TestRequireArgs(t *testing.T) {
	mw := RequireArgs(2, "give <user> <amount>")

	veto, err := mw.Check(context.Background(), &command.Invocation{Args: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "Usage: give <user> <amount>", veto)

	veto, err = mw.Check(context.Background(), &command.Invocation{Args: []string{"a", "1"}})
	require.NoError(t, err)
	assert.Empty(t, veto)
}
