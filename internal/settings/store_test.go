package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/command"
	"github.com/mattjoyce/fumo/internal/storage"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "fumo.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestChannelOverrides(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	prefix, err := s.ChannelPrefix(ctx, "100")
	if err != nil {
		t.Fatalf("ChannelPrefix: %v", err)
	}
	if prefix != "" {
		t.Fatalf("unknown channel prefix = %q, want empty", prefix)
	}

	if err := s.UpsertChannel(ctx, chat.Channel{ID: "100", Name: "forsen"}); err != nil {
		t.Fatalf("UpsertChannel: %v", err)
	}
	if err := s.SetPrefix(ctx, "100", "?"); err != nil {
		t.Fatalf("SetPrefix: %v", err)
	}
	if err := s.SetModerationEndpoint(ctx, "100", "pajbot.example"); err != nil {
		t.Fatalf("SetModerationEndpoint: %v", err)
	}

	prefix, _ = s.ChannelPrefix(ctx, "100")
	endpoint, _ := s.ModerationEndpoint(ctx, "100")
	assert.Equal(t, "?", prefix)
	assert.Equal(t, "pajbot.example", endpoint)

	// A rename keeps overrides.
	if err := s.UpsertChannel(ctx, chat.Channel{ID: "100", Name: "forsen2"}); err != nil {
		t.Fatalf("UpsertChannel: %v", err)
	}
	cs, err := s.Channel(ctx, "100")
	if err != nil {
		t.Fatalf("Channel: %v", err)
	}
	assert.Equal(t, "forsen2", cs.Name)
	assert.Equal(t, "?", cs.Prefix)
	assert.False(t, cs.JoinedAt.IsZero())

	if err := s.SetPrefix(ctx, "100", ""); err != nil {
		t.Fatalf("clear prefix: %v", err)
	}
	prefix, _ = s.ChannelPrefix(ctx, "100")
	assert.Empty(t, prefix)
}

func TestUnknownChannelWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	if err := s.SetPrefix(ctx, "missing", "?"); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("SetPrefix err = %v, want ErrChannelNotFound", err)
	}
	if err := s.DeleteChannel(ctx, "missing"); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("DeleteChannel err = %v, want ErrChannelNotFound", err)
	}
	if _, err := s.Channel(ctx, "missing"); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("Channel err = %v, want ErrChannelNotFound", err)
	}
}

func TestDeleteChannel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	for _, ch := range []chat.Channel{{ID: "2", Name: "b"}, {ID: "1", Name: "a"}} {
		if err := s.UpsertChannel(ctx, ch); err != nil {
			t.Fatalf("UpsertChannel: %v", err)
		}
	}
	if err := s.DeleteChannel(ctx, "2"); err != nil {
		t.Fatalf("DeleteChannel: %v", err)
	}
	channels, err := s.Channels(ctx)
	if err != nil {
		t.Fatalf("Channels: %v", err)
	}
	if assert.Len(t, channels, 1) {
		assert.Equal(t, "a", channels[0].Name)
	}
}

func TestUserPermissions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	u, err := s.User(ctx, "42", "okayeg")
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	assert.Equal(t, []string{command.PermissionDefault}, u.Permissions)
	assert.Equal(t, "okayeg", u.Name)

	if err := s.GrantPermission(ctx, "42", command.PermissionChatError); err != nil {
		t.Fatalf("GrantPermission: %v", err)
	}
	if err := s.GrantPermission(ctx, "42", command.PermissionChatError); err != nil {
		t.Fatalf("GrantPermission twice: %v", err)
	}
	u, _ = s.User(ctx, "42", "okayeg")
	assert.Equal(t, []string{command.PermissionDefault, command.PermissionChatError}, u.Permissions)
	assert.True(t, u.HasPermission(command.PermissionChatError))

	if err := s.RevokePermission(ctx, "42", command.PermissionDefault); err != nil {
		t.Fatalf("RevokePermission: %v", err)
	}
	u, _ = s.User(ctx, "42", "")
	assert.Equal(t, []string{command.PermissionChatError}, u.Permissions)
	assert.Equal(t, "42", u.Name, "granted users are stored under their id")
}

func TestGrantRejectsEmptyUser(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	assert.Error(t, s.GrantPermission(context.Background(), "", "x"))
}
