// Package settings persists per-channel overrides and per-user permissions.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/command"
)

var ErrChannelNotFound = errors.New("channel not found")

// ChannelSettings is one row of the channels table.
type ChannelSettings struct {
	ID                 string
	Name               string
	Prefix             string
	ModerationEndpoint string
	JoinedAt           time.Time
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// ChannelPrefix returns the channel's prefix override, or "" if unset.
func (s *Store) ChannelPrefix(ctx context.Context, channelID string) (string, error) {
	return s.channelColumn(ctx, channelID, "prefix")
}

// ModerationEndpoint returns the channel's external moderation endpoint, or
// "" if unset.
func (s *Store) ModerationEndpoint(ctx context.Context, channelID string) (string, error) {
	return s.channelColumn(ctx, channelID, "moderation_endpoint")
}

func (s *Store) channelColumn(ctx context.Context, channelID, column string) (string, error) {
	var value string
	// column is one of two constants above, never user input.
	err := s.db.QueryRowContext(ctx, "SELECT "+column+" FROM channels WHERE id = ?;", channelID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read channel %s: %w", column, err)
	}
	return value, nil
}

// Channel returns the stored settings for channelID.
func (s *Store) Channel(ctx context.Context, channelID string) (ChannelSettings, error) {
	var (
		cs     ChannelSettings
		joined string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, prefix, moderation_endpoint, joined_at
FROM channels WHERE id = ?;`, channelID).Scan(&cs.ID, &cs.Name, &cs.Prefix, &cs.ModerationEndpoint, &joined)
	if errors.Is(err, sql.ErrNoRows) {
		return ChannelSettings{}, ErrChannelNotFound
	}
	if err != nil {
		return ChannelSettings{}, fmt.Errorf("read channel: %w", err)
	}
	cs.JoinedAt, _ = time.Parse(time.RFC3339Nano, joined)
	return cs, nil
}

// Channels lists every joined channel ordered by name.
func (s *Store) Channels(ctx context.Context) ([]ChannelSettings, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, prefix, moderation_endpoint, joined_at
FROM channels ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []ChannelSettings
	for rows.Next() {
		var (
			cs     ChannelSettings
			joined string
		)
		if err := rows.Scan(&cs.ID, &cs.Name, &cs.Prefix, &cs.ModerationEndpoint, &joined); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		cs.JoinedAt, _ = time.Parse(time.RFC3339Nano, joined)
		out = append(out, cs)
	}
	return out, rows.Err()
}

// UpsertChannel records a joined channel, refreshing its name. Existing
// overrides are kept.
func (s *Store) UpsertChannel(ctx context.Context, channel chat.Channel) error {
	if channel.ID == "" {
		return fmt.Errorf("channel id is empty")
	}
	now := s.now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO channels(id, name, joined_at)
VALUES(?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name;
`, channel.ID, channel.Name, now)
	if err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}
	return nil
}

// DeleteChannel forgets a channel and its overrides.
func (s *Store) DeleteChannel(ctx context.Context, channelID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM channels WHERE id = ?;", channelID)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return requireRow(res)
}

// SetPrefix sets the channel's prefix override; "" clears it.
func (s *Store) SetPrefix(ctx context.Context, channelID, prefix string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE channels SET prefix = ? WHERE id = ?;", prefix, channelID)
	if err != nil {
		return fmt.Errorf("set prefix: %w", err)
	}
	return requireRow(res)
}

// SetModerationEndpoint sets the channel's moderation endpoint; "" disables
// the external check.
func (s *Store) SetModerationEndpoint(ctx context.Context, channelID, endpoint string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE channels SET moderation_endpoint = ? WHERE id = ?;", endpoint, channelID)
	if err != nil {
		return fmt.Errorf("set moderation endpoint: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrChannelNotFound
	}
	return nil
}

// User returns the stored user with their permissions. Unknown users get the
// default permission set. name is used when the user is not stored yet.
func (s *Store) User(ctx context.Context, userID, name string) (chat.User, error) {
	var (
		storedName string
		raw        string
	)
	err := s.db.QueryRowContext(ctx, "SELECT name, permissions FROM users WHERE id = ?;", userID).Scan(&storedName, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.User{ID: userID, Name: name, Permissions: []string{command.PermissionDefault}}, nil
	}
	if err != nil {
		return chat.User{}, fmt.Errorf("read user: %w", err)
	}
	perms, err := decodePermissions(raw)
	if err != nil {
		return chat.User{}, fmt.Errorf("decode permissions for user=%q: %w", userID, err)
	}
	if name == "" {
		name = storedName
	}
	return chat.User{ID: userID, Name: name, Permissions: perms}, nil
}

// GrantPermission adds permission to the user, creating the user if needed.
func (s *Store) GrantPermission(ctx context.Context, userID, permission string) error {
	return s.updatePermissions(ctx, userID, func(perms []string) []string {
		if slices.Contains(perms, permission) {
			return perms
		}
		return append(perms, permission)
	})
}

// RevokePermission removes permission from the user.
func (s *Store) RevokePermission(ctx context.Context, userID, permission string) error {
	return s.updatePermissions(ctx, userID, func(perms []string) []string {
		return slices.DeleteFunc(perms, func(p string) bool { return p == permission })
	})
}

func (s *Store) updatePermissions(ctx context.Context, userID string, mutate func([]string) []string) error {
	if userID == "" {
		return fmt.Errorf("user id is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	name := userID
	perms := []string{command.PermissionDefault}
	var raw string
	err = tx.QueryRowContext(ctx, "SELECT name, permissions FROM users WHERE id = ?;", userID).Scan(&name, &raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("read user: %w", err)
	default:
		if perms, err = decodePermissions(raw); err != nil {
			return fmt.Errorf("decode permissions for user=%q: %w", userID, err)
		}
	}

	encoded, err := json.Marshal(mutate(perms))
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
INSERT INTO users(id, name, permissions, updated_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  permissions = excluded.permissions,
  updated_at = excluded.updated_at;
`, userID, name, string(encoded), now)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func decodePermissions(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var perms []string
	if err := json.Unmarshal([]byte(raw), &perms); err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	return perms, nil
}
