// Package audit persists one record per dispatch that produced a result.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	// NoResponse is stored when a command succeeded with empty text.
	NoResponse = "(No Response)"

	// timeFormat is fixed width so created_at sorts and compares as text.
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

	// Results longer than maxResultBytes are cut and end in truncatedMarker.
	maxResultBytes  = 16 * 1024
	truncatedMarker = "…(truncated)"
	maxRecentLimit = 500
)

// Record is one command execution. Result holds the text the command
// produced, before content filtering.
type Record struct {
	ID        string        `json:"id"`
	Command   string        `json:"command"`
	ChannelID string        `json:"channel_id"`
	UserID    string        `json:"user_id"`
	Success   bool          `json:"success"`
	Input     []string      `json:"input"`
	Result    string        `json:"result"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Persist inserts rec. Records with an empty id or result are rejected.
func (s *Store) Persist(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is empty")
	}
	if rec.Result == "" {
		return fmt.Errorf("record %s has no result", rec.ID)
	}

	input := rec.Input
	if input == nil {
		input = []string{}
	}
	rawInput, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}

	result := truncateResult(rec.Result)
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO command_execution_log(
  id, command, channel_id, user_id, success, input, result, duration_ms, created_at
)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
`, rec.ID, rec.Command, rec.ChannelID, rec.UserID, rec.Success, string(rawInput), result,
		rec.Duration.Milliseconds(), createdAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert command_execution_log: %w", err)
	}
	return nil
}

func truncateResult(result string) string {
	if len(result) <= maxResultBytes {
		return result
	}
	cut := maxResultBytes - len(truncatedMarker)
	for cut > 0 && !utf8.RuneStart(result[cut]) {
		cut--
	}
	return result[:cut] + truncatedMarker
}

// Query narrows Recent. Zero fields match everything.
type Query struct {
	Limit     int
	ChannelID string
	Command   string
}

// Recent returns the newest records first.
func (s *Store) Recent(ctx context.Context, q Query) ([]Record, error) {
	limit := q.Limit
	if limit <= 0 || limit > maxRecentLimit {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, command, channel_id, user_id, success, input, result, duration_ms, created_at
FROM command_execution_log
WHERE (? = '' OR channel_id = ?)
  AND (? = '' OR command = ?)
ORDER BY created_at DESC
LIMIT ?;
`, q.ChannelID, q.ChannelID, q.Command, q.Command, limit)
	if err != nil {
		return nil, fmt.Errorf("query command_execution_log: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var (
			rec        Record
			success    int
			rawInput   string
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&rec.ID, &rec.Command, &rec.ChannelID, &rec.UserID, &success, &rawInput, &rec.Result, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan command_execution_log: %w", err)
		}
		if err := json.Unmarshal([]byte(rawInput), &rec.Input); err != nil {
			return nil, fmt.Errorf("decode input for record=%s: %w", rec.ID, err)
		}
		rec.Success = success != 0
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes records created before cutoff and reports how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM command_execution_log WHERE created_at < ?;",
		cutoff.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("prune command_execution_log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
