package api

import "github.com/mattjoyce/fumo/internal/audit"

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Commands      int    `json:"commands"`
	Subscribers   int    `json:"event_subscribers"`
}

// CommandInfo describes one registered command.
type CommandInfo struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	CooldownSeconds float64  `json:"cooldown_seconds"`
	Permissions     []string `json:"permissions"`
	Flags           []string `json:"flags"`
	Usage           []string `json:"usage"`
}

// CommandsResponse is returned by GET /commands.
type CommandsResponse struct {
	Commands []CommandInfo `json:"commands"`
}

// LogsResponse is returned by GET /logs.
type LogsResponse struct {
	Records []audit.Record `json:"records"`
}
