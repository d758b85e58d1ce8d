package api

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/mattjoyce/fumo/internal/audit"
)

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Commands:      s.registry.Len(),
		Subscribers:   s.events.Subscribers(),
	})
}

func (s *Server) commandInfos() []CommandInfo {
	defs := s.registry.All()
	out := make([]CommandInfo, 0, len(defs))
	for _, def := range defs {
		flags := def.Flags.Names()
		if flags == nil {
			flags = []string{}
		}
		usage := def.Usage
		if usage == nil {
			usage = []string{}
		}
		out = append(out, CommandInfo{
			Name:            def.Name(),
			Description:     def.Description,
			CooldownSeconds: def.Cooldown.Seconds(),
			Permissions:     def.Permissions,
			Flags:           flags,
			Usage:           usage,
		})
	}
	return out
}

func (s *Server) handleCommands(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, CommandsResponse{Commands: s.commandInfos()})
}

var commandsPage = template.Must(template.New("commands").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Service}} commands</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border-bottom: 1px solid #ddd; padding: .4rem .6rem; text-align: left; vertical-align: top; }
code { background: #f4f4f4; padding: 0 .2rem; }
</style>
</head>
<body>
<h1>{{.Service}} commands</h1>
<table>
<thead><tr><th>Command</th><th>Description</th><th>Cooldown</th><th>Permissions</th><th>Flags</th><th>Usage</th></tr></thead>
<tbody>
{{- range .Commands}}
<tr>
<td><code>{{.Name}}</code></td>
<td>{{.Description}}</td>
<td>{{.CooldownSeconds}}s</td>
<td>{{range $i, $p := .Permissions}}{{if $i}}, {{end}}{{$p}}{{end}}</td>
<td>{{range $i, $f := .Flags}}{{if $i}}, {{end}}{{$f}}{{end}}</td>
<td>{{range .Usage}}<code>{{.}}</code><br>{{end}}</td>
</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

func (s *Server) handleCommandsPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := commandsPage.Execute(w, struct {
		Service  string
		Commands []CommandInfo
	}{
		Service:  s.config.ServiceName,
		Commands: s.commandInfos(),
	})
	if err != nil {
		s.logger.Error("render commands page", "error", err)
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := audit.Query{
		ChannelID: r.URL.Query().Get("channel_id"),
		Command:   r.URL.Query().Get("command"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		q.Limit = limit
	}

	records, err := s.logs.Recent(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to read execution log", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read execution log")
		return
	}
	respondJSON(w, http.StatusOK, LogsResponse{Records: records})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc(s.config.ServiceName, s.config.APIKey != "" && s.logs != nil))
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
