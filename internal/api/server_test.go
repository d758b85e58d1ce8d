package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/fumo/internal/audit"
	"github.com/mattjoyce/fumo/internal/command"
	"github.com/mattjoyce/fumo/internal/events"
)

type fakeLogs struct {
	records []audit.Record
	err     error
	last    audit.Query
}

func (f *fakeLogs) Recent(_ context.Context, q audit.Query) ([]audit.Record, error) {
	f.last = q
	return f.records, f.err
}

func testRegistry(t *testing.T) *command.Registry {
	t.Helper()
	noop := func(command.Capabilities) command.Command {
		return command.Func(func(context.Context, *command.Invocation) (command.Result, error) {
			return command.Text("ok"), nil
		})
	}
	b := command.NewBuilder(5 * time.Second)
	b.MustRegister(
		command.Definition{Pattern: "[Pp]ing", Flags: command.FlagReply, Description: "Pong <b>", New: noop},
		command.Definition{Pattern: "prefix", Flags: command.FlagModeratorOnly, Usage: []string{"prefix <new>"}, New: noop},
	)
	return b.Build()
}

func newTestServer(t *testing.T, apiKey string, logs LogReader, hub *events.Hub) *Server {
	t.Helper()
	return New(Config{APIKey: apiKey, ServiceName: "fumo-test"}, testRegistry(t), logs, hub, nil)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, "", nil, nil)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body HealthzResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Commands)
	assert.Equal(t, 0, body.Subscribers)
}

func TestCommandsJSON(t *testing.T) {
	srv := newTestServer(t, "", nil, nil)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/commands", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body CommandsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Commands, 2)

	ping := body.Commands[0]
	assert.Equal(t, "[Pp]ing", ping.Name)
	assert.Equal(t, 5.0, ping.CooldownSeconds)
	assert.Equal(t, []string{"default"}, ping.Permissions)
	assert.Equal(t, []string{"reply"}, ping.Flags)
	assert.Empty(t, ping.Usage)

	prefix := body.Commands[1]
	assert.Equal(t, []string{"moderator_only"}, prefix.Flags)
	assert.Equal(t, []string{"prefix <new>"}, prefix.Usage)
}

func TestCommandsPageEscapesHTML(t *testing.T) {
	srv := newTestServer(t, "", nil, nil)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/commands/index.html", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	body := rr.Body.String()
	assert.Contains(t, body, "fumo-test commands")
	assert.Contains(t, body, "<code>prefix &lt;new&gt;</code>")
	assert.Contains(t, body, "Pong &lt;b&gt;")
}

func TestLogsNotMountedWithoutKey(t *testing.T) {
	srv := newTestServer(t, "", &fakeLogs{}, nil)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/logs", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLogsRequiresBearer(t *testing.T) {
	logs := &fakeLogs{records: []audit.Record{{ID: "a", Command: "[Pp]ing", Success: true, Result: "pong"}}}
	srv := newTestServer(t, "secret", logs, nil)
	h := srv.Handler()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "ok", header: "Bearer secret", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/logs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestLogsQuery(t *testing.T) {
	logs := &fakeLogs{records: []audit.Record{{ID: "a", Command: "[Pp]ing", Success: true, Result: "pong"}}}
	srv := newTestServer(t, "secret", logs, nil)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/logs?limit=5&channel_id=c1&command=help", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, audit.Query{Limit: 5, ChannelID: "c1", Command: "help"}, logs.last)

	var body LogsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, "pong", body.Records[0].Result)

	req = httptest.NewRequest(http.MethodGet, "/logs?limit=zero", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	logs.err = errors.New("db closed")
	req = httptest.NewRequest(http.MethodGet, "/logs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestOpenAPIListsLogsOnlyWhenMounted(t *testing.T) {
	for _, tc := range []struct {
		key      string
		wantLogs bool
	}{{"", false}, {"secret", true}} {
		srv := newTestServer(t, tc.key, &fakeLogs{}, nil)
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var doc struct {
			OpenAPI string                     `json:"openapi"`
			Paths   map[string]json.RawMessage `json:"paths"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
		assert.Equal(t, "3.1.0", doc.OpenAPI)
		assert.Contains(t, doc.Paths, "/commands")
		_, hasLogs := doc.Paths["/logs"]
		assert.Equal(t, tc.wantLogs, hasLogs)
	}
}

func TestEventsStreamReplaysBacklog(t *testing.T) {
	hub := events.NewHub(10)
	hub.Publish(events.TypeCommandExecuted, events.CommandOutcome{Command: "first"})
	hub.Publish(events.TypeCommandBlocked, events.CommandOutcome{Command: "second", Reason: "Global banphrase"})

	ts := httptest.NewServer(newTestServer(t, "", nil, hub).Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	require.Len(t, lines, 3)
	assert.Equal(t, "id: 2", lines[0])
	assert.Equal(t, "event: command.blocked", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "data: "))
	assert.Contains(t, lines[2], `"reason":"Global banphrase"`)
}

func TestEventsWebSocket(t *testing.T) {
	hub := events.NewHub(10)
	ts := httptest.NewServer(newTestServer(t, "", nil, hub).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(events.TypeCommandFailed, events.CommandOutcome{Command: "help", Success: false})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.TypeCommandFailed, ev.Type)

	var outcome events.CommandOutcome
	require.NoError(t, json.Unmarshal(ev.Data, &outcome))
	assert.Equal(t, "help", outcome.Command)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
