package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/command"
)

type staticEndpoints struct {
	endpoint string
	err      error
}

func (s staticEndpoints) ModerationEndpoint(context.Context, string) (string, error) {
	return s.endpoint, s.err
}

type stubChecker struct {
	blocked bool
	reason  string
	err     error
	calls   int
}

func (s *stubChecker) Check(context.Context, string, string) (bool, string, error) {
	s.calls++
	return s.blocked, s.reason, s.err
}

var (
	channel = chat.Channel{ID: "100", Name: "forsen"}
	plain   = &command.Definition{Pattern: "say"}
)

func TestApplyGlobalPattern(t *testing.T) {
	f, err := New([]string{"badword"}, nil, nil, nil)
	require.NoError(t, err)

	got, err := f.Apply(context.Background(), plain, "you are a badword", channel)
	require.NoError(t, err)
	assert.True(t, got.Blocked)
	assert.Equal(t, ReasonGlobal, got.Reason)
	assert.Equal(t, "FeelsOkayMan blocked by 👉 Global banphrase", got.Text)
	assert.NotContains(t, got.Text, "badword")
}

func TestApplyPassesCleanText(t *testing.T) {
	checker := &stubChecker{}
	f, err := New([]string{"badword"}, staticEndpoints{}, checker, nil)
	require.NoError(t, err)

	got, err := f.Apply(context.Background(), plain, "hello", channel)
	require.NoError(t, err)
	assert.Equal(t, Filtered{Text: "hello"}, got)
	assert.Zero(t, checker.calls, "no endpoint configured")
}

func TestApplyIgnoreFlag(t *testing.T) {
	checker := &stubChecker{blocked: true, reason: "x"}
	f, err := New([]string{"badword"}, staticEndpoints{endpoint: "pajbot.example"}, checker, nil)
	require.NoError(t, err)

	def := &command.Definition{Pattern: "help", Flags: command.FlagIgnoreContentFilter}
	got, err := f.Apply(context.Background(), def, "badword", channel)
	require.NoError(t, err)
	assert.Equal(t, Filtered{Text: "badword"}, got)
	assert.Zero(t, checker.calls)
}

func TestApplyExternalChecker(t *testing.T) {
	tests := []struct {
		name    string
		checker *stubChecker
		lookup  staticEndpoints
		want    Filtered
	}{
		{
			name:    "blocked",
			checker: &stubChecker{blocked: true, reason: "racism"},
			lookup:  staticEndpoints{endpoint: "pajbot.example"},
			want:    Filtered{Text: Redact("racism"), Blocked: true, Reason: "racism"},
		},
		{
			name:    "allowed",
			checker: &stubChecker{},
			lookup:  staticEndpoints{endpoint: "pajbot.example"},
			want:    Filtered{Text: "hello"},
		},
		{
			name:    "checker failure fails closed",
			checker: &stubChecker{err: errors.New("connection refused")},
			lookup:  staticEndpoints{endpoint: "pajbot.example"},
			want:    Filtered{Text: Redact(ReasonInternal), Blocked: true, Reason: ReasonInternal},
		},
		{
			name:    "lookup failure fails closed",
			checker: &stubChecker{},
			lookup:  staticEndpoints{err: errors.New("db locked")},
			want:    Filtered{Text: Redact(ReasonInternal), Blocked: true, Reason: ReasonInternal},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(nil, tt.lookup, tt.checker, nil)
			require.NoError(t, err)
			got, err := f.Apply(context.Background(), plain, "hello", channel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f, err := New(nil, staticEndpoints{endpoint: "pajbot.example"}, &stubChecker{err: context.Canceled}, nil)
	require.NoError(t, err)

	_, err = f.Apply(ctx, plain, "hello", channel)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New([]string{"("}, nil, nil, nil)
	assert.Error(t, err)
}
