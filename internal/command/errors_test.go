package command

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	upstreamCause := errors.New("503")
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{"plain error", errors.New("boom"), KindInternal, false},
		{"invalid input", InvalidInput("need %d args", 2), KindInvalidInput, true},
		{"not found", NotFound("user %s not found", "x"), KindNotFound, true},
		{"upstream", Upstream(upstreamCause, "service down"), KindUpstream, true},
		{"wrapped", fmt.Errorf("ctx: %w", NotFound("gone")), KindNotFound, true},
		{"nil", nil, KindInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.expected, IsExpected(tt.err))
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("503")
	err := Upstream(cause, "service down")
	assert.Equal(t, "service down", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "need 2 args", InvalidInput("need %d args", 2).Error())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "internal", KindInternal.String())
	assert.Equal(t, "invalid_input", KindInvalidInput.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "upstream", KindUpstream.String())
}

func TestFlags(t *testing.T) {
	f := FlagReply | FlagBroadcasterOnly
	assert.True(t, f.Has(FlagReply))
	assert.True(t, f.Has(FlagBroadcasterOnly))
	assert.False(t, f.Has(FlagModeratorOnly))
	assert.False(t, f.Has(FlagNone))
	assert.Equal(t, "reply|broadcaster_only", f.String())
	assert.Equal(t, "none", FlagNone.String())
}
