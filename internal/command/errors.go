package command

import (
	"errors"
	"fmt"
)

// ErrInvalidDefinition is wrapped by Builder.Register failures.
var ErrInvalidDefinition = errors.New("invalid command definition")

// Kind classifies command failures.
type Kind int

const (
	// KindInternal is any fault the command did not anticipate.
	KindInternal Kind = iota
	// KindInvalidInput means the arguments had the wrong shape.
	KindInvalidInput
	// KindNotFound means the entity the user asked about does not exist.
	KindNotFound
	// KindUpstream means a dependency answered with a structured error.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is an expected, user-facing failure. Message is sent to chat verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput reports badly shaped arguments.
func InvalidInput(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing target entity.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Upstream reports a structured error returned by a dependency. message is
// what chat sees; err is kept for the operational log.
func Upstream(err error, message string) error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf classifies err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsExpected reports whether err is a user-facing failure.
func IsExpected(err error) bool {
	return err != nil && KindOf(err) != KindInternal
}
