package command

import "context"

// Middleware runs before a command executes. A non-empty veto stops the
// invocation and becomes its result.
type Middleware interface {
	Check(ctx context.Context, inv *Invocation) (veto string, err error)
}

// MiddlewareFunc adapts a plain function to Middleware.
type MiddlewareFunc func(ctx context.Context, inv *Invocation) (string, error)

// Check calls f.
func (f MiddlewareFunc) Check(ctx context.Context, inv *Invocation) (string, error) {
	return f(ctx, inv)
}
