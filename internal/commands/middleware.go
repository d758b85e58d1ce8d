package commands

import (
	"context"

	"github.com/mattjoyce/fumo/internal/command"
)

// RequireArgs vetoes invocations with fewer than n arguments.
func RequireArgs(n int, usage string) command.Middleware {
	return command.MiddlewareFunc(func(_ context.Context, inv *command.Invocation) (string, error) {
		if len(inv.Args) < n {
			return "Usage: " + usage, nil
		}
		return "", nil
	})
}
