// Package command defines chat commands and the registry that resolves an
// identifier to a fresh command instance.
//
// A command is declared once at startup as a Definition: an anchored name
// pattern, behaviour flags, required permissions, a cooldown, optional
// middleware and a Factory. Definitions are added to a Builder in a fixed
// order; Build freezes them into a Registry that is shared read-only by every
// concurrent dispatch.
//
// Lookup tests patterns in registration order, so when two patterns match the
// same identifier the earlier registration wins.
//
// Each invocation gets its own Command from the Factory, built against the
// Capabilities it needs. CreateInvocation hands back a release func that must
// run exactly once on every exit path; calling it more than once is a no-op.
//
// Commands report user-facing failures with InvalidInput, NotFound and
// Upstream errors. Any other error, or a panic, is an internal fault.
package command
