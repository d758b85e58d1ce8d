// Package dispatch turns inbound chat messages into command executions.
//
// For every message the Dispatcher resolves the channel prefix, parses the
// identifier and arguments, looks the command up, runs its middleware, checks
// permissions and cooldowns, executes a fresh command instance, filters the
// output and hands the result to the outbound sender.
//
// Outcomes:
//   - Not a command, unknown command, permission denied, on cooldown: nothing
//     is sent and nothing is recorded.
//   - Middleware veto: the veto text is sent and recorded as a success.
//   - Success: the filtered text is sent; the unfiltered text is recorded.
//   - Expected failure (command.IsExpected): the error text is sent verbatim.
//   - Internal failure or panic: a generic message is sent unless the user
//     holds user.chat_error; the real error is recorded and logged.
//   - Caller cancellation: nothing is sent or recorded and ErrCancelled is
//     returned.
//
// The command instance is released exactly once on every path.
package dispatch
