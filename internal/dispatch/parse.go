package dispatch

import "strings"

// Parse extracts the command identifier and arguments from a whitespace-split
// message. Only the first occurrence of prefix is removed, so "!!ping" yields
// "!ping". ok is false when the message is not an invocation.
func Parse(tokens []string, prefix string) (identifier string, args []string, ok bool) {
	if len(tokens) == 0 || prefix == "" || !strings.HasPrefix(tokens[0], prefix) {
		return "", nil, false
	}
	message := strings.Replace(strings.Join(tokens, " "), prefix, "", 1)
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}
