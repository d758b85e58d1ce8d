package command

import "strings"

// Flags change how the dispatcher treats a command.
type Flags uint8

// FlagNone is the empty set.
const FlagNone Flags = 0

const (
	// FlagReply sends the result as a reply to the invoking message.
	FlagReply Flags = 1 << iota
	// FlagIgnoreContentFilter skips the outgoing content filter.
	FlagIgnoreContentFilter
	// FlagModeratorOnly restricts the command to moderators and the broadcaster.
	FlagModeratorOnly
	// FlagBroadcasterOnly restricts the command to the channel owner.
	FlagBroadcasterOnly
)

// Has reports whether all bits of f2 are set in f.
func (f Flags) Has(f2 Flags) bool {
	return f2 != 0 && f&f2 == f2
}

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagReply, "reply"},
	{FlagIgnoreContentFilter, "ignore_content_filter"},
	{FlagModeratorOnly, "moderator_only"},
	{FlagBroadcasterOnly, "broadcaster_only"},
}

// Names lists the set flags in a stable order.
func (f Flags) Names() []string {
	var out []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			out = append(out, fn.name)
		}
	}
	return out
}

func (f Flags) String() string {
	names := f.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
