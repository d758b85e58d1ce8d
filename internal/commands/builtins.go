// Package commands holds the commands every fumo instance ships with.
package commands

import (
	"github.com/mattjoyce/fumo/internal/command"
)

// Definitions returns the builtin commands in registration order.
func Definitions() []command.Definition {
	return []command.Definition{
		Ping(),
		Help(),
		Prefix(),
		Leave(),
	}
}

// Register adds every builtin to b.
func Register(b *command.Builder) error {
	for _, def := range Definitions() {
		if err := b.Register(def); err != nil {
			return err
		}
	}
	return nil
}
