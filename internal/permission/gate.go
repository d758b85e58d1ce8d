// Package permission decides whether a user may run a command.
package permission

import (
	"slices"

	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/command"
)

// Allowed reports whether user may run def. Holders of command.PermissionAdmin
// pass every check.
func Allowed(user chat.User, def *command.Definition, isModerator, isBroadcaster bool) bool {
	if user.HasPermission(command.PermissionAdmin) {
		return true
	}
	if !hasAll(user.Permissions, def.Permissions) {
		return false
	}
	if def.ModeratorOnly() && !isModerator && !isBroadcaster {
		return false
	}
	if def.BroadcasterOnly() && !isBroadcaster {
		return false
	}
	return true
}

func hasAll(held, required []string) bool {
	for _, p := range required {
		if !slices.Contains(held, p) {
			return false
		}
	}
	return true
}
