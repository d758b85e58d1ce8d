package command

import (
	"fmt"
	"regexp"
	"sync"
	"time"
)

// Builder collects definitions at process start. It is not safe for
// concurrent use; Build hands out an immutable Registry.
type Builder struct {
	defaultCooldown time.Duration
	defs            []*Definition
	seen            map[string]struct{}
}

// NewBuilder returns a builder that applies defaultCooldown to definitions
// registered without one.
func NewBuilder(defaultCooldown time.Duration) *Builder {
	return &Builder{
		defaultCooldown: defaultCooldown,
		seen:            make(map[string]struct{}),
	}
}

// Register appends def. Registration order decides which definition wins when
// several patterns match the same identifier.
func (b *Builder) Register(def Definition) error {
	if def.Pattern == "" {
		return fmt.Errorf("%w: empty pattern", ErrInvalidDefinition)
	}
	if _, dup := b.seen[def.Pattern]; dup {
		return fmt.Errorf("%w: duplicate pattern %q", ErrInvalidDefinition, def.Pattern)
	}
	if def.New == nil {
		return fmt.Errorf("%w: %q has no factory", ErrInvalidDefinition, def.Pattern)
	}
	re, err := regexp.Compile("^(?:" + def.Pattern + ")")
	if err != nil {
		return fmt.Errorf("%w: pattern %q: %v", ErrInvalidDefinition, def.Pattern, err)
	}
	if def.Cooldown < 0 {
		return fmt.Errorf("%w: %q has negative cooldown", ErrInvalidDefinition, def.Pattern)
	}

	def.matcher = re
	if def.Cooldown == 0 {
		def.Cooldown = b.defaultCooldown
	}
	if len(def.Permissions) == 0 {
		def.Permissions = []string{PermissionDefault}
	} else {
		def.Permissions = append([]string(nil), def.Permissions...)
	}
	def.Usage = append([]string(nil), def.Usage...)
	def.Middleware = append([]Middleware(nil), def.Middleware...)

	b.seen[def.Pattern] = struct{}{}
	b.defs = append(b.defs, &def)
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (b *Builder) MustRegister(defs ...Definition) *Builder {
	for _, def := range defs {
		if err := b.Register(def); err != nil {
			panic(err)
		}
	}
	return b
}

// Build freezes the registered definitions.
func (b *Builder) Build() *Registry {
	return &Registry{defs: append([]*Definition(nil), b.defs...)}
}

// Registry is the immutable set of known commands, shared read-only by every
// dispatch.
type Registry struct {
	defs []*Definition
}

// Lookup returns the earliest registered definition whose pattern matches
// identifier.
func (r *Registry) Lookup(identifier string) (*Definition, bool) {
	for _, def := range r.defs {
		if def.Matches(identifier) {
			return def, true
		}
	}
	return nil, false
}

// All returns the definitions in registration order.
func (r *Registry) All() []*Definition {
	return append([]*Definition(nil), r.defs...)
}

// Len reports how many commands are registered.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Instance is a command built for exactly one invocation.
type Instance struct {
	Definition *Definition
	Command    Command
}

// CreateInvocation builds a fresh command for identifier. The returned release
// func must be called once the invocation ends; extra calls are no-ops.
func (r *Registry) CreateInvocation(identifier string, caps Capabilities) (*Instance, func(), bool) {
	def, ok := r.Lookup(identifier)
	if !ok {
		return nil, nil, false
	}
	if caps.Registry == nil {
		caps.Registry = r
	}
	cmd := def.New(caps)

	var once sync.Once
	release := func() {
		once.Do(func() {
			if rel, ok := cmd.(Releaser); ok {
				rel.Release()
			}
		})
	}
	return &Instance{Definition: def, Command: cmd}, release, true
}
