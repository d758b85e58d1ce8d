package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFactory(msg string) Factory {
	return func(Capabilities) Command {
		return Func(func(context.Context, *Invocation) (Result, error) {
			return Text(msg), nil
		})
	}
}

type releaseCounter struct {
	released int
}

func (c *releaseCounter) Execute(context.Context, *Invocation) (Result, error) {
	return Result{}, nil
}

func (c *releaseCounter) Release() {
	c.released++
}

func TestRegisterRejectsInvalidDefinitions(t *testing.T) {
	b := NewBuilder(5 * time.Second)
	require.NoError(t, b.Register(Definition{Pattern: "ping", New: staticFactory("pong")}))

	tests := []struct {
		name string
		def  Definition
	}{
		{"empty pattern", Definition{New: staticFactory("x")}},
		{"invalid regex", Definition{Pattern: "(", New: staticFactory("x")}},
		{"duplicate", Definition{Pattern: "ping", New: staticFactory("x")}},
		{"no factory", Definition{Pattern: "nofactory"}},
		{"negative cooldown", Definition{Pattern: "neg", Cooldown: -time.Second, New: staticFactory("x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Register(tt.def)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
	assert.Equal(t, 1, b.Build().Len())
}

func TestRegisterAppliesDefaults(t *testing.T) {
	b := NewBuilder(7 * time.Second)
	require.NoError(t, b.Register(Definition{Pattern: "ping", New: staticFactory("pong")}))
	require.NoError(t, b.Register(Definition{Pattern: "help", Cooldown: 10 * time.Second, Permissions: []string{"x"}, New: staticFactory("h")}))

	reg := b.Build()
	ping, ok := reg.Lookup("ping")
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, ping.Cooldown)
	assert.Equal(t, []string{PermissionDefault}, ping.Permissions)

	help, ok := reg.Lookup("help")
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, help.Cooldown)
	assert.Equal(t, []string{"x"}, help.Permissions)
}

func TestLookupAnchorsAtStart(t *testing.T) {
	reg := NewBuilder(time.Second).MustRegister(
		Definition{Pattern: "[Pp]ing", New: staticFactory("pong")},
	).Build()

	_, ok := reg.Lookup("Ping")
	assert.True(t, ok)
	_, ok = reg.Lookup("pingpong")
	assert.True(t, ok, "prefix match is enough")
	_, ok = reg.Lookup("xping")
	assert.False(t, ok)
	_, ok = reg.Lookup("")
	assert.False(t, ok)
}

func TestLookupAlternationAnchorsEveryBranch(t *testing.T) {
	reg := NewBuilder(time.Second).MustRegister(
		Definition{Pattern: "leave|part", New: staticFactory("bye")},
	).Build()

	_, ok := reg.Lookup("part")
	assert.True(t, ok)
	_, ok = reg.Lookup("depart")
	assert.False(t, ok)
}

func TestLookupEarliestRegistrationWins(t *testing.T) {
	for i := 0; i < 20; i++ {
		reg := NewBuilder(time.Second).MustRegister(
			Definition{Pattern: "pi", New: staticFactory("first")},
			Definition{Pattern: "ping", New: staticFactory("second")},
		).Build()

		def, ok := reg.Lookup("ping")
		require.True(t, ok)
		assert.Equal(t, "pi", def.Name())
	}
}

func TestAllKeepsRegistrationOrder(t *testing.T) {
	reg := NewBuilder(time.Second).MustRegister(
		Definition{Pattern: "c", New: staticFactory("c")},
		Definition{Pattern: "a", New: staticFactory("a")},
		Definition{Pattern: "b", New: staticFactory("b")},
	).Build()

	var names []string
	for _, def := range reg.All() {
		names = append(names, def.Name())
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestBuildIsIsolatedFromLaterRegistrations(t *testing.T) {
	b := NewBuilder(time.Second)
	require.NoError(t, b.Register(Definition{Pattern: "a", New: staticFactory("a")}))
	reg := b.Build()
	require.NoError(t, b.Register(Definition{Pattern: "b", New: staticFactory("b")}))

	assert.Equal(t, 1, reg.Len())
}

func TestCreateInvocationBuildsFreshInstances(t *testing.T) {
	var built []*releaseCounter
	reg := NewBuilder(time.Second).MustRegister(Definition{
		Pattern: "count",
		New: func(Capabilities) Command {
			c := &releaseCounter{}
			built = append(built, c)
			return c
		},
	}).Build()

	inst1, release1, ok := reg.CreateInvocation("count", Capabilities{})
	require.True(t, ok)
	inst2, release2, ok := reg.CreateInvocation("count", Capabilities{})
	require.True(t, ok)
	assert.NotSame(t, inst1.Command, inst2.Command)
	assert.Equal(t, "count", inst1.Definition.Name())

	release1()
	release1()
	release2()
	require.Len(t, built, 2)
	assert.Equal(t, 1, built[0].released)
	assert.Equal(t, 1, built[1].released)
}

func TestCreateInvocationMiss(t *testing.T) {
	reg := NewBuilder(time.Second).Build()
	inst, release, ok := reg.CreateInvocation("nothing", Capabilities{})
	assert.False(t, ok)
	assert.Nil(t, inst)
	assert.Nil(t, release)
}

func TestCreateInvocationInjectsRegistry(t *testing.T) {
	var got *Registry
	reg := NewBuilder(time.Second).MustRegister(Definition{
		Pattern: "help",
		New: func(caps Capabilities) Command {
			got = caps.Registry
			return Func(func(context.Context, *Invocation) (Result, error) { return Result{}, nil })
		},
	}).Build()

	_, release, ok := reg.CreateInvocation("help", Capabilities{})
	require.True(t, ok)
	release()
	assert.Same(t, reg, got)
}
