package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_EmailIsLowercased(t *testing.T) {
	assert.Equal(t, "alice@example.com", Resolve("Alice@Example.COM", "evt-1"))
}

func TestResolve_UsernameKeepsCase(t *testing.T) {
	// Local usernames are matched case-sensitively against stored
	// records, so the resolver must not fold them.
	assert.Equal(t, "Alice@evt-1.event.boxoffice", Resolve("Alice", "evt-1"))
	assert.NotEqual(t, Resolve("Alice", "evt-1"), Resolve("alice", "evt-1"))
}

func TestResolve_NoTrimming(t *testing.T) {
	assert.Equal(t, " bob@evt-1.event.boxoffice", Resolve(" bob", "evt-1"))
}

func TestResolve_SameUsernameDifferentEvents(t *testing.T) {
	a := Resolve("bob", "evt-1")
	b := Resolve("bob", "evt-2")
	assert.NotEqual(t, a, b)
}

func TestResolve_NamespacesDisjoint(t *testing.T) {
	// A resolved local identifier always ends in the reserved platform
	// suffix, which no registrable email address can carry.
	local := Resolve("bob", "evt-V1StGXR8_Z5jdHi6B")
	assert.Contains(t, local, PlatformSuffix)
	assert.NotEqual(t, local, Resolve("bob@gmail.com", "evt-V1StGXR8_Z5jdHi6B"))
}

func TestIsGlobal(t *testing.T) {
	assert.True(t, IsGlobal("a@b.c"))
	assert.False(t, IsGlobal("username"))
}
