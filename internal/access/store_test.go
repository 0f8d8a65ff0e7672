package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrantsAreScopedPerListing(t *testing.T) {
	store := NewStore()

	store.Grant(0, "0xdd", "due_diligence")

	assert.True(t, store.Has(0, "0xdd", "due_diligence"))
	assert.False(t, store.Has(1, "0xdd", "due_diligence"))
	assert.False(t, store.Has(0, "0xdd", "director"))
	assert.False(t, store.Has(0, "0xother", "due_diligence"))
}

func TestRevoke(t *testing.T) {
	store := NewStore()

	store.Grant(3, "0xdirector", "director")
	assert.True(t, store.Has(3, "0xdirector", "director"))

	store.Revoke(3, "0xdirector", "director")
	assert.False(t, store.Has(3, "0xdirector", "director"))

	// Revoking a grant that never existed must not panic.
	store.Revoke(9, "0xnobody", "director")
}

func TestAdmins(t *testing.T) {
	store := NewStore()

	assert.False(t, store.IsAdmin("0xadmin"))
	store.AddAdmin("0xadmin")
	assert.True(t, store.IsAdmin("0xadmin"))
}
