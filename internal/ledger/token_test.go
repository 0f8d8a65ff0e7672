package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenTransfer(t *testing.T) {
	token := NewToken("Test Dollar", "TUSD", 1_000, "alice")

	require.NoError(t, token.Transfer("alice", "bob", 400))
	assert.Equal(t, uint64(600), token.BalanceOf("alice"))
	assert.Equal(t, uint64(400), token.BalanceOf("bob"))

	assert.ErrorIs(t, token.Transfer("bob", "alice", 500), ErrInsufficientBalance)
	assert.Equal(t, uint64(400), token.BalanceOf("bob"))
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	token := NewToken("Test Dollar", "TUSD", 1_000, "alice")

	assert.ErrorIs(t, token.TransferFrom("escrow", "alice", "escrow", 100), ErrInsufficientAllowance)

	token.Approve("alice", "escrow", 150)
	require.NoError(t, token.TransferFrom("escrow", "alice", "escrow", 100))
	assert.Equal(t, uint64(50), token.Allowance("alice", "escrow"))
	assert.Equal(t, uint64(100), token.BalanceOf("escrow"))

	// The remaining allowance no longer covers this pull.
	assert.ErrorIs(t, token.TransferFrom("escrow", "alice", "escrow", 100), ErrInsufficientAllowance)
}

func TestTransferFromLeavesAllowanceOnBalanceFailure(t *testing.T) {
	token := NewToken("Test Dollar", "TUSD", 100, "alice")
	token.Approve("alice", "escrow", 500)

	assert.ErrorIs(t, token.TransferFrom("escrow", "alice", "escrow", 200), ErrInsufficientBalance)
	assert.Equal(t, uint64(500), token.Allowance("alice", "escrow"))
}

func TestApproveReplacesAllowance(t *testing.T) {
	token := NewToken("Test Dollar", "TUSD", 1_000, "alice")
	token.Approve("alice", "escrow", 300)
	token.Approve("alice", "escrow", 10)
	assert.Equal(t, uint64(10), token.Allowance("alice", "escrow"))
}

func TestStoreRejectsDuplicateSymbols(t *testing.T) {
	store := NewStore()

	_, err := store.CreateToken("First", "TOK", 100, "alice")
	require.NoError(t, err)
	_, err = store.CreateToken("Second", "TOK", 200, "bob")
	assert.Error(t, err)

	got, ok := store.Token("TOK")
	require.True(t, ok)
	assert.Equal(t, "First", got.Name())
}

func TestStoreCreatesUnitLedgers(t *testing.T) {
	store := NewStore()

	units, err := store.CreateUnitLedger("Canal House Units", "UNIT0", 1_000_000, "iro:abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), units.TotalSupply())
	assert.Equal(t, uint64(1_000_000), units.BalanceOf("iro:abc"))

	// Registered under its symbol like any other token.
	_, ok := store.Token("UNIT0")
	assert.True(t, ok)
}

func TestTitleRegistry(t *testing.T) {
	registry := NewTitleRegistry()

	first := registry.SafeMint("alice", `{"deed":"A"}`)
	second := registry.SafeMint("bob", `{"deed":"B"}`)
	assert.NotEqual(t, first, second)

	owner, err := registry.OwnerOf(first)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	_, err = registry.OwnerOf(99)
	assert.ErrorIs(t, err, ErrUnknownTitle)

	assert.ErrorIs(t, registry.SafeTransferFrom("bob", "carol", first), ErrNotOwner)
	require.NoError(t, registry.SafeTransferFrom("alice", "carol", first))

	owner, err = registry.OwnerOf(first)
	require.NoError(t, err)
	assert.Equal(t, "carol", owner)
}
