package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brickfolio/listing-portal/listing-portal-backend/internal/clock"
)

func TestFundingRoundReachesDistribution(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	token := newTestLedger(10_000_000, "alice")
	require.NoError(t, token.Transfer("alice", "bob", 1_000_000))

	round := NewFundingRound(token, 1_000_000, "seller", clk)
	assert.Equal(t, FundingStatusFunding, round.Status())

	token.approve("alice", round.Escrow(), 800_000)
	token.approve("bob", round.Escrow(), 200_000)
	require.NoError(t, round.Commit("alice", 800_000))
	require.NoError(t, round.Commit("bob", 200_000))

	assert.Equal(t, uint64(1_000_000), round.Committed())
	assert.Equal(t, uint64(800_000), round.CommittedBy("alice"))
	assert.Equal(t, uint64(1_000_000), token.BalanceOf(round.Escrow()))

	// Still FUNDING one second before the deadline.
	clk.Advance(FundingPeriod - time.Second)
	assert.Equal(t, FundingStatusFunding, round.Status())

	clk.Advance(time.Second)
	assert.Equal(t, FundingStatusAwaitingNFT, round.Status())

	units := newTestLedger(1_000_000, round.Escrow())
	require.NoError(t, round.bindUnitLedger(units))
	assert.Equal(t, FundingStatusDistribution, round.Status())
}

func TestCommitErrors(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	token := newTestLedger(1_000_000, "alice")
	round := NewFundingRound(token, 500_000, "seller", clk)

	assert.ErrorIs(t, round.Commit("alice", 0), ErrNoCommit)
	assert.ErrorIs(t, round.Commit("alice", 100), ErrAllowanceLow)

	token.approve("alice", round.Escrow(), 50)
	assert.ErrorIs(t, round.Commit("alice", 100), ErrAllowanceLow)

	clk.Advance(FundingPeriod)
	token.approve("alice", round.Escrow(), 100)
	assert.ErrorIs(t, round.Commit("alice", 100), ErrBadStatus)
	assert.Equal(t, uint64(0), round.Committed())
}

func TestFailedRoundRefunds(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	token := newTestLedger(1_000_000, "alice")
	round := NewFundingRound(token, 900_000, "seller", clk)

	token.approve("alice", round.Escrow(), 300_000)
	require.NoError(t, round.Commit("alice", 300_000))

	// No refunds while the round is still open.
	_, err := round.WithdrawRefunds("alice")
	assert.ErrorIs(t, err, ErrBadStatus)

	clk.Advance(FundingPeriod)
	assert.Equal(t, FundingStatusFailed, round.Status())

	amount, err := round.WithdrawRefunds("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(300_000), amount)
	assert.Equal(t, uint64(1_000_000), token.BalanceOf("alice"))

	_, err = round.WithdrawRefunds("alice")
	assert.ErrorIs(t, err, ErrBadStatus)

	_, err = round.WithdrawRefunds("nobody")
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestWithdrawFundsPaysBeneficiaryOnce(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	token := newTestLedger(1_000_000, "alice")
	round := NewFundingRound(token, 400_000, "seller", clk)

	token.approve("alice", round.Escrow(), 400_000)
	require.NoError(t, round.Commit("alice", 400_000))

	_, err := round.WithdrawFunds()
	assert.ErrorIs(t, err, ErrBadStatus)

	clk.Advance(FundingPeriod)
	require.NoError(t, round.bindUnitLedger(newTestLedger(400_000, round.Escrow())))

	amount, err := round.WithdrawFunds()
	require.NoError(t, err)
	assert.Equal(t, uint64(400_000), amount)
	assert.Equal(t, uint64(400_000), token.BalanceOf("seller"))

	_, err = round.WithdrawFunds()
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestWithdrawTokensProRata(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	token := newTestLedger(2_000_000, "alice")
	require.NoError(t, token.Transfer("alice", "bob", 200_000))
	round := NewFundingRound(token, 1_000_000, "seller", clk)

	token.approve("alice", round.Escrow(), 800_000)
	token.approve("bob", round.Escrow(), 200_000)
	require.NoError(t, round.Commit("alice", 800_000))
	require.NoError(t, round.Commit("bob", 200_000))

	clk.Advance(FundingPeriod)
	units := newTestLedger(1_000_000, round.Escrow())
	require.NoError(t, round.bindUnitLedger(units))

	got, err := round.WithdrawTokens("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(800_000), got)
	assert.Equal(t, uint64(800_000), units.BalanceOf("alice"))

	got, err = round.WithdrawTokens("bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(200_000), got)

	assert.Equal(t, uint64(0), units.BalanceOf(round.Escrow()))

	_, err = round.WithdrawTokens("alice")
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestOversubscribedDistributionScales(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	token := newTestLedger(10_000, "alice")
	require.NoError(t, token.Transfer("alice", "bob", 2_000))
	round := NewFundingRound(token, 1_000, "seller", clk)

	token.approve("alice", round.Escrow(), 600)
	token.approve("bob", round.Escrow(), 900)
	require.NoError(t, round.Commit("alice", 600))
	require.NoError(t, round.Commit("bob", 900))
	assert.Equal(t, uint64(1_500), round.Committed())

	clk.Advance(FundingPeriod)
	units := newTestLedger(1_000, round.Escrow())
	require.NoError(t, round.bindUnitLedger(units))

	// Payouts scale by goal/committedTotal, flooring.
	got, err := round.WithdrawTokens("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(400), got)

	got, err = round.WithdrawTokens("bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(600), got)

	// The beneficiary still collects the full oversubscribed custody balance.
	amount, err := round.WithdrawFunds()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500), amount)
}
