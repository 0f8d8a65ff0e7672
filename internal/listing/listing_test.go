package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brickfolio/listing-portal/listing-portal-backend/internal/clock"
)

func newListingFixture(t *testing.T) (*Listing, *testLedger, *testRegistry, testAccess, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	token := newTestLedger(100_000_000, "alice")
	access := testAccess{}
	l := NewListing(7, "Dockside Warehouse", token, 1_000_000, `{"city":"Rotterdam"}`, Deps{
		Clock:       clk,
		Access:      access,
		UnitFactory: &testFactory{},
	})
	return l, token, newTestRegistry(), access, clk
}

func TestStartIRORequiresDueDiligence(t *testing.T) {
	l, _, _, access, _ := newListingFixture(t)

	assert.ErrorIs(t, l.StartIRO("dd", "seller"), ErrUnauthorized)
	assert.Equal(t, ListingStatusNew, l.Status())

	// The grant is per listing.
	access.grant(99, "dd", CapDueDiligence)
	assert.ErrorIs(t, l.StartIRO("dd", "seller"), ErrUnauthorized)

	access.grant(7, "dd", CapDueDiligence)
	require.NoError(t, l.StartIRO("dd", "seller"))
	assert.Equal(t, ListingStatusIRO, l.Status())
	require.NotNil(t, l.IRO())
	assert.Equal(t, uint64(1_000_000), l.IRO().Goal())

	// The transition is one-way.
	assert.ErrorIs(t, l.StartIRO("dd", "seller"), ErrBadStatus)
}

func TestRegisterNFTGuards(t *testing.T) {
	l, token, registry, access, clk := newListingFixture(t)
	access.grant(7, "dd", CapDueDiligence)
	access.grant(7, "director", CapDirector)
	require.NoError(t, l.StartIRO("dd", "seller"))

	titleID := registry.mint("director")

	assert.ErrorIs(t, l.RegisterNFT("stranger", registry, titleID), ErrUnauthorized)

	// Funding still open: the round is not awaiting its NFT yet.
	assert.ErrorIs(t, l.RegisterNFT("director", registry, titleID), ErrWrongIroStage)

	token.approve("alice", l.IRO().Escrow(), 1_000_000)
	require.NoError(t, l.IRO().Commit("alice", 1_000_000))
	clk.Advance(FundingPeriod)

	require.NoError(t, l.RegisterNFT("director", registry, titleID))
	assert.Equal(t, ListingStatusLive, l.Status())

	owner, err := registry.OwnerOf(titleID)
	require.NoError(t, err)
	assert.Equal(t, l.Custody(), owner)

	boundID, held := l.TitleAsset()
	assert.True(t, held)
	assert.Equal(t, titleID, boundID)

	units := l.UnitLedger()
	require.NotNil(t, units)
	assert.Equal(t, uint64(1_000_000), units.TotalSupply())
	assert.Equal(t, uint64(1_000_000), units.BalanceOf(l.IRO().Escrow()))

	assert.ErrorIs(t, l.RegisterNFT("director", registry, titleID), ErrBadStatus)
}

func TestRegisterNFTRollsBackOnFactoryFailure(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	token := newTestLedger(100_000_000, "alice")
	access := testAccess{}
	l := NewListing(1, "Harbor Flat", token, 1_000, "", Deps{
		Clock:       clk,
		Access:      access,
		UnitFactory: failingFactory{},
	})
	access.grant(1, "dd", CapDueDiligence)
	access.grant(1, "director", CapDirector)
	require.NoError(t, l.StartIRO("dd", "seller"))

	token.approve("alice", l.IRO().Escrow(), 1_000)
	require.NoError(t, l.IRO().Commit("alice", 1_000))
	clk.Advance(FundingPeriod)

	registry := newTestRegistry()
	titleID := registry.mint("director")

	err := l.RegisterNFT("director", registry, titleID)
	require.Error(t, err)

	// The title went back to the director and the listing stayed in IRO.
	owner, err := registry.OwnerOf(titleID)
	require.NoError(t, err)
	assert.Equal(t, "director", owner)
	assert.Equal(t, ListingStatusIRO, l.Status())
}

func TestStartBuyoutRequiresUnits(t *testing.T) {
	l, token, registry, access, clk := newListingFixture(t)

	_, err := l.StartBuyout("alice")
	assert.ErrorIs(t, err, ErrBadStatus)

	access.grant(7, "dd", CapDueDiligence)
	access.grant(7, "director", CapDirector)
	require.NoError(t, l.StartIRO("dd", "seller"))
	token.approve("alice", l.IRO().Escrow(), 1_000_000)
	require.NoError(t, l.IRO().Commit("alice", 1_000_000))
	clk.Advance(FundingPeriod)
	require.NoError(t, l.RegisterNFT("director", registry, registry.mint("director")))

	// Unit-holders only.
	_, err = l.StartBuyout("stranger")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = l.IRO().WithdrawTokens("alice")
	require.NoError(t, err)

	idx, err := l.StartBuyout("alice")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, l.NumBuyouts())

	// Rounds are independent; a second one gets the next index.
	idx, err = l.StartBuyout("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestClaimNFTOnlyForSuccessfulOfferer(t *testing.T) {
	l, token, registry, access, clk := newListingFixture(t)
	access.grant(7, "dd", CapDueDiligence)
	access.grant(7, "director", CapDirector)
	require.NoError(t, l.StartIRO("dd", "seller"))
	token.approve("alice", l.IRO().Escrow(), 1_000_000)
	require.NoError(t, l.IRO().Commit("alice", 1_000_000))
	clk.Advance(FundingPeriod)
	titleID := registry.mint("director")
	require.NoError(t, l.RegisterNFT("director", registry, titleID))
	_, err := l.IRO().WithdrawTokens("alice")
	require.NoError(t, err)

	assert.ErrorIs(t, l.ClaimNFT("alice"), ErrUnauthorized)

	idx, err := l.StartBuyout("alice")
	require.NoError(t, err)
	round, err := l.Buyout(idx)
	require.NoError(t, err)

	units := l.UnitLedger().(*testLedger)
	units.approve("alice", round.Escrow(), 800_000)
	token.approve("alice", round.Escrow(), 400_000)
	require.NoError(t, round.Offer("alice", 800_000, 400_000))

	// Not successful yet.
	assert.ErrorIs(t, l.ClaimNFT("alice"), ErrUnauthorized)

	clk.Advance(BuyoutPeriod)
	require.Equal(t, BuyoutStatusSuccess, round.Status())

	assert.ErrorIs(t, l.ClaimNFT("stranger"), ErrUnauthorized)
	require.NoError(t, l.ClaimNFT("alice"))

	owner, err := registry.OwnerOf(titleID)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	// The title is gone; a replay cannot move it again.
	assert.ErrorIs(t, l.ClaimNFT("alice"), ErrBadStatus)
}

// Full lifecycle: crowdfund, fractionalize, buy out, settle the leftovers.
func TestListingEndToEnd(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	token := newTestLedger(100_000_000, "treasury")
	require.NoError(t, token.Transfer("treasury", "alice", 10_000_000))
	require.NoError(t, token.Transfer("treasury", "bob", 10_000_000))

	access := testAccess{}
	access.grant(0, "dd", CapDueDiligence)
	access.grant(0, "director", CapDirector)
	registry := newTestRegistry()
	titleID := registry.mint("director")

	l := NewListing(0, "Canal House", token, 1_000_000, "", Deps{
		Clock:       clk,
		Access:      access,
		UnitFactory: &testFactory{},
	})

	// Crowdfunding.
	require.NoError(t, l.StartIRO("dd", "seller"))
	iro := l.IRO()
	token.approve("alice", iro.Escrow(), 800_000)
	token.approve("bob", iro.Escrow(), 200_000)
	require.NoError(t, iro.Commit("alice", 800_000))
	require.NoError(t, iro.Commit("bob", 200_000))
	clk.Advance(FundingPeriod)
	require.Equal(t, FundingStatusAwaitingNFT, iro.Status())

	// Fractionalization.
	require.NoError(t, l.RegisterNFT("director", registry, titleID))
	require.Equal(t, FundingStatusDistribution, iro.Status())

	amount, err := iro.WithdrawFunds()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), amount)

	aliceUnits, err := iro.WithdrawTokens("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(800_000), aliceUnits)
	bobUnits, err := iro.WithdrawTokens("bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(200_000), bobUnits)

	// Buyout: alice offers her 800,000 units plus 400,000 funding.
	idx, err := l.StartBuyout("alice")
	require.NoError(t, err)
	round, err := l.Buyout(idx)
	require.NoError(t, err)

	units := l.UnitLedger().(*testLedger)
	units.approve("alice", round.Escrow(), 800_000)
	token.approve("alice", round.Escrow(), 400_000)
	require.NoError(t, round.Offer("alice", 800_000, 400_000))
	assert.Equal(t, uint64(1_600_000), round.CounterOfferTarget())

	// Bob counters but cannot reach the target.
	token.approve("bob", round.Escrow(), 800_000)
	require.NoError(t, round.CounterOffer("bob", 800_000))
	clk.Advance(BuyoutPeriod)
	require.Equal(t, BuyoutStatusSuccess, round.Status())

	// Alice takes the title; bob unwinds and sells out.
	require.NoError(t, l.ClaimNFT("alice"))
	owner, err := registry.OwnerOf(titleID)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	refund, err := round.WithdrawCounterOffer("bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(800_000), refund)

	units.approve("bob", round.Escrow(), 1_000)
	payout, err := round.SurrenderTokens("bob", 1_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000), payout)
}
