package listing

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"brickfolio/listing-portal/listing-portal-backend/internal/clock"
)

// BuyoutPeriod is the counter-bidding window measured from the offer, not
// from round creation.
const BuyoutPeriod = 14 * 24 * time.Hour

// BuyoutStatus is derived from the offer record, the counter total and the
// clock on every call. The numeric order matches the historical wire values.
type BuyoutStatus int

const (
	BuyoutStatusNew BuyoutStatus = iota
	BuyoutStatusOpen
	BuyoutStatusCountered
	BuyoutStatusSuccess
)

func (s BuyoutStatus) String() string {
	switch s {
	case BuyoutStatusNew:
		return "NEW"
	case BuyoutStatusOpen:
		return "OPEN"
	case BuyoutStatusCountered:
		return "COUNTERED"
	case BuyoutStatusSuccess:
		return "SUCCESS"
	default:
		return fmt.Sprintf("BuyoutStatus(%d)", int(s))
	}
}

// BuyoutRound is the reverse-auction escrow. One offerer deposits units and
// funding at a named price; the remaining unit-holders have BuyoutPeriod to
// collectively counter at the same implied per-unit price.
type BuyoutRound struct {
	id      uuid.UUID
	escrow  string
	units   FungibleLedger
	funding FungibleLedger
	clk     clock.Clock

	mu             sync.Mutex
	offerer        string
	offeredUnits   uint64
	offeredFunding uint64
	supplyAtOffer  uint64
	target         uint64
	startedAt      time.Time
	counterTotal   uint64
	counterBy      map[string]uint64
	surrendered    uint64
	unitsClaimedBy map[string]uint64
	offerWithdrawn bool
}

// NewBuyoutRound creates a round in NEW state. The deadline does not start
// until an offer is placed.
func NewBuyoutRound(units, funding FungibleLedger, clk clock.Clock) *BuyoutRound {
	id := uuid.New()
	return &BuyoutRound{
		id:             id,
		escrow:         "buyout:" + id.String(),
		units:          units,
		funding:        funding,
		clk:            clk,
		counterBy:      make(map[string]uint64),
		unitsClaimedBy: make(map[string]uint64),
	}
}

func (b *BuyoutRound) ID() uuid.UUID  { return b.id }
func (b *BuyoutRound) Escrow() string { return b.escrow }

func (b *BuyoutRound) Offerer() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.offerer
}

func (b *BuyoutRound) OfferedUnits() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.offeredUnits
}

func (b *BuyoutRound) OfferedFunding() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.offeredFunding
}

// CounterOfferTarget returns the funding threshold the counter-bidding side
// must reach, frozen at offer time.
func (b *BuyoutRound) CounterOfferTarget() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target
}

// CounterOfferAmount returns the accumulated counter-bid total.
func (b *BuyoutRound) CounterOfferAmount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counterTotal
}

// CounterOfferBy returns a single party's outstanding counter-bid.
func (b *BuyoutRound) CounterOfferBy(account string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counterBy[account]
}

// Status recomputes the derived round status.
func (b *BuyoutRound) Status() BuyoutStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status()
}

func (b *BuyoutRound) status() BuyoutStatus {
	if b.offerer == "" {
		return BuyoutStatusNew
	}
	if b.counterTotal >= b.target {
		return BuyoutStatusCountered
	}
	if b.clk.Now().Sub(b.startedAt) >= BuyoutPeriod {
		return BuyoutStatusSuccess
	}
	return BuyoutStatusOpen
}

// Offer deposits unitAmount ownership units and fundingAmount funding currency
// from caller into round custody, freezes the counter-offer target at
//
//	fundingAmount * unitAmount / (totalSupply - unitAmount)
//
// and starts the BuyoutPeriod clock. Unit allowance is checked before funding
// allowance, matching the historical failure order.
func (b *BuyoutRound) Offer(caller string, unitAmount, fundingAmount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status() != BuyoutStatusNew {
		return ErrBadStatus
	}
	if unitAmount == 0 || fundingAmount == 0 {
		return ErrNoCommit
	}
	supply := b.units.TotalSupply()
	if unitAmount >= supply {
		return ErrBadStatus
	}
	if b.units.Allowance(caller, b.escrow) < unitAmount {
		return ErrTokenAllowanceLow
	}
	if b.funding.Allowance(caller, b.escrow) < fundingAmount {
		return ErrFundingAllowanceLow
	}
	target := mulDiv(fundingAmount, unitAmount, supply-unitAmount)
	if target == 0 {
		// A zero target would let an empty counter-bid reverse the offer.
		return ErrNoCommit
	}

	b.offerer = caller
	b.offeredUnits = unitAmount
	b.offeredFunding = fundingAmount
	b.supplyAtOffer = supply
	b.target = target
	b.startedAt = b.clk.Now()

	if err := b.units.TransferFrom(b.escrow, caller, b.escrow, unitAmount); err != nil {
		b.clearOffer()
		return err
	}
	if err := b.funding.TransferFrom(b.escrow, caller, b.escrow, fundingAmount); err != nil {
		// Unwind the unit deposit; custody must not keep a partial offer.
		_ = b.units.Transfer(b.escrow, caller, unitAmount)
		b.clearOffer()
		return err
	}
	return nil
}

func (b *BuyoutRound) clearOffer() {
	b.offerer = ""
	b.offeredUnits = 0
	b.offeredFunding = 0
	b.supplyAtOffer = 0
	b.target = 0
	b.startedAt = time.Time{}
}

// CounterOffer pulls amount of funding currency from caller into custody and
// accumulates it against the target. Reaching the target flips the round to
// COUNTERED within the same call; the flip is a consequence of the derived
// status, not a stored transition.
func (b *BuyoutRound) CounterOffer(caller string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status() != BuyoutStatusOpen {
		return ErrBadStatus
	}
	if amount == 0 {
		return ErrNoCommit
	}
	if b.funding.Allowance(caller, b.escrow) < amount {
		return ErrAllowanceLow
	}
	b.counterBy[caller] += amount
	b.counterTotal += amount
	if err := b.funding.TransferFrom(b.escrow, caller, b.escrow, amount); err != nil {
		b.counterBy[caller] -= amount
		b.counterTotal -= amount
		return err
	}
	return nil
}

// WithdrawCounterOffer refunds the caller's counter-bid after the offer has
// succeeded. The row is zeroed before the transfer.
func (b *BuyoutRound) WithdrawCounterOffer(caller string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status() != BuyoutStatusSuccess {
		return 0, ErrBadStatus
	}
	amount := b.counterBy[caller]
	if amount == 0 {
		return 0, ErrBadStatus
	}
	delete(b.counterBy, caller)
	if err := b.funding.Transfer(b.escrow, caller, amount); err != nil {
		b.counterBy[caller] = amount
		return 0, err
	}
	return amount, nil
}

// SurrenderTokens sells amount units into the round at the per-unit price
// fixed at offer time: offeredFunding / (supplyAtOffer - offeredUnits). On
// SUCCESS the payout comes from the offerer's deposited funding; on COUNTERED
// it comes from the pooled counter-bids. The rate is invariant under how
// amount is split across calls.
func (b *BuyoutRound) SurrenderTokens(caller string, amount uint64) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.status()
	if st != BuyoutStatusSuccess && st != BuyoutStatusCountered {
		return 0, ErrBadStatus
	}
	if amount == 0 {
		return 0, ErrNoCommit
	}
	if b.units.Allowance(caller, b.escrow) < amount {
		return 0, ErrTokenAllowanceLow
	}
	payout := mulDiv(amount, b.offeredFunding, b.supplyAtOffer-b.offeredUnits)
	b.surrendered += amount
	if err := b.units.TransferFrom(b.escrow, caller, b.escrow, amount); err != nil {
		b.surrendered -= amount
		return 0, err
	}
	if err := b.funding.Transfer(b.escrow, caller, payout); err != nil {
		_ = b.units.Transfer(b.escrow, caller, amount)
		b.surrendered -= amount
		return 0, err
	}
	return payout, nil
}

// WithdrawOffer unwinds the offerer's deposit after the round was countered:
// the offered units and funding both return to the offerer, and the pooled
// counter-bids take over as the buying side.
func (b *BuyoutRound) WithdrawOffer(caller string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status() != BuyoutStatusCountered {
		return ErrBadStatus
	}
	if caller != b.offerer {
		return ErrUnauthorized
	}
	if b.offerWithdrawn {
		return ErrBadStatus
	}
	b.offerWithdrawn = true
	if err := b.units.Transfer(b.escrow, caller, b.offeredUnits); err != nil {
		b.offerWithdrawn = false
		return err
	}
	if err := b.funding.Transfer(b.escrow, caller, b.offeredFunding); err != nil {
		_ = b.units.Transfer(caller, b.escrow, b.offeredUnits)
		b.offerWithdrawn = false
		return err
	}
	return nil
}

// WithdrawBoughtTokens pays a counter-bidder their pro-rata share of the units
// surrendered so far on a countered round:
//
//	counterBy[caller] * surrendered / counterTotal
//
// minus whatever they have already claimed. Callable repeatedly as more units
// are surrendered.
func (b *BuyoutRound) WithdrawBoughtTokens(caller string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status() != BuyoutStatusCountered {
		return 0, ErrBadStatus
	}
	stake := b.counterBy[caller]
	if stake == 0 {
		return 0, ErrUnauthorized
	}
	entitled := mulDiv(stake, b.surrendered, b.counterTotal)
	claimed := b.unitsClaimedBy[caller]
	if entitled <= claimed {
		return 0, ErrBadStatus
	}
	owed := entitled - claimed
	b.unitsClaimedBy[caller] = entitled
	if err := b.units.Transfer(b.escrow, caller, owed); err != nil {
		b.unitsClaimedBy[caller] = claimed
		return 0, err
	}
	return owed, nil
}
