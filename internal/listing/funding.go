package listing

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"brickfolio/listing-portal/listing-portal-backend/internal/clock"
)

// FundingPeriod is the crowdfunding window measured from round creation.
const FundingPeriod = 28 * 24 * time.Hour

// FundingStatus is never stored; it is recomputed from the committed total,
// the goal, the bound unit ledger and the clock on every call.
type FundingStatus int

const (
	FundingStatusFunding FundingStatus = iota
	FundingStatusFailed
	FundingStatusAwaitingNFT
	FundingStatusDistribution
)

func (s FundingStatus) String() string {
	switch s {
	case FundingStatusFunding:
		return "FUNDING"
	case FundingStatusFailed:
		return "FAILED"
	case FundingStatusAwaitingNFT:
		return "AWAITING_NFT"
	case FundingStatusDistribution:
		return "DISTRIBUTION"
	default:
		return fmt.Sprintf("FundingStatus(%d)", int(s))
	}
}

// FundingRound is the crowdfunding escrow. It holds committed funding currency
// under its own custody account and, after fractionalization, the minted unit
// supply it distributes pro-rata.
type FundingRound struct {
	id          uuid.UUID
	escrow      string
	token       FungibleLedger
	goal        uint64
	beneficiary string
	clk         clock.Clock
	startedAt   time.Time

	mu             sync.Mutex
	committedTotal uint64
	committedBy    map[string]uint64
	unitLedger     FungibleLedger
	fundsPaid      bool
}

// NewFundingRound creates a round in FUNDING state. The deadline clock starts
// immediately.
func NewFundingRound(token FungibleLedger, goal uint64, beneficiary string, clk clock.Clock) *FundingRound {
	id := uuid.New()
	return &FundingRound{
		id:          id,
		escrow:      "iro:" + id.String(),
		token:       token,
		goal:        goal,
		beneficiary: beneficiary,
		clk:         clk,
		startedAt:   clk.Now(),
		committedBy: make(map[string]uint64),
	}
}

func (r *FundingRound) ID() uuid.UUID       { return r.id }
func (r *FundingRound) Escrow() string      { return r.escrow }
func (r *FundingRound) Goal() uint64        { return r.goal }
func (r *FundingRound) Beneficiary() string { return r.beneficiary }
func (r *FundingRound) StartedAt() time.Time { return r.startedAt }

// Committed returns the total funding currency committed so far.
func (r *FundingRound) Committed() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committedTotal
}

// CommittedBy returns the outstanding commitment of a single contributor.
func (r *FundingRound) CommittedBy(account string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committedBy[account]
}

// UnitLedger returns the ownership-unit ledger, or nil before fractionalization.
func (r *FundingRound) UnitLedger() FungibleLedger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unitLedger
}

// Status recomputes the derived round status.
func (r *FundingRound) Status() FundingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status()
}

func (r *FundingRound) status() FundingStatus {
	if r.clk.Now().Sub(r.startedAt) < FundingPeriod {
		return FundingStatusFunding
	}
	if r.committedTotal < r.goal {
		return FundingStatusFailed
	}
	if r.unitLedger == nil {
		return FundingStatusAwaitingNFT
	}
	return FundingStatusDistribution
}

// Commit pulls amount of funding currency from caller into round custody.
// Requires an allowance from caller to the round escrow. Oversubscription past
// the goal is allowed; distribution scales accordingly.
func (r *FundingRound) Commit(caller string, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status() != FundingStatusFunding {
		return ErrBadStatus
	}
	if amount == 0 {
		return ErrNoCommit
	}
	if r.token.Allowance(caller, r.escrow) < amount {
		return ErrAllowanceLow
	}
	r.committedBy[caller] += amount
	r.committedTotal += amount
	if err := r.token.TransferFrom(r.escrow, caller, r.escrow, amount); err != nil {
		r.committedBy[caller] -= amount
		r.committedTotal -= amount
		return err
	}
	return nil
}

// WithdrawRefunds pays the caller back their full commitment after a failed
// round. The accounting row is zeroed before the transfer so a replay cannot
// pay twice.
func (r *FundingRound) WithdrawRefunds(caller string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status() != FundingStatusFailed {
		return 0, ErrBadStatus
	}
	amount := r.committedBy[caller]
	if amount == 0 {
		return 0, ErrBadStatus
	}
	delete(r.committedBy, caller)
	if err := r.token.Transfer(r.escrow, caller, amount); err != nil {
		r.committedBy[caller] = amount
		return 0, err
	}
	return amount, nil
}

// WithdrawFunds pays the entire custody balance to the beneficiary, once.
func (r *FundingRound) WithdrawFunds() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status() != FundingStatusDistribution {
		return 0, ErrBadStatus
	}
	if r.fundsPaid {
		return 0, ErrBadStatus
	}
	amount := r.token.BalanceOf(r.escrow)
	r.fundsPaid = true
	if err := r.token.Transfer(r.escrow, r.beneficiary, amount); err != nil {
		r.fundsPaid = false
		return 0, err
	}
	return amount, nil
}

// WithdrawTokens pays the caller their pro-rata share of the minted unit
// supply and zeroes their commitment row. When the round was oversubscribed
// the share is scaled by goal/committedTotal, flooring; the remainder stays in
// custody.
func (r *FundingRound) WithdrawTokens(caller string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status() != FundingStatusDistribution {
		return 0, ErrBadStatus
	}
	committed := r.committedBy[caller]
	if committed == 0 {
		return 0, ErrBadStatus
	}
	payout := committed
	if r.committedTotal > r.goal {
		payout = mulDiv(committed, r.goal, r.committedTotal)
	}
	delete(r.committedBy, caller)
	if err := r.unitLedger.Transfer(r.escrow, caller, payout); err != nil {
		r.committedBy[caller] = committed
		return 0, err
	}
	return payout, nil
}

// bindUnitLedger attaches the minted ownership-unit ledger. Called by the
// owning listing during fractionalization; flips the derived status to
// DISTRIBUTION.
func (r *FundingRound) bindUnitLedger(l FungibleLedger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unitLedger != nil {
		return ErrBadStatus
	}
	r.unitLedger = l
	return nil
}
