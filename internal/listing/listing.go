package listing

import (
	"fmt"
	"sync"

	"brickfolio/listing-portal/listing-portal-backend/internal/clock"
)

// Capability names checked on role-gated transitions.
const (
	CapDueDiligence = "due_diligence"
	CapDirector     = "director"
)

// ListingStatus is the stored listing lifecycle state. Unlike round statuses
// it is not clock-derived: transitions happen only through role-gated calls.
type ListingStatus int

const (
	ListingStatusNew ListingStatus = iota
	ListingStatusIRO
	ListingStatusLive
)

func (s ListingStatus) String() string {
	switch s {
	case ListingStatusNew:
		return "NEW"
	case ListingStatusIRO:
		return "IRO"
	case ListingStatusLive:
		return "LIVE"
	default:
		return fmt.Sprintf("ListingStatus(%d)", int(s))
	}
}

// Listing orchestrates one asset: it owns the funding round, binds the title
// asset, mints the ownership-unit supply and spawns buyout rounds.
type Listing struct {
	id           uint64
	name         string
	fundingToken FungibleLedger
	goal         uint64
	media        string
	custody      string
	clk          clock.Clock
	access       AccessChecker
	unitFactory  UnitLedgerFactory

	mu            sync.Mutex
	status        ListingStatus
	iro           *FundingRound
	titleRegistry TitleRegistry
	titleID       uint64
	titleHeld     bool
	unitLedger    FungibleLedger
	buyouts       []*BuyoutRound
}

// Deps are the external collaborators a listing needs.
type Deps struct {
	Clock       clock.Clock
	Access      AccessChecker
	UnitFactory UnitLedgerFactory
}

// NewListing creates a listing in NEW state.
func NewListing(id uint64, name string, fundingToken FungibleLedger, goal uint64, media string, deps Deps) *Listing {
	return &Listing{
		id:           id,
		name:         name,
		fundingToken: fundingToken,
		goal:         goal,
		media:        media,
		custody:      fmt.Sprintf("listing:%d", id),
		clk:          deps.Clock,
		access:       deps.Access,
		unitFactory:  deps.UnitFactory,
		status:       ListingStatusNew,
	}
}

func (l *Listing) ID() uint64                   { return l.id }
func (l *Listing) Name() string                 { return l.name }
func (l *Listing) FundingToken() FungibleLedger { return l.fundingToken }
func (l *Listing) Goal() uint64                 { return l.goal }
func (l *Listing) Media() string                { return l.media }
func (l *Listing) Custody() string              { return l.custody }

func (l *Listing) Status() ListingStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// IRO returns the funding round, or nil before StartIRO.
func (l *Listing) IRO() *FundingRound {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.iro
}

// UnitLedger returns the ownership-unit ledger, or nil before fractionalization.
func (l *Listing) UnitLedger() FungibleLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unitLedger
}

// TitleAsset reports the bound title id and whether it is held in custody.
func (l *Listing) TitleAsset() (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.titleID, l.titleHeld
}

func (l *Listing) NumBuyouts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buyouts)
}

// Buyout returns the i-th buyout round.
func (l *Listing) Buyout(i int) (*BuyoutRound, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.buyouts) {
		return nil, fmt.Errorf("no buyout round %d", i)
	}
	return l.buyouts[i], nil
}

// Buyouts returns a snapshot of the buyout round sequence.
func (l *Listing) Buyouts() []*BuyoutRound {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*BuyoutRound, len(l.buyouts))
	copy(out, l.buyouts)
	return out
}

// StartIRO creates and binds the funding round. Requires the due-diligence
// capability on this listing.
func (l *Listing) StartIRO(caller, beneficiary string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.access.Has(l.id, caller, CapDueDiligence) {
		return ErrUnauthorized
	}
	if !l.canTransition(l.status, ListingStatusIRO) {
		return ErrBadStatus
	}
	l.iro = NewFundingRound(l.fundingToken, l.goal, beneficiary, l.clk)
	l.status = ListingStatusIRO
	return nil
}

// RegisterNFT pulls the title asset from the caller into listing custody,
// mints the unit supply into the funding round escrow and flips the listing
// live. Requires the director capability and a funding round awaiting its NFT.
func (l *Listing) RegisterNFT(caller string, registry TitleRegistry, titleID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.access.Has(l.id, caller, CapDirector) {
		return ErrUnauthorized
	}
	if !l.canTransition(l.status, ListingStatusLive) || l.iro == nil {
		return ErrBadStatus
	}
	if l.iro.Status() != FundingStatusAwaitingNFT {
		return ErrWrongIroStage
	}
	if err := registry.SafeTransferFrom(caller, l.custody, titleID); err != nil {
		return err
	}
	units, err := l.unitFactory.CreateUnitLedger(
		l.name+" Units",
		fmt.Sprintf("UNIT%d", l.id),
		l.goal,
		l.iro.Escrow(),
	)
	if err != nil {
		_ = registry.SafeTransferFrom(l.custody, caller, titleID)
		return err
	}
	if err := l.iro.bindUnitLedger(units); err != nil {
		_ = registry.SafeTransferFrom(l.custody, caller, titleID)
		return err
	}
	l.titleRegistry = registry
	l.titleID = titleID
	l.titleHeld = true
	l.unitLedger = units
	l.status = ListingStatusLive
	return nil
}

// StartBuyout appends a new buyout round. Any unit-holder may call once the
// listing is live; concurrent rounds are independent escrows.
func (l *Listing) StartBuyout(caller string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status != ListingStatusLive {
		return 0, ErrBadStatus
	}
	if l.unitLedger.BalanceOf(caller) == 0 {
		return 0, ErrUnauthorized
	}
	round := NewBuyoutRound(l.unitLedger, l.fundingToken, l.clk)
	l.buyouts = append(l.buyouts, round)
	return len(l.buyouts) - 1, nil
}

// ClaimNFT transfers the title asset to the offerer of a successful buyout
// round. All other callers and all other round states are rejected.
func (l *Listing) ClaimNFT(caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	won := false
	for _, b := range l.buyouts {
		if b.Status() == BuyoutStatusSuccess && b.Offerer() == caller {
			won = true
			break
		}
	}
	if !won {
		return ErrUnauthorized
	}
	if !l.titleHeld {
		return ErrBadStatus
	}
	l.titleHeld = false
	if err := l.titleRegistry.SafeTransferFrom(l.custody, caller, l.titleID); err != nil {
		l.titleHeld = true
		return err
	}
	return nil
}

// listingTransitions enforces the listing lifecycle order. Terminal LIVE has
// no outgoing transitions; buyouts do not change listing status.
var listingTransitions = map[ListingStatus][]ListingStatus{
	ListingStatusNew:  {ListingStatusIRO},
	ListingStatusIRO:  {ListingStatusLive},
	ListingStatusLive: {},
}

func (l *Listing) canTransition(from, to ListingStatus) bool {
	for _, allowed := range listingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
