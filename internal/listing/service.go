package listing

import (
	"context"

	"go.uber.org/zap"
)

// LedgerEntry describes one escrow money movement for the audit journal.
type LedgerEntry struct {
	ListingID uint64
	RoundType string
	RoundID   string
	Operation string
	Account   string
	Asset     string
	Amount    uint64
	Direction string
}

// Recorder appends ledger entries to the audit journal. Recording failures
// must not fail the money operation that produced them.
type Recorder interface {
	Record(ctx context.Context, entry LedgerEntry) error
}

// Notifier delivers escrow events to connected clients.
type Notifier interface {
	Broadcast(event string, data map[string]interface{})
}

// Resolver finds listings by directory id.
type Resolver interface {
	Get(id uint64) (*Listing, error)
}

// Service fronts the escrow engines: it resolves listings, invokes the engine
// operation and records the resulting money movement.
type Service struct {
	resolver Resolver
	titles   TitleRegistry
	recorder Recorder
	notifier Notifier
	logger   *zap.Logger
}

func NewService(resolver Resolver, titles TitleRegistry, recorder Recorder, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		resolver: resolver,
		titles:   titles,
		recorder: recorder,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *Service) record(ctx context.Context, entry LedgerEntry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Warn("journal entry not recorded",
			zap.Uint64("listing_id", entry.ListingID),
			zap.String("operation", entry.Operation),
			zap.Error(err))
	}
}

func (s *Service) notify(event string, data map[string]interface{}) {
	if s.notifier != nil {
		s.notifier.Broadcast(event, data)
	}
}

// StartIRO opens the funding round for a listing.
func (s *Service) StartIRO(ctx context.Context, listingID uint64, caller, beneficiary string) error {
	l, err := s.resolver.Get(listingID)
	if err != nil {
		return err
	}
	if err := l.StartIRO(caller, beneficiary); err != nil {
		return err
	}
	s.notify("IROStarted", map[string]interface{}{"listing_id": listingID})
	s.logger.Info("funding round opened",
		zap.Uint64("listing_id", listingID),
		zap.String("beneficiary", beneficiary))
	return nil
}

// Commit deposits funding currency into the listing's funding round.
func (s *Service) Commit(ctx context.Context, listingID uint64, caller string, amount uint64) error {
	l, err := s.resolver.Get(listingID)
	if err != nil {
		return err
	}
	iro := l.IRO()
	if iro == nil {
		return ErrBadStatus
	}
	if err := iro.Commit(caller, amount); err != nil {
		return err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "iro",
		RoundID:   iro.ID().String(),
		Operation: "commit",
		Account:   caller,
		Asset:     "funding",
		Amount:    amount,
		Direction: "in",
	})
	s.notify("Commit", map[string]interface{}{
		"listing_id": listingID,
		"account":    caller,
		"amount":     amount,
		"committed":  iro.Committed(),
	})
	return nil
}

// WithdrawRefunds returns the caller's commitment after a failed round.
func (s *Service) WithdrawRefunds(ctx context.Context, listingID uint64, caller string) (uint64, error) {
	l, err := s.resolver.Get(listingID)
	if err != nil {
		return 0, err
	}
	iro := l.IRO()
	if iro == nil {
		return 0, ErrBadStatus
	}
	amount, err := iro.WithdrawRefunds(caller)
	if err != nil {
		return 0, err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "iro",
		RoundID:   iro.ID().String(),
		Operation: "withdraw_refunds",
		Account:   caller,
		Asset:     "funding",
		Amount:    amount,
		Direction: "out",
	})
	return amount, nil
}

// WithdrawFunds pays the collected funding to the round beneficiary.
func (s *Service) WithdrawFunds(ctx context.Context, listingID uint64) (uint64, error) {
	l, err := s.resolver.Get(listingID)
	if err != nil {
		return 0, err
	}
	iro := l.IRO()
	if iro == nil {
		return 0, ErrBadStatus
	}
	amount, err := iro.WithdrawFunds()
	if err != nil {
		return 0, err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "iro",
		RoundID:   iro.ID().String(),
		Operation: "withdraw_funds",
		Account:   iro.Beneficiary(),
		Asset:     "funding",
		Amount:    amount,
		Direction: "out",
	})
	s.notify("FundsWithdrawn", map[string]interface{}{
		"listing_id": listingID,
		"amount":     amount,
	})
	return amount, nil
}

// WithdrawTokens pays the caller their pro-rata ownership units.
func (s *Service) WithdrawTokens(ctx context.Context, listingID uint64, caller string) (uint64, error) {
	l, err := s.resolver.Get(listingID)
	if err != nil {
		return 0, err
	}
	iro := l.IRO()
	if iro == nil {
		return 0, ErrBadStatus
	}
	amount, err := iro.WithdrawTokens(caller)
	if err != nil {
		return 0, err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "iro",
		RoundID:   iro.ID().String(),
		Operation: "withdraw_tokens",
		Account:   caller,
		Asset:     "units",
		Amount:    amount,
		Direction: "out",
	})
	return amount, nil
}

// RegisterNFT binds the title asset and fractionalizes the listing.
func (s *Service) RegisterNFT(ctx context.Context, listingID uint64, caller string, titleID uint64) error {
	l, err := s.resolver.Get(listingID)
	if err != nil {
		return err
	}
	if err := l.RegisterNFT(caller, s.titles, titleID); err != nil {
		return err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "iro",
		RoundID:   l.IRO().ID().String(),
		Operation: "register_nft",
		Account:   caller,
		Asset:     "title",
		Amount:    titleID,
		Direction: "in",
	})
	s.notify("ListingLive", map[string]interface{}{
		"listing_id": listingID,
		"title_id":   titleID,
	})
	s.logger.Info("listing fractionalized",
		zap.Uint64("listing_id", listingID),
		zap.Uint64("title_id", titleID))
	return nil
}

// StartBuyout opens a new buyout round and returns its index.
func (s *Service) StartBuyout(ctx context.Context, listingID uint64, caller string) (int, error) {
	l, err := s.resolver.Get(listingID)
	if err != nil {
		return 0, err
	}
	round, err := l.StartBuyout(caller)
	if err != nil {
		return 0, err
	}
	s.notify("BuyoutStarted", map[string]interface{}{
		"listing_id": listingID,
		"round":      round,
	})
	return round, nil
}

func (s *Service) buyout(listingID uint64, round int) (*Listing, *BuyoutRound, error) {
	l, err := s.resolver.Get(listingID)
	if err != nil {
		return nil, nil, err
	}
	b, err := l.Buyout(round)
	if err != nil {
		return nil, nil, err
	}
	return l, b, nil
}

// Offer places the buyout offer on a round.
func (s *Service) Offer(ctx context.Context, listingID uint64, round int, caller string, unitAmount, fundingAmount uint64) error {
	_, b, err := s.buyout(listingID, round)
	if err != nil {
		return err
	}
	if err := b.Offer(caller, unitAmount, fundingAmount); err != nil {
		return err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "buyout",
		RoundID:   b.ID().String(),
		Operation: "offer",
		Account:   caller,
		Asset:     "units",
		Amount:    unitAmount,
		Direction: "in",
	})
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "buyout",
		RoundID:   b.ID().String(),
		Operation: "offer",
		Account:   caller,
		Asset:     "funding",
		Amount:    fundingAmount,
		Direction: "in",
	})
	s.notify("BuyoutOffer", map[string]interface{}{
		"listing_id": listingID,
		"round":      round,
		"account":    caller,
		"target":     b.CounterOfferTarget(),
	})
	return nil
}

// CounterOffer adds to the counter-bid pool of a round.
func (s *Service) CounterOffer(ctx context.Context, listingID uint64, round int, caller string, amount uint64) error {
	_, b, err := s.buyout(listingID, round)
	if err != nil {
		return err
	}
	if err := b.CounterOffer(caller, amount); err != nil {
		return err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "buyout",
		RoundID:   b.ID().String(),
		Operation: "counter_offer",
		Account:   caller,
		Asset:     "funding",
		Amount:    amount,
		Direction: "in",
	})
	if b.Status() == BuyoutStatusCountered {
		s.notify("BuyoutCountered", map[string]interface{}{
			"listing_id": listingID,
			"round":      round,
		})
	}
	return nil
}

// WithdrawCounterOffer refunds the caller's counter-bid after a successful offer.
func (s *Service) WithdrawCounterOffer(ctx context.Context, listingID uint64, round int, caller string) (uint64, error) {
	_, b, err := s.buyout(listingID, round)
	if err != nil {
		return 0, err
	}
	amount, err := b.WithdrawCounterOffer(caller)
	if err != nil {
		return 0, err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "buyout",
		RoundID:   b.ID().String(),
		Operation: "withdraw_counter_offer",
		Account:   caller,
		Asset:     "funding",
		Amount:    amount,
		Direction: "out",
	})
	return amount, nil
}

// SurrenderTokens sells units into a settled round at the frozen price.
func (s *Service) SurrenderTokens(ctx context.Context, listingID uint64, round int, caller string, amount uint64) (uint64, error) {
	_, b, err := s.buyout(listingID, round)
	if err != nil {
		return 0, err
	}
	payout, err := b.SurrenderTokens(caller, amount)
	if err != nil {
		return 0, err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "buyout",
		RoundID:   b.ID().String(),
		Operation: "surrender_tokens",
		Account:   caller,
		Asset:     "units",
		Amount:    amount,
		Direction: "in",
	})
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "buyout",
		RoundID:   b.ID().String(),
		Operation: "surrender_tokens",
		Account:   caller,
		Asset:     "funding",
		Amount:    payout,
		Direction: "out",
	})
	return payout, nil
}

// WithdrawOffer unwinds the offerer's deposit on a countered round.
func (s *Service) WithdrawOffer(ctx context.Context, listingID uint64, round int, caller string) error {
	_, b, err := s.buyout(listingID, round)
	if err != nil {
		return err
	}
	if err := b.WithdrawOffer(caller); err != nil {
		return err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "buyout",
		RoundID:   b.ID().String(),
		Operation: "withdraw_offer",
		Account:   caller,
		Asset:     "units",
		Amount:    b.OfferedUnits(),
		Direction: "out",
	})
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "buyout",
		RoundID:   b.ID().String(),
		Operation: "withdraw_offer",
		Account:   caller,
		Asset:     "funding",
		Amount:    b.OfferedFunding(),
		Direction: "out",
	})
	return nil
}

// WithdrawBoughtTokens pays a counter-bidder their pro-rata surrendered units.
func (s *Service) WithdrawBoughtTokens(ctx context.Context, listingID uint64, round int, caller string) (uint64, error) {
	_, b, err := s.buyout(listingID, round)
	if err != nil {
		return 0, err
	}
	amount, err := b.WithdrawBoughtTokens(caller)
	if err != nil {
		return 0, err
	}
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "buyout",
		RoundID:   b.ID().String(),
		Operation: "withdraw_bought_tokens",
		Account:   caller,
		Asset:     "units",
		Amount:    amount,
		Direction: "out",
	})
	return amount, nil
}

// ClaimNFT transfers the title to the winner of a successful buyout.
func (s *Service) ClaimNFT(ctx context.Context, listingID uint64, caller string) error {
	l, err := s.resolver.Get(listingID)
	if err != nil {
		return err
	}
	if err := l.ClaimNFT(caller); err != nil {
		return err
	}
	titleID, _ := l.TitleAsset()
	s.record(ctx, LedgerEntry{
		ListingID: listingID,
		RoundType: "buyout",
		Operation: "claim_nft",
		Account:   caller,
		Asset:     "title",
		Amount:    titleID,
		Direction: "out",
	})
	s.notify("TitleClaimed", map[string]interface{}{
		"listing_id": listingID,
		"account":    caller,
	})
	s.logger.Info("title claimed",
		zap.Uint64("listing_id", listingID),
		zap.String("account", caller))
	return nil
}
