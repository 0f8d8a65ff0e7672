package journal

import (
	"context"

	"brickfolio/listing-portal/listing-portal-backend/internal/listing"
)

// Recorder adapts the journal repository to the escrow service's audit hook.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, e listing.LedgerEntry) error {
	return r.repo.Append(ctx, &Entry{
		ListingID: e.ListingID,
		RoundType: e.RoundType,
		RoundID:   e.RoundID,
		Operation: e.Operation,
		Account:   e.Account,
		Asset:     e.Asset,
		Amount:    e.Amount,
		Direction: e.Direction,
	})
}
