package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Entry is one escrow money movement. The journal is append-only; ledger
// balances stay authoritative, the journal exists for audit.
type Entry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ListingID uint64    `db:"listing_id" json:"listing_id"`
	RoundType string    `db:"round_type" json:"round_type"` // iro | buyout
	RoundID   string    `db:"round_id" json:"round_id"`
	Operation string    `db:"operation" json:"operation"`
	Account   string    `db:"account" json:"account"`
	Asset     string    `db:"asset" json:"asset"` // funding | units | title
	Amount    uint64    `db:"amount" json:"amount"`
	Direction string    `db:"direction" json:"direction"` // in | out
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByListing(ctx context.Context, listingID uint64) ([]Entry, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Append(ctx context.Context, entry *Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO escrow_journal (
			id, listing_id, round_type, round_id, operation,
			account, asset, amount, direction, created_at
		) VALUES (
			:id, :listing_id, :round_type, :round_id, :operation,
			:account, :asset, :amount, :direction, :created_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, entry)
	return err
}

func (r *postgresRepository) ListByListing(ctx context.Context, listingID uint64) ([]Entry, error) {
	var entries []Entry
	err := r.db.SelectContext(ctx, &entries,
		"SELECT * FROM escrow_journal WHERE listing_id = $1 ORDER BY created_at", listingID)
	return entries, err
}
