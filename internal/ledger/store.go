package ledger

import (
	"fmt"
	"sync"

	"brickfolio/listing-portal/listing-portal-backend/internal/listing"
)

// Store keeps every fungible token ledger and the title registry in one
// place. It also serves as the unit-ledger factory used at fractionalization.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]*Token
	titles *TitleRegistry
}

func NewStore() *Store {
	return &Store{
		tokens: make(map[string]*Token),
		titles: NewTitleRegistry(),
	}
}

// CreateToken creates and registers a fungible token ledger. The symbol must
// be unique.
func (s *Store) CreateToken(name, symbol string, supply uint64, owner string) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[symbol]; exists {
		return nil, fmt.Errorf("token %s already exists", symbol)
	}
	t := NewToken(name, symbol, supply, owner)
	s.tokens[symbol] = t
	return t, nil
}

// Token looks up a registered token by symbol.
func (s *Store) Token(symbol string) (*Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[symbol]
	return t, ok
}

// Titles returns the non-fungible title registry.
func (s *Store) Titles() *TitleRegistry {
	return s.titles
}

// CreateUnitLedger implements listing.UnitLedgerFactory: it mints a fresh
// ownership-unit ledger with the whole supply held by the funding round
// escrow.
func (s *Store) CreateUnitLedger(name, symbol string, supply uint64, holder string) (listing.FungibleLedger, error) {
	return s.CreateToken(name, symbol, supply, holder)
}
