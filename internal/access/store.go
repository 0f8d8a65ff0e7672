package access

import "sync"

// Store is the capability table backing role-gated listing transitions.
// Capabilities are scoped per listing; admin accounts are global and may
// grant or revoke any capability.
type Store struct {
	mu     sync.RWMutex
	admins map[string]bool
	grants map[uint64]map[string]map[string]bool
}

func NewStore() *Store {
	return &Store{
		admins: make(map[string]bool),
		grants: make(map[uint64]map[string]map[string]bool),
	}
}

// AddAdmin marks an account as a global administrator.
func (s *Store) AddAdmin(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[account] = true
}

func (s *Store) IsAdmin(account string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[account]
}

// Grant gives account the named capability on one listing.
func (s *Store) Grant(listingID uint64, account, capability string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byAccount := s.grants[listingID]
	if byAccount == nil {
		byAccount = make(map[string]map[string]bool)
		s.grants[listingID] = byAccount
	}
	caps := byAccount[account]
	if caps == nil {
		caps = make(map[string]bool)
		byAccount[account] = caps
	}
	caps[capability] = true
}

// Revoke removes a capability grant.
func (s *Store) Revoke(listingID uint64, account, capability string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[listingID][account], capability)
}

// Has reports whether account holds the capability on the listing.
func (s *Store) Has(listingID uint64, account, capability string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grants[listingID][account][capability]
}
