package listing

import (
	"errors"
	"fmt"
)

// testLedger is a minimal allowance-based fungible ledger for engine tests.
type testLedger struct {
	supply     uint64
	balances   map[string]uint64
	allowances map[string]map[string]uint64
}

func newTestLedger(supply uint64, owner string) *testLedger {
	l := &testLedger{
		supply:     supply,
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
	l.balances[owner] = supply
	return l
}

func (l *testLedger) TotalSupply() uint64 { return l.supply }

func (l *testLedger) BalanceOf(account string) uint64 { return l.balances[account] }

func (l *testLedger) Allowance(owner, spender string) uint64 {
	return l.allowances[owner][spender]
}

func (l *testLedger) approve(owner, spender string, amount uint64) {
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]uint64)
	}
	l.allowances[owner][spender] = amount
}

func (l *testLedger) Transfer(from, to string, amount uint64) error {
	if l.balances[from] < amount {
		return errors.New("insufficient balance")
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *testLedger) TransferFrom(spender, from, to string, amount uint64) error {
	if l.allowances[from][spender] < amount {
		return errors.New("insufficient allowance")
	}
	if err := l.Transfer(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][spender] -= amount
	return nil
}

// testRegistry is a minimal title registry.
type testRegistry struct {
	owners map[uint64]string
	nextID uint64
}

func newTestRegistry() *testRegistry {
	return &testRegistry{owners: make(map[uint64]string)}
}

func (r *testRegistry) mint(to string) uint64 {
	id := r.nextID
	r.nextID++
	r.owners[id] = to
	return id
}

func (r *testRegistry) OwnerOf(id uint64) (string, error) {
	owner, ok := r.owners[id]
	if !ok {
		return "", errors.New("unknown title")
	}
	return owner, nil
}

func (r *testRegistry) SafeTransferFrom(from, to string, id uint64) error {
	if r.owners[id] != from {
		return errors.New("not owner")
	}
	r.owners[id] = to
	return nil
}

// testFactory mints plain test ledgers.
type testFactory struct {
	created []*testLedger
}

func (f *testFactory) CreateUnitLedger(name, symbol string, supply uint64, holder string) (FungibleLedger, error) {
	l := newTestLedger(supply, holder)
	f.created = append(f.created, l)
	return l, nil
}

// failingFactory always errors, for rollback tests.
type failingFactory struct{}

func (failingFactory) CreateUnitLedger(name, symbol string, supply uint64, holder string) (FungibleLedger, error) {
	return nil, errors.New("factory down")
}

// testAccess is a capability table keyed on listing/account/capability.
type testAccess map[string]bool

func (a testAccess) grant(listingID uint64, account, capability string) {
	a[fmt.Sprintf("%d/%s/%s", listingID, account, capability)] = true
}

func (a testAccess) Has(listingID uint64, account, capability string) bool {
	return a[fmt.Sprintf("%d/%s/%s", listingID, account, capability)]
}
