package ledger

import (
	"errors"
	"sync"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token is the in-memory fungible asset ledger. The total supply is fixed at
// creation and minted to the owner account; all later movement happens through
// Transfer and allowance-gated TransferFrom.
type Token struct {
	name   string
	symbol string
	supply uint64

	mu         sync.Mutex
	balances   map[string]uint64
	allowances map[string]map[string]uint64
}

// NewToken creates a token ledger with the full supply credited to owner.
func NewToken(name, symbol string, supply uint64, owner string) *Token {
	t := &Token{
		name:       name,
		symbol:     symbol,
		supply:     supply,
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
	t.balances[owner] = supply
	return t
}

func (t *Token) Name() string        { return t.name }
func (t *Token) Symbol() string      { return t.symbol }
func (t *Token) TotalSupply() uint64 { return t.supply }

func (t *Token) BalanceOf(account string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account]
}

// Approve authorizes spender to pull up to amount from owner. It replaces any
// previous allowance for that spender.
func (t *Token) Approve(owner, spender string, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[string]uint64)
	}
	t.allowances[owner][spender] = amount
}

func (t *Token) Allowance(owner, spender string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowances[owner][spender]
}

// Transfer moves amount from from to to.
func (t *Token) Transfer(from, to string, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// TransferFrom moves amount from from to to on behalf of spender, consuming
// the allowance atomically with the transfer. No partial effect on failure.
func (t *Token) TransferFrom(spender, from, to string, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[from][spender] < amount {
		return ErrInsufficientAllowance
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][spender] -= amount
	return nil
}

func (t *Token) move(from, to string, amount uint64) error {
	if t.balances[from] < amount {
		return ErrInsufficientBalance
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}
