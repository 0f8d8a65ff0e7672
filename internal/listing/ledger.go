package listing

// FungibleLedger is the slice of the external fungible asset ledger the
// engines depend on. Deposits are pull-based: the escrow account is the
// spender and consumes a pre-existing allowance from the depositor.
type FungibleLedger interface {
	TotalSupply() uint64
	BalanceOf(account string) uint64
	Allowance(owner, spender string) uint64
	Transfer(from, to string, amount uint64) error
	TransferFrom(spender, from, to string, amount uint64) error
}

// TitleRegistry is the slice of the external non-fungible asset registry the
// listing depends on.
type TitleRegistry interface {
	OwnerOf(id uint64) (string, error)
	SafeTransferFrom(from, to string, id uint64) error
}

// UnitLedgerFactory creates the ownership-unit ledger at fractionalization,
// with the full supply credited to holder (the funding round escrow).
type UnitLedgerFactory interface {
	CreateUnitLedger(name, symbol string, supply uint64, holder string) (FungibleLedger, error)
}

// AccessChecker answers capability checks for role-gated listing transitions.
type AccessChecker interface {
	Has(listingID uint64, account, capability string) bool
}
