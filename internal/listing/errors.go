package listing

import "errors"

// Domain errors. Every money-moving operation fails atomically with one of
// these; no partial mutation escapes a failed call.
var (
	// ErrNoCommit rejects zero-amount deposits.
	ErrNoCommit = errors.New("NO_COMMIT")
	// ErrAllowanceLow rejects a deposit the caller has not authorized on the
	// funding currency.
	ErrAllowanceLow = errors.New("ALLOWANCE_LOW")
	// ErrTokenAllowanceLow rejects a buyout offer lacking a unit allowance.
	ErrTokenAllowanceLow = errors.New("TOKEN_ALLOWANCE_LOW")
	// ErrFundingAllowanceLow rejects a buyout offer lacking a funding allowance.
	ErrFundingAllowanceLow = errors.New("FUNDING_ALLOWANCE_LOW")
	// ErrBadStatus rejects an operation attempted outside its required state.
	ErrBadStatus = errors.New("BAD_STATUS")
	// ErrWrongIroStage rejects title registration before the funding round
	// signals readiness.
	ErrWrongIroStage = errors.New("WRONG_IRO_STAGE")
	// ErrUnauthorized rejects a caller lacking the required capability.
	ErrUnauthorized = errors.New("UNAUTHORIZED")
)
