package domain

import "errors"

// Domain outcomes reported to callers. These are the definitive result of
// the requested operation and are never coerced into a different action.
var (
	// ErrInvalidRange - risk range with non-positive width or bounds
	ErrInvalidRange = errors.New("invalid risk range")

	// ErrInvalidRules - trading rules with min > max or bounds outside [0,1]
	ErrInvalidRules = errors.New("invalid trading rules")

	// ErrInsufficientShares - sell request exceeds currently held shares
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrInsufficientCash - buy request exceeds available cash balance
	ErrInsufficientCash = errors.New("insufficient cash")

	// ErrDuplicateDecision - a decision already exists for (symbol, trade date)
	ErrDuplicateDecision = errors.New("decision already exists for this trading day")

	// ErrAlreadyResolved - the decision is already in a terminal state
	ErrAlreadyResolved = errors.New("decision already resolved")

	// ErrNotFound - no such decision, position or portfolio record
	ErrNotFound = errors.New("not found")

	// ErrStoreTimeout - a store read/write exceeded its bounded timeout
	ErrStoreTimeout = errors.New("store operation timed out")

	// ErrStoreUnavailable - the store cannot be reached at all
	ErrStoreUnavailable = errors.New("store unavailable")
)
