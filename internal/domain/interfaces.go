package domain

import "context"

// RangeProvider supplies the daily batch of risk-range snapshots.
// Ingestion mechanics (email parsing, symbol remapping) live behind this
// boundary; the engine only sees well-formed or skippable snapshots.
// Symbols are unique within a batch.
type RangeProvider interface {
	FetchDaily(ctx context.Context, tradeDate string) ([]RangeSnapshot, error)
}
