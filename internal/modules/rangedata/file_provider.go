// Package rangedata supplies daily risk-range snapshots to the decision
// cycle and archives them. Ingestion itself (email parsing, index-to-ETF
// symbol remapping) happens upstream and out of process.
package rangedata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/domain"
)

// FileProvider reads the daily snapshot batch from a drop directory where
// the upstream ingestor writes one JSON file per trading day:
// snapshots-<YYYY-MM-DD>.json containing an array of snapshots.
type FileProvider struct {
	dir string
	log zerolog.Logger
}

// Compile-time check that FileProvider implements domain.RangeProvider
var _ domain.RangeProvider = (*FileProvider)(nil)

// NewFileProvider creates a provider reading from the given directory
func NewFileProvider(dir string, log zerolog.Logger) *FileProvider {
	return &FileProvider{
		dir: dir,
		log: log.With().Str("provider", "rangefile").Logger(),
	}
}

// FetchDaily reads the batch for one trading day. Symbols are unique
// within the returned batch; a duplicate entry keeps the first occurrence.
// Individual snapshot validity is the cycle's concern, so malformed
// entries pass through here untouched.
func (p *FileProvider) FetchDaily(ctx context.Context, tradeDate string) ([]domain.RangeSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(p.dir, fmt.Sprintf("snapshots-%s.json", tradeDate))
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot batch %s: %w", path, err)
	}

	var snapshots []domain.RangeSnapshot
	if err := json.Unmarshal(content, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot batch %s: %w", path, err)
	}

	seen := make(map[string]bool, len(snapshots))
	batch := make([]domain.RangeSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		symbol := strings.ToUpper(strings.TrimSpace(snap.Symbol))
		if symbol != "" && seen[symbol] {
			p.log.Warn().
				Str("symbol", symbol).
				Str("trade_date", tradeDate).
				Msg("Duplicate symbol in snapshot batch, keeping first occurrence")
			continue
		}
		if symbol != "" {
			seen[symbol] = true
		}
		snap.Symbol = symbol
		if snap.TradeDate == "" {
			snap.TradeDate = tradeDate
		}
		batch = append(batch, snap)
	}

	p.log.Info().
		Str("trade_date", tradeDate).
		Int("count", len(batch)).
		Msg("Snapshot batch loaded")

	return batch, nil
}
