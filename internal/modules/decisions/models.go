// Package decisions tracks the pending-to-resolved lifecycle of recommended
// trades, one decision per ticker per trading day.
package decisions

import (
	"time"

	"github.com/kpapad/rangekeeper/internal/domain"
)

// Decision is the lifecycle record of one recommended trade.
// PENDING -> ACCEPTED | DECLINED; terminal once resolved. A new trading day
// creates a new decision, never reopens a resolved one.
type Decision struct {
	ID             string                `json:"id"`
	Symbol         string                `json:"symbol"`
	TradeDate      string                `json:"trade_date"`
	Status         domain.DecisionStatus `json:"status"`
	Recommendation domain.Recommendation `json:"recommendation"`
	CreatedAt      time.Time             `json:"created_at"`
	ResolvedAt     *time.Time            `json:"resolved_at,omitempty"`
}
