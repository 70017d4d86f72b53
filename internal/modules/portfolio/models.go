package portfolio

import (
	"encoding/json"
	"time"
)

// Position is the current holding for one ticker. Shares are whole ETF
// shares and never go negative; mutation happens only inside the trade
// executor's transaction.
type Position struct {
	Symbol       string          `json:"symbol"`
	Shares       int64           `json:"shares"`
	CurrentPrice float64         `json:"current_price"`
	MarketValue  float64         `json:"market_value"`
	Annotations  json.RawMessage `json:"annotations,omitempty"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// ValueSnapshot is one day's recorded portfolio value, used for
// performance statistics.
type ValueSnapshot struct {
	Date           string  `json:"date"`
	TotalValue     float64 `json:"total_value"`
	CashBalance    float64 `json:"cash_balance"`
	PositionsValue float64 `json:"positions_value"`
}

// PerformanceStats are derived from the daily value snapshots
type PerformanceStats struct {
	Days            int     `json:"days"`
	MeanDailyReturn float64 `json:"mean_daily_return"`
	DailyVolatility float64 `json:"daily_volatility"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	TotalReturn     float64 `json:"total_return"`
}
