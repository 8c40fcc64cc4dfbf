package domain

import "time"

const (
	OptionPricedEventType          = "OptionPriced"
	BatchPricingCompletedEventType = "BatchPricingCompleted"
)

// OptionPricedEvent 期权定价完成事件
type OptionPricedEvent struct {
	ResultID         string     `json:"result_id"`
	Symbol           string     `json:"symbol"`
	OptionType       OptionType `json:"option_type"`
	Steps            int        `json:"steps"`
	Maturity         float64    `json:"maturity"`
	SpotPrice        float64    `json:"spot_price"`
	Volatility       float64    `json:"volatility"`
	RiskFreeRate     float64    `json:"risk_free_rate"`
	StrikePrice      float64    `json:"strike_price"`
	OptionPrice      float64    `json:"option_price"`
	RiskNeutralProb  float64    `json:"risk_neutral_prob"`
	ArbitrageWarning bool       `json:"arbitrage_warning"`
	PricingModel     string     `json:"pricing_model"`
	CalculatedAt     int64      `json:"calculated_at"`
	OccurredOn       time.Time  `json:"occurred_on"`
}

// BatchPricingCompletedEvent 批量定价完成事件
type BatchPricingCompletedEvent struct {
	BatchID        string    `json:"batch_id"`
	Symbols        []string  `json:"symbols"`
	TotalContracts int       `json:"total_contracts"`
	SuccessCount   int       `json:"success_count"`
	FailureCount   int       `json:"failure_count"`
	CompletedAt    int64     `json:"completed_at"`
	OccurredOn     time.Time `json:"occurred_on"`
}
