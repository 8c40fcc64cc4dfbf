package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// PricingModelBinomial 当前服务使用的定价模型标识
const PricingModelBinomial = "CRR_BINOMIAL"

// PricingResult 定价结果实体
// 金额与概率以 decimal 持久化，模型参数保持 float64
type PricingResult struct {
	ID               string          `json:"id"`
	Symbol           string          `json:"symbol"`
	OptionType       OptionType      `json:"option_type"`
	Steps            int             `json:"steps"`
	Maturity         float64         `json:"maturity"`
	SpotPrice        decimal.Decimal `json:"spot_price"`
	Volatility       float64         `json:"volatility"`
	RiskFreeRate     float64         `json:"risk_free_rate"`
	StrikePrice      decimal.Decimal `json:"strike_price"`
	OptionPrice      decimal.Decimal `json:"option_price"`
	RiskNeutralProb  decimal.Decimal `json:"risk_neutral_prob"`
	ArbitrageWarning bool            `json:"arbitrage_warning"`
	PricingModel     string          `json:"pricing_model"`
	CalculatedAt     int64           `json:"calculated_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewPricingResult 由定价输入与输出构建结果实体
func NewPricingResult(id, symbol string, params PricingParameters, outcome *BinomialResult) *PricingResult {
	now := time.Now()
	return &PricingResult{
		ID:               id,
		Symbol:           symbol,
		OptionType:       params.OptionType,
		Steps:            params.Steps,
		Maturity:         params.Maturity,
		SpotPrice:        decimal.NewFromFloat(params.SpotPrice),
		Volatility:       params.Volatility,
		RiskFreeRate:     params.RiskFreeRate,
		StrikePrice:      decimal.NewFromFloat(params.StrikePrice),
		OptionPrice:      decimal.NewFromFloat(outcome.Value),
		RiskNeutralProb:  decimal.NewFromFloat(outcome.Constants.RiskNeutralProb),
		ArbitrageWarning: outcome.ArbitrageWarning,
		PricingModel:     PricingModelBinomial,
		CalculatedAt:     now.UnixMilli(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
