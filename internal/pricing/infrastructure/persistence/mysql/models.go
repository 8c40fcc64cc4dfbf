package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PricingResultModel 定价结果数据库模型
type PricingResultModel struct {
	ID               string    `gorm:"column:id;type:varchar(36);primaryKey"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
	Symbol           string    `gorm:"column:symbol;type:varchar(32);index;not null"`
	OptionType       string    `gorm:"column:option_type;type:varchar(8);not null"`
	Steps            int       `gorm:"column:steps;type:int;not null"`
	Maturity         float64   `gorm:"column:maturity;type:decimal(20,8);not null"`
	SpotPrice        string    `gorm:"column:spot_price;type:decimal(32,18);not null"`
	Volatility       float64   `gorm:"column:volatility;type:decimal(20,8);not null"`
	RiskFreeRate     float64   `gorm:"column:risk_free_rate;type:decimal(20,8);not null"`
	StrikePrice      string    `gorm:"column:strike_price;type:decimal(32,18);not null"`
	OptionPrice      string    `gorm:"column:option_price;type:decimal(32,18);not null"`
	RiskNeutralProb  string    `gorm:"column:risk_neutral_prob;type:decimal(32,18);not null"`
	ArbitrageWarning bool      `gorm:"column:arbitrage_warning;not null"`
	PricingModel     string    `gorm:"column:pricing_model;type:varchar(32)"`
	CalculatedAt     int64     `gorm:"column:calculated_at;type:bigint;index;not null"`
}

func (PricingResultModel) TableName() string { return "pricing_results" }

// mapping helpers

func toPricingResultModel(res *domain.PricingResult) *PricingResultModel {
	if res == nil {
		return nil
	}
	return &PricingResultModel{
		ID:               res.ID,
		CreatedAt:        res.CreatedAt,
		UpdatedAt:        res.UpdatedAt,
		Symbol:           res.Symbol,
		OptionType:       string(res.OptionType),
		Steps:            res.Steps,
		Maturity:         res.Maturity,
		SpotPrice:        res.SpotPrice.String(),
		Volatility:       res.Volatility,
		RiskFreeRate:     res.RiskFreeRate,
		StrikePrice:      res.StrikePrice.String(),
		OptionPrice:      res.OptionPrice.String(),
		RiskNeutralProb:  res.RiskNeutralProb.String(),
		ArbitrageWarning: res.ArbitrageWarning,
		PricingModel:     res.PricingModel,
		CalculatedAt:     res.CalculatedAt,
	}
}

func toPricingResult(m *PricingResultModel) *domain.PricingResult {
	if m == nil {
		return nil
	}
	spot, _ := decimal.NewFromString(m.SpotPrice)
	strike, _ := decimal.NewFromString(m.StrikePrice)
	opPrice, _ := decimal.NewFromString(m.OptionPrice)
	prob, _ := decimal.NewFromString(m.RiskNeutralProb)

	return &domain.PricingResult{
		ID:               m.ID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		Symbol:           m.Symbol,
		OptionType:       domain.OptionType(m.OptionType),
		Steps:            m.Steps,
		Maturity:         m.Maturity,
		SpotPrice:        spot,
		Volatility:       m.Volatility,
		RiskFreeRate:     m.RiskFreeRate,
		StrikePrice:      strike,
		OptionPrice:      opPrice,
		RiskNeutralProb:  prob,
		ArbitrageWarning: m.ArbitrageWarning,
		PricingModel:     m.PricingModel,
		CalculatedAt:     m.CalculatedAt,
	}
}
