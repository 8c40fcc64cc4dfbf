package application

import (
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PriceOptionCommand 期权定价命令
type PriceOptionCommand struct {
	Symbol       string
	OptionType   string
	Steps        int
	Maturity     float64
	SpotPrice    float64
	Volatility   float64
	RiskFreeRate float64
	StrikePrice  float64
	FullTrees    bool
}

// PriceOptionResult 单次定价结果，FullTrees 模式下携带完整价格树
type PriceOptionResult struct {
	Result     *domain.PricingResult
	Constants  domain.DerivedConstants
	PriceGrid  [][]float64
	OptionGrid [][]float64
}

// BatchPriceOptionsCommand 批量定价命令
type BatchPriceOptionsCommand struct {
	BatchID   string
	Contracts []PriceOptionCommand
}

// BatchPricingResult 批量定价结果
type BatchPricingResult struct {
	BatchID      string
	Results      []*domain.PricingResult
	SuccessCount int
	FailureCount int
	AverageTime  float64
}

// ConvergenceQuery 收敛性分析查询
type ConvergenceQuery struct {
	OptionType   string
	Maturity     float64
	SpotPrice    float64
	Volatility   float64
	RiskFreeRate float64
	StrikePrice  float64
	StepsSeq     []int
}

// ListResultsQuery 定价历史查询
type ListResultsQuery struct {
	Symbol   string
	Page     int
	PageSize int
}

func toPricingParameters(cmd PriceOptionCommand) domain.PricingParameters {
	mode := domain.OutputModeValueOnly
	if cmd.FullTrees {
		mode = domain.OutputModeFullTrees
	}
	return domain.PricingParameters{
		Steps:        cmd.Steps,
		Maturity:     cmd.Maturity,
		SpotPrice:    cmd.SpotPrice,
		Volatility:   cmd.Volatility,
		RiskFreeRate: cmd.RiskFreeRate,
		StrikePrice:  cmd.StrikePrice,
		OptionType:   domain.OptionType(cmd.OptionType),
		OutputMode:   mode,
	}
}
