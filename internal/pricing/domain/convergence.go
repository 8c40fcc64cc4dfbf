package domain

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// ConvergencePoint 单个步数下的二叉树价格与解析解误差
type ConvergencePoint struct {
	Steps         int     `json:"steps"`
	BinomialValue float64 `json:"binomial_value"`
	AbsoluteError float64 `json:"absolute_error"`
}

// ConvergenceReport 二叉树价格向 Black-Scholes 解析解收敛的分析结果
type ConvergenceReport struct {
	AnalyticValue float64            `json:"analytic_value"`
	Points        []ConvergencePoint `json:"points"`
	MeanError     float64            `json:"mean_error"`
	MaxError      float64            `json:"max_error"`
	// 误差沿步数序列单调不增时为 true
	MonotoneDecreasing bool `json:"monotone_decreasing"`
}

// AnalyzeConvergence 在给定步数序列上重复定价，对比 Black-Scholes 解析解
// 步数序列按给定顺序求值，单调性按该顺序判断
func AnalyzeConvergence(params PricingParameters, stepsSeq []int) (*ConvergenceReport, error) {
	if len(stepsSeq) == 0 {
		return nil, ErrInvalidSteps
	}

	analytic := CalculateBlackScholes(params.OptionType, BlackScholesInput{
		S: params.SpotPrice,
		K: params.StrikePrice,
		T: params.Maturity,
		R: params.RiskFreeRate,
		V: params.Volatility,
	})

	points := make([]ConvergencePoint, 0, len(stepsSeq))
	absErrors := make([]float64, 0, len(stepsSeq))
	monotone := true

	for idx, n := range stepsSeq {
		runParams := params
		runParams.Steps = n
		runParams.OutputMode = OutputModeValueOnly

		result, err := PriceBinomial(runParams)
		if err != nil {
			return nil, fmt.Errorf("failed to price with %d steps: %w", n, err)
		}

		absErr := math.Abs(result.Value - analytic)
		if idx > 0 && absErr > absErrors[idx-1] {
			monotone = false
		}

		points = append(points, ConvergencePoint{
			Steps:         n,
			BinomialValue: result.Value,
			AbsoluteError: absErr,
		})
		absErrors = append(absErrors, absErr)
	}

	meanErr, err := stats.Mean(stats.Float64Data(absErrors))
	if err != nil {
		return nil, fmt.Errorf("failed to compute mean error: %w", err)
	}
	maxErr, err := stats.Max(stats.Float64Data(absErrors))
	if err != nil {
		return nil, fmt.Errorf("failed to compute max error: %w", err)
	}

	return &ConvergenceReport{
		AnalyticValue:      analytic,
		Points:             points,
		MeanError:          meanErr,
		MaxError:           maxErr,
		MonotoneDecreasing: monotone,
	}, nil
}
