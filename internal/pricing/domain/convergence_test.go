package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convergenceParams() PricingParameters {
	return PricingParameters{
		Maturity:     1.0,
		SpotPrice:    100,
		Volatility:   0.2,
		RiskFreeRate: 0.05,
		StrikePrice:  100,
		OptionType:   OptionTypeCall,
	}
}

func TestAnalyzeConvergence(t *testing.T) {
	stepsSeq := []int{10, 100, 1000}

	report, err := AnalyzeConvergence(convergenceParams(), stepsSeq)
	require.NoError(t, err)

	assert.InDelta(t, 10.4505835722, report.AnalyticValue, 1e-9)
	require.Len(t, report.Points, 3)

	// CRR 误差为 O(1/N)，N=10 时相对解析解的偏差约 0.2
	for i, point := range report.Points {
		assert.Equal(t, stepsSeq[i], point.Steps)
		assert.InDelta(t, report.AnalyticValue, point.BinomialValue, 0.25)
	}

	// 步数增加时误差向解析解单调收敛
	assert.Greater(t, report.Points[0].AbsoluteError, report.Points[1].AbsoluteError)
	assert.Greater(t, report.Points[1].AbsoluteError, report.Points[2].AbsoluteError)
	assert.True(t, report.MonotoneDecreasing)

	assert.Equal(t, report.Points[0].AbsoluteError, report.MaxError)
	assert.LessOrEqual(t, report.MeanError, report.MaxError)
	assert.Greater(t, report.MeanError, 0.0)
}

func TestAnalyzeConvergencePut(t *testing.T) {
	params := convergenceParams()
	params.OptionType = OptionTypePut

	report, err := AnalyzeConvergence(params, []int{10, 100, 1000})
	require.NoError(t, err)

	assert.InDelta(t, 5.5735260223, report.AnalyticValue, 1e-9)
	assert.True(t, report.MonotoneDecreasing)
}

func TestAnalyzeConvergenceEmptySequence(t *testing.T) {
	report, err := AnalyzeConvergence(convergenceParams(), nil)
	require.ErrorIs(t, err, ErrInvalidSteps)
	assert.Nil(t, report)
}

func TestAnalyzeConvergenceInvalidRun(t *testing.T) {
	report, err := AnalyzeConvergence(convergenceParams(), []int{10, 0})
	require.ErrorIs(t, err, ErrInvalidSteps)
	assert.Nil(t, report)
}

func TestAnalyzeConvergenceRespectsGivenOrder(t *testing.T) {
	report, err := AnalyzeConvergence(convergenceParams(), []int{1000, 10})
	require.NoError(t, err)

	require.Len(t, report.Points, 2)
	assert.Equal(t, 1000, report.Points[0].Steps)
	assert.Equal(t, 10, report.Points[1].Steps)
	// 递减序列下误差回升，单调标志必须为 false
	assert.False(t, report.MonotoneDecreasing)
}
