package domain

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidSteps       = errors.New("steps must be at least 1")
	ErrInvalidMaturity    = errors.New("maturity must be positive")
	ErrInvalidSpotPrice   = errors.New("spot price must be positive")
	ErrInvalidStrikePrice = errors.New("strike price must be positive")
	ErrInvalidOptionType  = errors.New("option type must be CALL or PUT")
	ErrNumericOverflow    = errors.New("non-finite value in lattice computation")
)

// OutputMode 定价结果输出模式
type OutputMode string

const (
	OutputModeValueOnly OutputMode = "VALUE_ONLY" // 仅返回期权现值
	OutputModeFullTrees OutputMode = "FULL_TREES" // 返回现值与完整价格树
)

// PricingParameters 二叉树定价输入
type PricingParameters struct {
	Steps        int        // 时间步数 N
	Maturity     float64    // 到期时间 T (年)
	SpotPrice    float64    // 标的资产现价 S0
	Volatility   float64    // 年化波动率 sigma
	RiskFreeRate float64    // 无风险利率 r
	StrikePrice  float64    // 执行价格 K
	OptionType   OptionType // 期权类型
	OutputMode   OutputMode // 输出模式
}

// Validate 校验输入参数，任何计算开始前调用
func (p PricingParameters) Validate() error {
	if p.Steps < 1 {
		return ErrInvalidSteps
	}
	if p.Maturity <= 0 {
		return ErrInvalidMaturity
	}
	if p.SpotPrice <= 0 {
		return ErrInvalidSpotPrice
	}
	if p.StrikePrice <= 0 {
		return ErrInvalidStrikePrice
	}
	if p.OptionType != OptionTypeCall && p.OptionType != OptionTypePut {
		return ErrInvalidOptionType
	}
	return nil
}

// DerivedConstants 由输入参数推导出的每步常量
type DerivedConstants struct {
	DeltaT          float64 `json:"delta_t"`           // 单步时长 dt = T/N
	UpFactor        float64 `json:"up_factor"`         // 上行因子 u = exp(sigma*sqrt(dt))
	DownFactor      float64 `json:"down_factor"`       // 下行因子 d = 1/u
	RiskNeutralProb float64 `json:"risk_neutral_prob"` // 风险中性概率 p
}

// DeriveConstants 推导每步常量
// sigma = 0 时 u = d = 1，两个后继节点取值相同，p 取任意值都不影响结果，约定 0.5
func DeriveConstants(p PricingParameters) DerivedConstants {
	dt := p.Maturity / float64(p.Steps)
	u := math.Exp(p.Volatility * math.Sqrt(dt))
	d := 1 / u

	prob := 0.5
	if u != d {
		prob = (math.Exp(p.RiskFreeRate*dt) - d) / (u - d)
	}

	return DerivedConstants{
		DeltaT:          dt,
		UpFactor:        u,
		DownFactor:      d,
		RiskNeutralProb: prob,
	}
}

// ArbitrageFree 判断风险中性概率是否落在 [0,1]
// 落在区间外意味着 d < exp(r*dt) < u 不成立，模型的无套利假设被破坏
func (c DerivedConstants) ArbitrageFree() bool {
	return c.RiskNeutralProb >= 0 && c.RiskNeutralProb <= 1
}

// BinomialResult 二叉树定价输出
type BinomialResult struct {
	// 期权现值，即 OptionGrid(0,0)
	Value float64
	// 推导常量
	Constants DerivedConstants
	// 标的价格树，仅 FULL_TREES 模式填充
	PriceGrid [][]float64
	// 期权价值树，仅 FULL_TREES 模式填充
	OptionGrid [][]float64
	// 风险中性概率落在 [0,1] 之外时为 true，结果仍然返回
	ArbitrageWarning bool
}

// PriceBinomial 用 Cox-Ross-Rubinstein 二叉树对欧式期权定价
//
// 价格树与价值树均为 (N+1)x(N+1) 三角阵。单元格 (j,i) 表示 i 步后
// 发生 j 次下行的节点：S(j,i) = S0 * u^(i-j) * d^j。行号 j 统计下行
// 次数，节点 (j,i) 的上行后继是 (j,i+1)，下行后继是 (j+1,i+1)，
// 交换该约定会颠倒 p 加权的分支。j > i 的单元格未使用，保持为零。
func PriceBinomial(params PricingParameters) (*BinomialResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	n := params.Steps
	consts := DeriveConstants(params)
	u, d, prob := consts.UpFactor, consts.DownFactor, consts.RiskNeutralProb

	// 正向构建标的价格树，每个节点按闭式公式求值
	priceGrid := mat.NewDense(n+1, n+1, nil)
	for i := 0; i <= n; i++ {
		for j := 0; j <= i; j++ {
			priceGrid.Set(j, i, params.SpotPrice*math.Pow(u, float64(i-j))*math.Pow(d, float64(j)))
		}
	}

	// 极端参数下 u^N 可能溢出，在终端列快速失败而不是让 NaN 扩散
	for j := 0; j <= n; j++ {
		if v := priceGrid.At(j, n); math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNumericOverflow
		}
	}

	// 终端列收益
	optionGrid := mat.NewDense(n+1, n+1, nil)
	for j := 0; j <= n; j++ {
		terminal := priceGrid.At(j, n)
		switch params.OptionType {
		case OptionTypeCall:
			optionGrid.Set(j, n, math.Max(terminal-params.StrikePrice, 0))
		case OptionTypePut:
			optionGrid.Set(j, n, math.Max(params.StrikePrice-terminal, 0))
		}
	}

	// 逐列向后归纳到根节点
	discount := math.Exp(-params.RiskFreeRate * consts.DeltaT)
	for i := n - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			continuation := prob*optionGrid.At(j, i+1) + (1-prob)*optionGrid.At(j+1, i+1)
			optionGrid.Set(j, i, discount*continuation)
		}
	}

	value := optionGrid.At(0, 0)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, ErrNumericOverflow
	}

	result := &BinomialResult{
		Value:            value,
		Constants:        consts,
		ArbitrageWarning: !consts.ArbitrageFree(),
	}
	if params.OutputMode == OutputModeFullTrees {
		result.PriceGrid = gridRows(priceGrid, n+1)
		result.OptionGrid = gridRows(optionGrid, n+1)
	}
	return result, nil
}

// gridRows 将矩阵导出为逐行切片，调用方可自由持有
func gridRows(m *mat.Dense, rows int) [][]float64 {
	out := make([][]float64, rows)
	for j := 0; j < rows; j++ {
		out[j] = mat.Row(nil, j, m)
	}
	return out
}
