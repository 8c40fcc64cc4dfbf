package domain

import (
	"math"
)

// BlackScholesInput Black-Scholes 模型输入
type BlackScholesInput struct {
	S float64 // 标的资产价格
	K float64 // 执行价格
	T float64 // 到期时间 (年)
	R float64 // 无风险利率
	V float64 // 波动率
}

// CalculateBlackScholes 计算欧式期权的 Black-Scholes 闭式解
// 二叉树收敛性分析以该值作为解析参照
func CalculateBlackScholes(optionType OptionType, input BlackScholesInput) float64 {
	// 波动率或剩余期限为零时退化为贴现内在价值，避免 d1 除零
	if input.V <= 0 || input.T <= 0 {
		forward := input.K * math.Exp(-input.R*input.T)
		if optionType == OptionTypeCall {
			return math.Max(input.S-forward, 0)
		}
		return math.Max(forward-input.S, 0)
	}

	d1 := (math.Log(input.S/input.K) + (input.R+0.5*input.V*input.V)*input.T) / (input.V * math.Sqrt(input.T))
	d2 := d1 - input.V*math.Sqrt(input.T)

	if optionType == OptionTypeCall {
		return input.S*normCdf(d1) - input.K*math.Exp(-input.R*input.T)*normCdf(d2)
	}
	return input.K*math.Exp(-input.R*input.T)*normCdf(-d2) - input.S*normCdf(-d1)
}

// normCdf 标准正态分布累积分布函数
func normCdf(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
