package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PricingCommandService 处理定价相关的命令操作
// 使用 Outbox 发布领域事件
type PricingCommandService struct {
	repo      domain.PricingResultRepository
	publisher domain.EventPublisher
}

// NewPricingCommandService 创建新的 PricingCommandService 实例
func NewPricingCommandService(repo domain.PricingResultRepository, publisher domain.EventPublisher) *PricingCommandService {
	return &PricingCommandService{
		repo:      repo,
		publisher: publisher,
	}
}

// PriceOption 用二叉树为单个合约定价并持久化结果
// 计算在事务外完成，事务内只做结果保存与事件写入
func (c *PricingCommandService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*PriceOptionResult, error) {
	if cmd.Symbol == "" {
		return nil, errors.New("symbol is required")
	}

	params := toPricingParameters(cmd)
	outcome, err := domain.PriceBinomial(params)
	if err != nil {
		return nil, err
	}

	if outcome.ArbitrageWarning {
		slog.WarnContext(ctx, "risk neutral probability outside [0,1]",
			"symbol", cmd.Symbol,
			"risk_neutral_prob", outcome.Constants.RiskNeutralProb,
		)
	}

	result := domain.NewPricingResult(uuid.New().String(), cmd.Symbol, params, outcome)

	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := c.repo.Save(txCtx, result); err != nil {
			return err
		}

		if c.publisher == nil {
			return nil
		}

		event := domain.OptionPricedEvent{
			ResultID:         result.ID,
			Symbol:           cmd.Symbol,
			OptionType:       params.OptionType,
			Steps:            params.Steps,
			Maturity:         params.Maturity,
			SpotPrice:        params.SpotPrice,
			Volatility:       params.Volatility,
			RiskFreeRate:     params.RiskFreeRate,
			StrikePrice:      params.StrikePrice,
			OptionPrice:      outcome.Value,
			RiskNeutralProb:  outcome.Constants.RiskNeutralProb,
			ArbitrageWarning: outcome.ArbitrageWarning,
			PricingModel:     domain.PricingModelBinomial,
			CalculatedAt:     result.CalculatedAt,
			OccurredOn:       time.Now(),
		}
		return c.publisher.PublishOptionPriced(txCtx, event)
	})
	if err != nil {
		return nil, err
	}

	return &PriceOptionResult{
		Result:     result,
		Constants:  outcome.Constants,
		PriceGrid:  outcome.PriceGrid,
		OptionGrid: outcome.OptionGrid,
	}, nil
}

// BatchPriceOptions 批量定价，单个合约失败不影响其余合约
func (c *PricingCommandService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	batchID := cmd.BatchID
	if batchID == "" {
		batchID = uuid.New().String()
	}

	results := make([]*domain.PricingResult, 0, len(cmd.Contracts))
	successCount := 0
	failureCount := 0
	totalTime := 0.0

	for _, contract := range cmd.Contracts {
		startTime := time.Now()
		priced, err := c.PriceOption(ctx, contract)
		totalTime += time.Since(startTime).Seconds()

		if err != nil {
			slog.ErrorContext(ctx, "failed to price contract in batch",
				"batch_id", batchID,
				"symbol", contract.Symbol,
				"error", err,
			)
			failureCount++
			continue
		}

		results = append(results, priced.Result)
		successCount++
	}

	avg := 0.0
	if len(cmd.Contracts) > 0 {
		avg = totalTime / float64(len(cmd.Contracts))
	}

	if c.publisher != nil {
		err := c.publisher.PublishBatchPricingCompleted(ctx, domain.BatchPricingCompletedEvent{
			BatchID:        batchID,
			Symbols:        extractSymbols(cmd.Contracts),
			TotalContracts: len(cmd.Contracts),
			SuccessCount:   successCount,
			FailureCount:   failureCount,
			CompletedAt:    time.Now().Unix(),
			OccurredOn:     time.Now(),
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to publish batch pricing completed event",
				"batch_id", batchID,
				"error", err,
			)
		}
	}

	return &BatchPricingResult{
		BatchID:      batchID,
		Results:      results,
		SuccessCount: successCount,
		FailureCount: failureCount,
		AverageTime:  avg,
	}, nil
}

// 辅助函数：提取合约符号
func extractSymbols(contracts []PriceOptionCommand) []string {
	symbols := make([]string, 0, len(contracts))
	seen := make(map[string]bool)

	for _, contract := range contracts {
		if !seen[contract.Symbol] {
			symbols = append(symbols, contract.Symbol)
			seen[contract.Symbol] = true
		}
	}

	return symbols
}
