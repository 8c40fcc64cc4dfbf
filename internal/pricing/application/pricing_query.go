package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/utils"
)

// PricingQueryService 处理所有定价相关的查询操作（Queries）。
// 单条结果查询走 cache-aside，列表查询直接访问仓储
type PricingQueryService struct {
	repo  domain.PricingResultRepository
	cache domain.PricingResultCache
}

// NewPricingQueryService 构造函数。
func NewPricingQueryService(repo domain.PricingResultRepository, cache domain.PricingResultCache) *PricingQueryService {
	return &PricingQueryService{
		repo:  repo,
		cache: cache,
	}
}

// GetResult 按 ID 查询定价结果，未找到时返回 (nil, nil)
func (q *PricingQueryService) GetResult(ctx context.Context, id string) (*domain.PricingResult, error) {
	cached, err := q.cache.GetResult(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "failed to read pricing result cache", "error", err, "result_id", id)
	}
	if err == nil && cached != nil {
		return cached, nil
	}

	result, err := q.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	if err := q.cache.SaveResult(ctx, result); err != nil {
		slog.WarnContext(ctx, "failed to refresh pricing result cache", "error", err, "result_id", id)
	}
	return result, nil
}

// GetLatestResult 查询指定标的最近一次定价结果，未找到时返回 (nil, nil)
func (q *PricingQueryService) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	cached, err := q.cache.GetLatestBySymbol(ctx, symbol)
	if err != nil {
		slog.WarnContext(ctx, "failed to read pricing result cache", "error", err, "symbol", symbol)
	}
	if err == nil && cached != nil {
		return cached, nil
	}

	result, err := q.repo.GetLatest(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	if err := q.cache.SaveResult(ctx, result); err != nil {
		slog.WarnContext(ctx, "failed to refresh pricing result cache", "error", err, "symbol", symbol)
	}
	return result, nil
}

// ListResults 分页查询指定标的的定价历史
func (q *PricingQueryService) ListResults(ctx context.Context, query ListResultsQuery) ([]*domain.PricingResult, *utils.Pagination, error) {
	total, err := q.repo.CountBySymbol(ctx, query.Symbol)
	if err != nil {
		return nil, nil, err
	}

	page := utils.NewPagination(query.Page, query.PageSize, total)
	if total == 0 {
		return []*domain.PricingResult{}, page, nil
	}

	results, err := q.repo.ListBySymbol(ctx, query.Symbol, page.Offset(), page.Limit())
	if err != nil {
		return nil, nil, err
	}
	return results, page, nil
}

// AnalyzeConvergence 对比二叉树价格与 Black-Scholes 解析解
func (q *PricingQueryService) AnalyzeConvergence(ctx context.Context, query ConvergenceQuery) (*domain.ConvergenceReport, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	params := domain.PricingParameters{
		Maturity:     query.Maturity,
		SpotPrice:    query.SpotPrice,
		Volatility:   query.Volatility,
		RiskFreeRate: query.RiskFreeRate,
		StrikePrice:  query.StrikePrice,
		OptionType:   domain.OptionType(query.OptionType),
	}
	return domain.AnalyzeConvergence(params, query.StepsSeq)
}
