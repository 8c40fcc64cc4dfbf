package application

import (
	"context"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/utils"
)

// PricingService 定价门面服务。
type PricingService struct {
	Command *PricingCommandService
	Query   *PricingQueryService
}

// NewPricingService 构造函数。
func NewPricingService(repo domain.PricingResultRepository, cache domain.PricingResultCache, publisher domain.EventPublisher) *PricingService {
	return &PricingService{
		Command: NewPricingCommandService(repo, publisher),
		Query:   NewPricingQueryService(repo, cache),
	}
}

// --- Command Facade ---

func (s *PricingService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*PriceOptionResult, error) {
	return s.Command.PriceOption(ctx, cmd)
}

func (s *PricingService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	return s.Command.BatchPriceOptions(ctx, cmd)
}

// --- Query Facade ---

func (s *PricingService) GetResult(ctx context.Context, id string) (*domain.PricingResult, error) {
	return s.Query.GetResult(ctx, id)
}

func (s *PricingService) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	return s.Query.GetLatestResult(ctx, symbol)
}

func (s *PricingService) ListResults(ctx context.Context, query ListResultsQuery) ([]*domain.PricingResult, *utils.Pagination, error) {
	return s.Query.ListResults(ctx, query)
}

func (s *PricingService) AnalyzeConvergence(ctx context.Context, query ConvergenceQuery) (*domain.ConvergenceReport, error) {
	return s.Query.AnalyzeConvergence(ctx, query)
}
