package domain

import "context"

// PricingResultRepository 定价结果仓储接口
type PricingResultRepository interface {
	// WithTx 在单个事务中执行 fn，fn 内通过 ctx 传递事务
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Save(ctx context.Context, result *PricingResult) error
	// FindByID 未命中时返回 (nil, nil)
	FindByID(ctx context.Context, id string) (*PricingResult, error)
	// GetLatest 返回指定标的最近一次定价，未命中时返回 (nil, nil)
	GetLatest(ctx context.Context, symbol string) (*PricingResult, error)
	ListBySymbol(ctx context.Context, symbol string, offset, limit int) ([]*PricingResult, error)
	CountBySymbol(ctx context.Context, symbol string) (int64, error)
}

// PricingResultCache 定价结果缓存接口，未命中时返回 (nil, nil)
type PricingResultCache interface {
	SaveResult(ctx context.Context, result *PricingResult) error
	GetResult(ctx context.Context, id string) (*PricingResult, error)
	GetLatestBySymbol(ctx context.Context, symbol string) (*PricingResult, error)
}
