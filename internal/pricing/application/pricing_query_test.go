package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// fakeResultCache 缓存的内存实现
type fakeResultCache struct {
	results map[string]*domain.PricingResult
	latest  map[string]*domain.PricingResult
	saveErr error
	getErr  error
	saves   int
}

func newFakeResultCache() *fakeResultCache {
	return &fakeResultCache{
		results: make(map[string]*domain.PricingResult),
		latest:  make(map[string]*domain.PricingResult),
	}
}

func (f *fakeResultCache) SaveResult(ctx context.Context, result *domain.PricingResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.results[result.ID] = result
	f.latest[result.Symbol] = result
	return nil
}

func (f *fakeResultCache) GetResult(ctx context.Context, id string) (*domain.PricingResult, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.results[id], nil
}

func (f *fakeResultCache) GetLatestBySymbol(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.latest[symbol], nil
}

func TestGetResultCacheHit(t *testing.T) {
	repo := newFakePricingRepo()
	cache := newFakeResultCache()
	svc := NewPricingQueryService(repo, cache)

	cached := &domain.PricingResult{ID: "r1", Symbol: "AAPL"}
	cache.results["r1"] = cached

	got, err := svc.GetResult(context.Background(), "r1")
	require.NoError(t, err)
	assert.Same(t, cached, got)
	assert.Zero(t, repo.findCalls)
}

func TestGetResultCacheMissFallsBackToRepo(t *testing.T) {
	repo := newFakePricingRepo()
	cache := newFakeResultCache()
	svc := NewPricingQueryService(repo, cache)

	stored := &domain.PricingResult{ID: "r1", Symbol: "AAPL"}
	repo.byID["r1"] = stored

	got, err := svc.GetResult(context.Background(), "r1")
	require.NoError(t, err)
	assert.Same(t, stored, got)
	assert.Equal(t, 1, repo.findCalls)
	// 回源后立即回填缓存
	assert.Equal(t, 1, cache.saves)
	assert.Same(t, stored, cache.results["r1"])
}

func TestGetResultNotFound(t *testing.T) {
	repo := newFakePricingRepo()
	cache := newFakeResultCache()
	svc := NewPricingQueryService(repo, cache)

	got, err := svc.GetResult(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, cache.saves)
}

func TestGetResultRepoError(t *testing.T) {
	repo := newFakePricingRepo()
	repo.findErr = errors.New("connection refused")
	cache := newFakeResultCache()
	svc := NewPricingQueryService(repo, cache)

	got, err := svc.GetResult(context.Background(), "r1")
	require.Error(t, err)
	assert.Nil(t, got)
}

func TestGetResultCacheReadFailureFallsBackToRepo(t *testing.T) {
	repo := newFakePricingRepo()
	cache := newFakeResultCache()
	cache.getErr = errors.New("redis down")
	svc := NewPricingQueryService(repo, cache)

	stored := &domain.PricingResult{ID: "r1", Symbol: "AAPL"}
	repo.byID["r1"] = stored
	repo.latest["AAPL"] = stored

	got, err := svc.GetResult(context.Background(), "r1")
	require.NoError(t, err)
	assert.Same(t, stored, got)

	latest, err := svc.GetLatestResult(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Same(t, stored, latest)
	assert.Equal(t, 2, repo.findCalls)
}

func TestGetResultCacheRefreshFailureIgnored(t *testing.T) {
	repo := newFakePricingRepo()
	cache := newFakeResultCache()
	cache.saveErr = errors.New("redis down")
	svc := NewPricingQueryService(repo, cache)

	stored := &domain.PricingResult{ID: "r1", Symbol: "AAPL"}
	repo.byID["r1"] = stored

	got, err := svc.GetResult(context.Background(), "r1")
	require.NoError(t, err)
	assert.Same(t, stored, got)
}

func TestGetLatestResult(t *testing.T) {
	repo := newFakePricingRepo()
	cache := newFakeResultCache()
	svc := NewPricingQueryService(repo, cache)

	t.Run("cache hit", func(t *testing.T) {
		cached := &domain.PricingResult{ID: "r1", Symbol: "AAPL"}
		cache.latest["AAPL"] = cached

		got, err := svc.GetLatestResult(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Same(t, cached, got)
		assert.Zero(t, repo.findCalls)
	})

	t.Run("cache miss falls back to repo", func(t *testing.T) {
		stored := &domain.PricingResult{ID: "r2", Symbol: "MSFT"}
		repo.latest["MSFT"] = stored

		got, err := svc.GetLatestResult(context.Background(), "MSFT")
		require.NoError(t, err)
		assert.Same(t, stored, got)
		assert.Same(t, stored, cache.latest["MSFT"])
	})

	t.Run("not found", func(t *testing.T) {
		got, err := svc.GetLatestResult(context.Background(), "TSLA")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestListResultsPagination(t *testing.T) {
	repo := newFakePricingRepo()
	repo.total = 25
	repo.listed = []*domain.PricingResult{
		{ID: "r11", Symbol: "AAPL"},
		{ID: "r12", Symbol: "AAPL"},
	}
	svc := NewPricingQueryService(repo, newFakeResultCache())

	results, page, err := svc.ListResults(context.Background(), ListResultsQuery{
		Symbol:   "AAPL",
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	require.NotNil(t, page)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, int64(3), page.Pages)
	assert.Equal(t, 10, repo.lastOffset)
	assert.Equal(t, 10, repo.lastLimit)
}

func TestListResultsEmpty(t *testing.T) {
	repo := newFakePricingRepo()
	svc := NewPricingQueryService(repo, newFakeResultCache())

	results, page, err := svc.ListResults(context.Background(), ListResultsQuery{
		Symbol:   "AAPL",
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, int64(0), page.Total)
	// 无记录时不触发列表查询
	assert.Zero(t, repo.lastLimit)
}

func TestListResultsClampsPageParams(t *testing.T) {
	repo := newFakePricingRepo()
	repo.total = 5
	svc := NewPricingQueryService(repo, newFakeResultCache())

	_, page, err := svc.ListResults(context.Background(), ListResultsQuery{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 0, repo.lastOffset)
}

func TestAnalyzeConvergenceQuery(t *testing.T) {
	svc := NewPricingQueryService(newFakePricingRepo(), newFakeResultCache())

	report, err := svc.AnalyzeConvergence(context.Background(), ConvergenceQuery{
		OptionType:   "CALL",
		Maturity:     1.0,
		SpotPrice:    100.0,
		Volatility:   0.2,
		RiskFreeRate: 0.05,
		StrikePrice:  100.0,
		StepsSeq:     []int{10, 100},
	})
	require.NoError(t, err)
	require.Len(t, report.Points, 2)
	assert.InDelta(t, 10.4505835722, report.AnalyticValue, 1e-9)
	assert.Less(t, report.Points[1].AbsoluteError, report.Points[0].AbsoluteError)
}

func TestAnalyzeConvergenceCancelledContext(t *testing.T) {
	svc := NewPricingQueryService(newFakePricingRepo(), newFakeResultCache())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.AnalyzeConvergence(ctx, ConvergenceQuery{
		OptionType:   "CALL",
		Maturity:     1.0,
		SpotPrice:    100.0,
		Volatility:   0.2,
		RiskFreeRate: 0.05,
		StrikePrice:  100.0,
		StepsSeq:     []int{10},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}
