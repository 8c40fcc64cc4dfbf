package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/utils"
)

// memRepo 仓储的内存实现
type memRepo struct {
	saved      []*domain.PricingResult
	byID       map[string]*domain.PricingResult
	latest     map[string]*domain.PricingResult
	listed     []*domain.PricingResult
	total      int64
	lastOffset int
	lastLimit  int
}

func newMemRepo() *memRepo {
	return &memRepo{
		byID:   make(map[string]*domain.PricingResult),
		latest: make(map[string]*domain.PricingResult),
	}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memRepo) Save(ctx context.Context, result *domain.PricingResult) error {
	m.saved = append(m.saved, result)
	m.byID[result.ID] = result
	m.latest[result.Symbol] = result
	return nil
}

func (m *memRepo) FindByID(ctx context.Context, id string) (*domain.PricingResult, error) {
	return m.byID[id], nil
}

func (m *memRepo) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	return m.latest[symbol], nil
}

func (m *memRepo) ListBySymbol(ctx context.Context, symbol string, offset, limit int) ([]*domain.PricingResult, error) {
	m.lastOffset = offset
	m.lastLimit = limit
	return m.listed, nil
}

func (m *memRepo) CountBySymbol(ctx context.Context, symbol string) (int64, error) {
	return m.total, nil
}

// memCache 缓存的内存实现
type memCache struct {
	results map[string]*domain.PricingResult
	latest  map[string]*domain.PricingResult
}

func newMemCache() *memCache {
	return &memCache{
		results: make(map[string]*domain.PricingResult),
		latest:  make(map[string]*domain.PricingResult),
	}
}

func (m *memCache) SaveResult(ctx context.Context, result *domain.PricingResult) error {
	m.results[result.ID] = result
	m.latest[result.Symbol] = result
	return nil
}

func (m *memCache) GetResult(ctx context.Context, id string) (*domain.PricingResult, error) {
	return m.results[id], nil
}

func (m *memCache) GetLatestBySymbol(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	return m.latest[symbol], nil
}

// recordingCollector 记录指标调用次数
type recordingCollector struct {
	priced   int
	warnings int
}

func (r *recordingCollector) RecordHTTPRequest(method, path string, statusCode int, duration float64) {
}
func (r *recordingCollector) RecordContractPriced(duration float64) { r.priced++ }
func (r *recordingCollector) RecordArbitrageWarning()               { r.warnings++ }
func (r *recordingCollector) RecordOutboxPublished()                {}
func (r *recordingCollector) UpdateOutboxPending(count int64)       {}

var _ metrics.MetricsCollector = (*recordingCollector)(nil)

func newTestRouter(repo *memRepo, collector metrics.MetricsCollector) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := application.NewPricingService(repo, newMemCache(), nil)
	r := gin.New()
	NewPricingHandler(svc, collector).RegisterRoutes(r.Group("/api"))
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type apiEnvelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func priceRequest() map[string]any {
	return map[string]any{
		"symbol":         "AAPL",
		"option_type":    "CALL",
		"steps":          3,
		"maturity":       1.0,
		"spot_price":     100.0,
		"volatility":     0.1,
		"risk_free_rate": 0.05,
		"strike_price":   100.0,
		"full_trees":     true,
	}
}

func TestPriceOptionEndpoint(t *testing.T) {
	repo := newMemRepo()
	collector := &recordingCollector{}
	router := newTestRouter(repo, collector)

	w := doJSON(router, http.MethodPost, "/api/v1/pricing/price", priceRequest())
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "success", env.Message)

	var data struct {
		Result     *domain.PricingResult   `json:"result"`
		Constants  domain.DerivedConstants `json:"constants"`
		PriceGrid  [][]float64             `json:"price_grid"`
		OptionGrid [][]float64             `json:"option_grid"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	require.NotNil(t, data.Result)
	assert.Equal(t, "AAPL", data.Result.Symbol)
	assert.NotEmpty(t, data.Result.ID)

	price, _ := data.Result.OptionPrice.Float64()
	assert.InDelta(t, 7.0121854, price, 1e-6)
	assert.InDelta(t, 0.63103651, data.Constants.RiskNeutralProb, 1e-6)

	require.Len(t, data.PriceGrid, 4)
	require.Len(t, data.OptionGrid, 4)
	assert.InDelta(t, 118.91099436, data.PriceGrid[0][3], 1e-6)

	assert.Equal(t, 1, collector.priced)
	assert.Zero(t, collector.warnings)
	assert.Len(t, repo.saved, 1)
}

func TestPriceOptionEndpointValueOnly(t *testing.T) {
	router := newTestRouter(newMemRepo(), nil)

	body := priceRequest()
	body["full_trees"] = false

	w := doJSON(router, http.MethodPost, "/api/v1/pricing/price", body)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &data))

	assert.Contains(t, data, "result")
	assert.Contains(t, data, "constants")
	assert.NotContains(t, data, "price_grid")
	assert.NotContains(t, data, "option_grid")
}

func TestPriceOptionEndpointBindingError(t *testing.T) {
	router := newTestRouter(newMemRepo(), nil)

	body := priceRequest()
	delete(body, "strike_price")

	w := doJSON(router, http.MethodPost, "/api/v1/pricing/price", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPriceOptionEndpointInvalidParameter(t *testing.T) {
	router := newTestRouter(newMemRepo(), nil)

	tests := []struct {
		name   string
		mutate func(body map[string]any)
	}{
		{"negative maturity", func(body map[string]any) { body["maturity"] = -1.0 }},
		{"negative spot", func(body map[string]any) { body["spot_price"] = -5.0 }},
		{"unknown option type", func(body map[string]any) { body["option_type"] = "STRADDLE" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := priceRequest()
			tc.mutate(body)

			w := doJSON(router, http.MethodPost, "/api/v1/pricing/price", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			env := decodeEnvelope(t, w)
			assert.Equal(t, "INVALID_PARAMETER", env.ErrorCode)
		})
	}
}

func TestPriceOptionEndpointNumericOverflow(t *testing.T) {
	router := newTestRouter(newMemRepo(), nil)

	body := priceRequest()
	body["spot_price"] = 1e300
	body["volatility"] = 5.0
	body["maturity"] = 100.0
	body["steps"] = 100

	w := doJSON(router, http.MethodPost, "/api/v1/pricing/price", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, "NUMERIC_OVERFLOW", env.ErrorCode)
}

func TestPriceOptionEndpointArbitrageWarning(t *testing.T) {
	collector := &recordingCollector{}
	router := newTestRouter(newMemRepo(), collector)

	body := priceRequest()
	body["steps"] = 1
	body["volatility"] = 0.05
	body["risk_free_rate"] = 1.0

	w := doJSON(router, http.MethodPost, "/api/v1/pricing/price", body)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var data struct {
		Result *domain.PricingResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Result.ArbitrageWarning)
	assert.Equal(t, 1, collector.warnings)
}

func TestBatchPriceEndpoint(t *testing.T) {
	repo := newMemRepo()
	router := newTestRouter(repo, nil)

	good := priceRequest()
	bad := priceRequest()
	bad["symbol"] = "BADCO"
	bad["maturity"] = -1.0

	w := doJSON(router, http.MethodPost, "/api/v1/pricing/price/batch", map[string]any{
		"batch_id":  "batch-001",
		"contracts": []map[string]any{good, bad},
	})
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var data struct {
		BatchID      string                  `json:"batch_id"`
		Results      []*domain.PricingResult `json:"results"`
		SuccessCount int                     `json:"success_count"`
		FailureCount int                     `json:"failure_count"`
		AverageTime  float64                 `json:"average_time"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	assert.Equal(t, "batch-001", data.BatchID)
	assert.Equal(t, 1, data.SuccessCount)
	assert.Equal(t, 1, data.FailureCount)
	require.Len(t, data.Results, 1)
	assert.Equal(t, "AAPL", data.Results[0].Symbol)
	assert.Len(t, repo.saved, 1)
}

func TestBatchPriceEndpointEmptyContracts(t *testing.T) {
	router := newTestRouter(newMemRepo(), nil)

	w := doJSON(router, http.MethodPost, "/api/v1/pricing/price/batch", map[string]any{
		"batch_id":  "batch-001",
		"contracts": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, "contracts must not be empty", env.Message)
}

func TestConvergenceEndpoint(t *testing.T) {
	router := newTestRouter(newMemRepo(), nil)

	w := doJSON(router, http.MethodPost, "/api/v1/pricing/convergence", map[string]any{
		"option_type":    "CALL",
		"maturity":       1.0,
		"spot_price":     100.0,
		"volatility":     0.2,
		"risk_free_rate": 0.05,
		"strike_price":   100.0,
		"steps_seq":      []int{10, 100, 1000},
	})
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var data struct {
		Report *domain.ConvergenceReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	require.NotNil(t, data.Report)
	assert.InDelta(t, 10.4505835722, data.Report.AnalyticValue, 1e-9)
	require.Len(t, data.Report.Points, 3)
	assert.True(t, data.Report.MonotoneDecreasing)
}

func TestConvergenceEndpointInvalidSteps(t *testing.T) {
	router := newTestRouter(newMemRepo(), nil)

	w := doJSON(router, http.MethodPost, "/api/v1/pricing/convergence", map[string]any{
		"option_type":    "CALL",
		"maturity":       1.0,
		"spot_price":     100.0,
		"volatility":     0.2,
		"risk_free_rate": 0.05,
		"strike_price":   100.0,
		"steps_seq":      []int{10, 0},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, "INVALID_PARAMETER", env.ErrorCode)
}

func TestGetResultEndpoint(t *testing.T) {
	repo := newMemRepo()
	repo.byID["r1"] = &domain.PricingResult{ID: "r1", Symbol: "AAPL"}
	router := newTestRouter(repo, nil)

	t.Run("found", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/pricing/results/r1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		env := decodeEnvelope(t, w)
		var result domain.PricingResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, "r1", result.ID)
	})

	t.Run("not found", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/pricing/results/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		env := decodeEnvelope(t, w)
		assert.Equal(t, "pricing result not found", env.Message)
	})
}

func TestGetLatestEndpoint(t *testing.T) {
	repo := newMemRepo()
	repo.latest["AAPL"] = &domain.PricingResult{ID: "r9", Symbol: "AAPL"}
	router := newTestRouter(repo, nil)

	t.Run("found", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/pricing/latest/AAPL", nil)
		require.Equal(t, http.StatusOK, w.Code)

		env := decodeEnvelope(t, w)
		var result domain.PricingResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, "r9", result.ID)
	})

	t.Run("not found", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/pricing/latest/TSLA", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListResultsEndpoint(t *testing.T) {
	repo := newMemRepo()
	repo.total = 12
	repo.listed = []*domain.PricingResult{
		{ID: "r1", Symbol: "AAPL"},
		{ID: "r2", Symbol: "AAPL"},
	}
	router := newTestRouter(repo, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/pricing/results?symbol=AAPL&page=2&page_size=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var data struct {
		Results    []*domain.PricingResult `json:"results"`
		Pagination *utils.Pagination       `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	assert.Len(t, data.Results, 2)
	require.NotNil(t, data.Pagination)
	assert.Equal(t, 2, data.Pagination.Page)
	assert.Equal(t, 5, data.Pagination.PageSize)
	assert.Equal(t, int64(12), data.Pagination.Total)
	assert.Equal(t, 5, repo.lastOffset)
	assert.Equal(t, 5, repo.lastLimit)
}

func TestListResultsEndpointRequiresSymbol(t *testing.T) {
	router := newTestRouter(newMemRepo(), nil)

	w := doJSON(router, http.MethodGet, "/api/v1/pricing/results", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, "symbol is required", env.Message)
}
