package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/response"
)

// HTTP 处理器
// 负责处理与期权定价相关的 HTTP 请求
type PricingHandler struct {
	svc       *application.PricingService
	collector metrics.MetricsCollector
}

// 创建 HTTP 处理器实例
func NewPricingHandler(svc *application.PricingService, collector metrics.MetricsCollector) *PricingHandler {
	return &PricingHandler{svc: svc, collector: collector}
}

// 注册路由
// 将处理器方法绑定到 Gin 路由引擎
func (h *PricingHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/v1/pricing")
	{
		api.POST("/price", h.PriceOption)
		api.POST("/price/batch", h.BatchPriceOptions)
		api.POST("/convergence", h.AnalyzeConvergence)
		api.GET("/results/:id", h.GetResult)
		api.GET("/results", h.ListResults)
		api.GET("/latest/:symbol", h.GetLatestResult)
	}
}

// PriceOptionRequest 期权定价请求
// Volatility 与 RiskFreeRate 允许为零，因此不加 required 校验
type PriceOptionRequest struct {
	Symbol       string  `json:"symbol" binding:"required"`
	OptionType   string  `json:"option_type" binding:"required"`
	Steps        int     `json:"steps" binding:"required"`
	Maturity     float64 `json:"maturity" binding:"required"`
	SpotPrice    float64 `json:"spot_price" binding:"required"`
	Volatility   float64 `json:"volatility"`
	RiskFreeRate float64 `json:"risk_free_rate"`
	StrikePrice  float64 `json:"strike_price" binding:"required"`
	FullTrees    bool    `json:"full_trees"`
}

// BatchPriceRequest 批量定价请求
type BatchPriceRequest struct {
	BatchID   string               `json:"batch_id"`
	Contracts []PriceOptionRequest `json:"contracts" binding:"required"`
}

// ConvergenceRequest 收敛性分析请求
type ConvergenceRequest struct {
	OptionType   string  `json:"option_type" binding:"required"`
	Maturity     float64 `json:"maturity" binding:"required"`
	SpotPrice    float64 `json:"spot_price" binding:"required"`
	Volatility   float64 `json:"volatility"`
	RiskFreeRate float64 `json:"risk_free_rate"`
	StrikePrice  float64 `json:"strike_price" binding:"required"`
	StepsSeq     []int   `json:"steps_seq" binding:"required"`
}

func toPriceOptionCommand(req PriceOptionRequest) application.PriceOptionCommand {
	return application.PriceOptionCommand{
		Symbol:       req.Symbol,
		OptionType:   req.OptionType,
		Steps:        req.Steps,
		Maturity:     req.Maturity,
		SpotPrice:    req.SpotPrice,
		Volatility:   req.Volatility,
		RiskFreeRate: req.RiskFreeRate,
		StrikePrice:  req.StrikePrice,
		FullTrees:    req.FullTrees,
	}
}

// handlePricingError 将领域错误映射为 HTTP 状态码
// 参数非法返回 400，数值溢出返回 422，其余返回 500
func (h *PricingHandler) handlePricingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSteps),
		errors.Is(err, domain.ErrInvalidMaturity),
		errors.Is(err, domain.ErrInvalidSpotPrice),
		errors.Is(err, domain.ErrInvalidStrikePrice),
		errors.Is(err, domain.ErrInvalidOptionType):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_PARAMETER")
	case errors.Is(err, domain.ErrNumericOverflow):
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), "NUMERIC_OVERFLOW")
	default:
		logger.Error(c.Request.Context(), "failed to price option", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// PriceOption 对单个期权合约执行二叉树定价
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var req PriceOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	start := time.Now()
	out, err := h.svc.PriceOption(c.Request.Context(), toPriceOptionCommand(req))
	if err != nil {
		h.handlePricingError(c, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordContractPriced(time.Since(start).Seconds())
		if out.Result.ArbitrageWarning {
			h.collector.RecordArbitrageWarning()
		}
	}

	payload := gin.H{
		"result":    out.Result,
		"constants": out.Constants,
	}
	if req.FullTrees {
		payload["price_grid"] = out.PriceGrid
		payload["option_grid"] = out.OptionGrid
	}
	response.Success(c, payload)
}

// BatchPriceOptions 批量定价
func (h *PricingHandler) BatchPriceOptions(c *gin.Context) {
	var req BatchPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if len(req.Contracts) == 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "contracts must not be empty", "")
		return
	}

	cmd := application.BatchPriceOptionsCommand{BatchID: req.BatchID}
	for _, contract := range req.Contracts {
		cmd.Contracts = append(cmd.Contracts, toPriceOptionCommand(contract))
	}

	result, err := h.svc.BatchPriceOptions(c.Request.Context(), cmd)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to price option batch", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	if h.collector != nil {
		for _, r := range result.Results {
			h.collector.RecordContractPriced(result.AverageTime)
			if r.ArbitrageWarning {
				h.collector.RecordArbitrageWarning()
			}
		}
	}

	response.Success(c, gin.H{
		"batch_id":      result.BatchID,
		"results":       result.Results,
		"success_count": result.SuccessCount,
		"failure_count": result.FailureCount,
		"average_time":  result.AverageTime,
	})
}

// AnalyzeConvergence 分析二叉树价格对解析解的收敛性
func (h *PricingHandler) AnalyzeConvergence(c *gin.Context) {
	var req ConvergenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	query := application.ConvergenceQuery{
		OptionType:   req.OptionType,
		Maturity:     req.Maturity,
		SpotPrice:    req.SpotPrice,
		Volatility:   req.Volatility,
		RiskFreeRate: req.RiskFreeRate,
		StrikePrice:  req.StrikePrice,
		StepsSeq:     req.StepsSeq,
	}

	report, err := h.svc.AnalyzeConvergence(c.Request.Context(), query)
	if err != nil {
		h.handlePricingError(c, err)
		return
	}

	response.Success(c, gin.H{"report": report})
}

// GetResult 按 ID 查询定价结果
func (h *PricingHandler) GetResult(c *gin.Context) {
	id := c.Param("id")

	result, err := h.svc.GetResult(c.Request.Context(), id)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to get pricing result", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if result == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "pricing result not found", "")
		return
	}

	response.Success(c, result)
}

// GetLatestResult 查询标的最近一次定价结果
func (h *PricingHandler) GetLatestResult(c *gin.Context) {
	symbol := c.Param("symbol")

	result, err := h.svc.GetLatestResult(c.Request.Context(), symbol)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to get latest pricing result", "symbol", symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if result == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "pricing result not found", "")
		return
	}

	response.Success(c, result)
}

// ListResults 分页查询标的定价历史
func (h *PricingHandler) ListResults(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "symbol is required", "")
		return
	}

	page := 1
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil {
			page = p
		}
	}
	pageSize := 10
	if sizeStr := c.Query("page_size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil {
			pageSize = s
		}
	}

	results, pagination, err := h.svc.ListResults(c.Request.Context(), application.ListResultsQuery{
		Symbol:   symbol,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list pricing results", "symbol", symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{
		"results":    results,
		"pagination": pagination,
	})
}
