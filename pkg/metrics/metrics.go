// Package metrics 提供 Prometheus helper，包含定价服务的 counter/gauge/histogram 集合
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/optionpricing/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 定价合约计数
	ContractsPricedTotal prometheus.Counter
	// 单次定价计算耗时
	PricingDuration prometheus.Histogram
	// 套利警示计数
	ArbitrageWarningsTotal prometheus.Counter

	// Outbox 已转发消息计数
	OutboxPublishedTotal prometheus.Counter
	// Outbox 待转发消息数
	OutboxPendingMessages prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		// HTTP 指标
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "derivatives",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "derivatives",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// 定价指标
		ContractsPricedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "derivatives",
			Subsystem: serviceName,
			Name:      "contracts_priced_total",
			Help:      "Total option contracts priced",
		}),
		PricingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "derivatives",
			Subsystem: serviceName,
			Name:      "pricing_duration_seconds",
			Help:      "Lattice pricing duration in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
		}),
		ArbitrageWarningsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "derivatives",
			Subsystem: serviceName,
			Name:      "arbitrage_warnings_total",
			Help:      "Total pricings flagged with a risk neutral probability outside [0,1]",
		}),

		// Outbox 指标
		OutboxPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "derivatives",
			Subsystem: serviceName,
			Name:      "outbox_published_total",
			Help:      "Total outbox messages relayed to the broker",
		}),
		OutboxPendingMessages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "derivatives",
			Subsystem: serviceName,
			Name:      "outbox_pending_messages",
			Help:      "Number of outbox messages waiting to be relayed",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	metrics := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ContractsPricedTotal,
		m.PricingDuration,
		m.ArbitrageWarningsTotal,
		m.OutboxPublishedTotal,
		m.OutboxPendingMessages,
	}

	for _, metric := range metrics {
		if err := prometheus.DefaultRegisterer.Register(metric); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}

// MetricsCollector 指标收集器接口
type MetricsCollector interface {
	// 记录 HTTP 请求
	RecordHTTPRequest(method, path string, statusCode int, duration float64)
	// 记录一次合约定价
	RecordContractPriced(duration float64)
	// 记录一次套利警示
	RecordArbitrageWarning()
	// 记录一条 Outbox 消息转发
	RecordOutboxPublished()
	// 更新待转发消息数
	UpdateOutboxPending(count int64)
}

// DefaultMetricsCollector 默认指标收集器实现
type DefaultMetricsCollector struct {
	metrics *Metrics
}

// NewDefaultMetricsCollector 创建默认指标收集器
func NewDefaultMetricsCollector(metrics *Metrics) *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		metrics: metrics,
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (dmc *DefaultMetricsCollector) RecordHTTPRequest(method, path string, statusCode int, duration float64) {
	dmc.metrics.HTTPRequestsTotal.Inc()
	dmc.metrics.HTTPRequestDuration.Observe(duration)
}

// RecordContractPriced 记录一次合约定价
func (dmc *DefaultMetricsCollector) RecordContractPriced(duration float64) {
	dmc.metrics.ContractsPricedTotal.Inc()
	dmc.metrics.PricingDuration.Observe(duration)
}

// RecordArbitrageWarning 记录一次套利警示
func (dmc *DefaultMetricsCollector) RecordArbitrageWarning() {
	dmc.metrics.ArbitrageWarningsTotal.Inc()
}

// RecordOutboxPublished 记录一条 Outbox 消息转发
func (dmc *DefaultMetricsCollector) RecordOutboxPublished() {
	dmc.metrics.OutboxPublishedTotal.Inc()
}

// UpdateOutboxPending 更新待转发消息数
func (dmc *DefaultMetricsCollector) UpdateOutboxPending(count int64) {
	dmc.metrics.OutboxPendingMessages.Set(float64(count))
}
