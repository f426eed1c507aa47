package telemetry

import (
	"toolhub/config"
	"toolhub/internal/core"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ProviderSet = wire.NewSet(NewTrace, NewMetric)

// Metric struct
// 關閉 metric 時所有欄位皆為 nil，呼叫端需先判斷
type Metric struct {
	HttpRequestsTotal         *prometheus.CounterVec
	HttpRequestDuration       *prometheus.HistogramVec
	ResponseSuccessTotal      *prometheus.CounterVec
	ResponseFailTotal         *prometheus.CounterVec
	QuotaExceededTotal        *prometheus.CounterVec
	TokenRefreshTotal         *prometheus.CounterVec
	CredentialWriteBackFail   *prometheus.CounterVec
	FunctionExecutionTotal    *prometheus.CounterVec
	FunctionExecutionDuration *prometheus.HistogramVec
	OrgMonthlyUsage           *prometheus.GaugeVec
	config                    *config.Configuration
}

// NewMetric 建立所有指標
func NewMetric(config *config.Configuration) *Metric {
	if config == nil || !config.Telemetry.Metric.Enabled {
		return &Metric{}
	}
	buckets := prometheus.DefBuckets
	if len(config.Telemetry.Metric.Buckets) > 0 {
		buckets = config.Telemetry.Metric.Buckets
	}
	name := func(metric core.MetricName) string {
		return config.App.Name + "_" + string(metric)
	}
	return &Metric{
		config: config,
		HttpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: name(core.MetricHttpRequestsTotal),
				Help: "Total received API requests",
			},
			labelNames(core.MetricLabelEndpoint, core.MetricLabelStatus),
		),
		HttpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name(core.MetricHttpRequestDuration),
				Help:    "API request duration (seconds)",
				Buckets: buckets,
			},
			labelNames(core.MetricLabelEndpoint),
		),
		ResponseSuccessTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: name(core.MetricResponseSuccessTotal),
				Help: "Successful responses",
			},
			labelNames(core.MetricLabelEndpoint, core.MetricLabelStatus),
		),
		ResponseFailTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: name(core.MetricResponseFailTotal),
				Help: "Failed responses",
			},
			labelNames(core.MetricLabelReason),
		),
		QuotaExceededTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: name(core.MetricQuotaExceededTotal),
				Help: "Requests rejected by the quota gate",
			},
			labelNames(core.MetricLabelKind),
		),
		TokenRefreshTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: name(core.MetricTokenRefreshTotal),
				Help: "OAuth2 access token refresh attempts",
			},
			labelNames(core.MetricLabelOutcome),
		),
		CredentialWriteBackFail: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: name(core.MetricCredentialWriteBackFail),
				Help: "Refreshed credentials that could not be persisted",
			},
			labelNames(core.MetricLabelSource),
		),
		FunctionExecutionTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: name(core.MetricFunctionExecutionTotal),
				Help: "Function executions",
			},
			labelNames(core.MetricLabelApp, core.MetricLabelStatus),
		),
		FunctionExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name(core.MetricFunctionExecutionDuration),
				Help:    "Outbound function call duration (seconds)",
				Buckets: buckets,
			},
			labelNames(core.MetricLabelApp),
		),
		OrgMonthlyUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: name(core.MetricOrgMonthlyUsage),
				Help: "Monthly API calls consumed per organization",
			},
			labelNames(core.MetricLabelOrg),
		),
	}
}

// labelNames helper: LabelName slice 轉成 []string
func labelNames(labels ...core.MetricLabelName) []string {
	strs := make([]string, len(labels))
	for i, l := range labels {
		strs[i] = string(l)
	}
	return strs
}
