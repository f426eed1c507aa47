package middleware

import (
	"net"
	"strconv"
	"time"

	"toolhub/config"
	"toolhub/internal/core"
	"toolhub/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceEntry 最外層 middleware：建立 server span 並記錄 HTTP 指標
type TraceEntry struct {
	trace  *telemetry.Trace
	metric *telemetry.Metric
	conf   *config.Configuration
}

func NewTraceEntry(trace *telemetry.Trace, metric *telemetry.Metric, conf *config.Configuration) *TraceEntry {
	return &TraceEntry{trace: trace, metric: metric, conf: conf}
}

func (m *TraceEntry) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if isUnobserved(endpoint) {
			c.Next()
			return
		}
		start := requestStart(c)

		// 沿用上游帶來的 traceparent
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := m.trace.StartSpanForLayer(ctx, core.TraceSpanName(c.Request.Method+" "+routeOf(c)), trace.WithSpanKind(trace.SpanKindServer))
		c.Request = c.Request.WithContext(ctx)
		c.Set(core.ContextTraceKey, ctx)
		if spanContext := span.SpanContext(); spanContext.HasTraceID() {
			c.Header("X-Trace-Id", spanContext.TraceID().String())
		}

		peerAddr, peerPort := splitPeer(c)
		meta := core.TraceHttpServerMeta{
			ClientAddr:        c.ClientIP(),
			HttpRequestMethod: c.Request.Method,
			HttpRoute:         routeOf(c),
			UrlPath:           c.Request.URL.Path,
			UrlScheme:         schemeOf(c),
			UserAgent:         c.Request.UserAgent(),
			ServerAddress:     m.conf.App.Name,
			NetworkPeerAddr:   peerAddr,
			NetworkPeerPort:   peerPort,
			NetworkProtoVer:   c.Request.Proto,
			SpanTraceID:       span.SpanContext().TraceID().String(),
		}
		m.trace.ApplyTraceAttributes(span, &meta)

		c.Next()

		statusCode := c.Writer.Status()
		meta.HttpStatusCode = statusCode
		m.trace.ApplyTraceAttributes(span, &meta)

		var cause error
		if statusCode >= 400 && len(c.Errors) > 0 {
			cause = c.Errors.Last().Err
		}
		m.trace.EndSpan(span, cause)

		if m.metric.HttpRequestsTotal != nil && m.metric.HttpRequestDuration != nil {
			m.metric.HttpRequestsTotal.WithLabelValues(routeOf(c), strconv.Itoa(statusCode)).Inc()
			m.metric.HttpRequestDuration.WithLabelValues(routeOf(c)).Observe(time.Since(start).Seconds())
		}
	}
}

// routeOf 使用 gin 的路由樣板，避免 path 參數讓指標基數爆炸
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func schemeOf(c *gin.Context) string {
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

func splitPeer(c *gin.Context) (string, int) {
	host, port, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.ClientIP(), 0
	}
	peerPort, _ := strconv.Atoi(port)
	return host, peerPort
}
