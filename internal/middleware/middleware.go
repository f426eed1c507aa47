package middleware

import (
	"strings"
	"time"

	"toolhub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.opentelemetry.io/otel/trace"
)

var ProviderSet = wire.NewSet(
	NewCors,
	NewTraceEntry,
	NewLogger,
	NewRecovery,
	NewResponse,
	NewAPIKey,
	NewAdmin,
	NewQuota,
	wire.Bind(new(APIKeyValidator), new(*service.APIKeyService)),
	wire.Bind(new(QuotaEnforcer), new(*service.QuotaService)),
)

// 不做 tracing 與請求紀錄的路徑
var unobservedPrefixes = []string{"/swagger", "/metrics", "/version", "/health", "/debug/pprof"}

func isUnobserved(endpoint string) bool {
	for _, prefix := range unobservedPrefixes {
		if strings.HasPrefix(endpoint, prefix) {
			return true
		}
	}
	return false
}

const contextRequestStartKey = "requestDuration"

// requestStart 取得最外層 middleware 記下的開始時間，沒有就從現在開始計
func requestStart(c *gin.Context) time.Time {
	if startTime, exists := c.Get(contextRequestStartKey); exists {
		if t, ok := startTime.(time.Time); ok {
			return t
		}
	}
	start := time.Now().UTC()
	c.Set(contextRequestStartKey, start)
	return start
}

// traceIDOf 回傳目前 span 的 trace id，沒有 span 時為空字串
func traceIDOf(c *gin.Context) string {
	spanContext := trace.SpanContextFromContext(c.Request.Context())
	if !spanContext.HasTraceID() {
		return ""
	}
	return spanContext.TraceID().String()
}

// projectIDOf APIKey middleware 之後才有值
func projectIDOf(c *gin.Context) string {
	if project, ok := ProjectFrom(c); ok {
		return project.ID.Hex()
	}
	return ""
}
