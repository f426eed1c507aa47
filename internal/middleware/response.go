package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"toolhub/config"
	"toolhub/internal/core"
	"toolhub/internal/database/fluentd/model"
	"toolhub/internal/database/fluentd/repository"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/pkg/response"
	"toolhub/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 把 handler 以 c.Set("data") 留下的結果包成統一格式
type Response struct {
	logger            *zap.Logger
	trace             *telemetry.Trace
	metric            *telemetry.Metric
	config            *config.Configuration
	fluentdRepository *repository.LogRepository
}

func NewResponse(
	logger *zap.Logger,
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	config *config.Configuration,
	fluentdRepository *repository.LogRepository,
) *Response {
	return &Response{
		logger:            logger,
		trace:             trace,
		metric:            metric,
		config:            config,
		fluentdRepository: fluentdRepository,
	}
}

func (middleware *Response) FormatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if isUnobserved(endpoint) {
			c.Next()
			return
		}
		requestTime := requestStart(c)

		c.Next()

		// 錯誤交給 Recovery；已自行輸出（例如 redirect）就不再包裝
		if len(c.Errors) > 0 || c.Writer.Written() {
			return
		}
		statusCode := c.Writer.Status()
		if statusCode >= http.StatusBadRequest {
			response.AbortWithError(c, cErr.MapHttpStatusToError(statusCode, "request error"))
			return
		}

		ctx, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanResponseMiddleware))
		defer end(nil)

		data, _ := c.Get("data")
		if data == nil {
			data = map[string]any{}
		}
		message := "Request Success"
		if msg, ok := c.Get("message"); ok {
			if s, ok := msg.(string); ok && s != "" {
				message = s
			}
		}
		duration := time.Since(requestTime)
		requestID := span.SpanContext().TraceID().String()

		middleware.trace.ApplyTraceAttributes(span, core.TraceResponseMeta{
			Path:       c.Request.URL.Path,
			Method:     c.Request.Method,
			Status:     statusCode,
			Message:    message,
			Code:       cErr.SUCCESS,
			DurationMs: float64(duration.Milliseconds()),
			Data:       safePreviewJSON(data, maxLoggedBody),
		})
		middleware.logger.Info("[Response] "+message,
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Int("status", statusCode),
			zap.Duration("duration", duration),
			zap.String("traceId", requestID),
		)

		jsonBytes, err := json.Marshal(response.Response{
			RequestID:   requestID,
			Code:        cErr.SUCCESS,
			Data:        data,
			Message:     "OK",
			Description: message,
		})
		if err != nil {
			response.AbortWithError(c, cErr.InternalServer("marshal response failed"))
			return
		}

		// 回應本文可能含一次性的 API key，fluentd 只記錄預覽與狀態
		if err := middleware.fluentdRepository.LogResponse(ctx, model.ResponseLog{
			RequestID:  requestID,
			Service:    middleware.config.App.Name,
			ProjectID:  projectIDOf(c),
			Route:      routeOf(c),
			Code:       cErr.SUCCESS,
			StatusCode: statusCode,
			Body:       safePreviewJSON(redactJSON(toGeneric(data)), maxLoggedBody),
			DurationMs: duration.Milliseconds(),
			ResponseTS: time.Now().UTC().Format("2006-01-02 15:04:05.999999 UTC"),
			Version:    middleware.config.App.Version,
		}); err != nil {
			middleware.logger.Warn("fluentd response log failed", zap.Error(err))
		}
		if middleware.metric.ResponseSuccessTotal != nil {
			middleware.metric.ResponseSuccessTotal.WithLabelValues(routeOf(c), strconv.Itoa(statusCode)).Inc()
		}

		c.Writer.Header().Set("Content-Type", "application/json")
		c.Writer.WriteHeader(statusCode)
		if _, err := c.Writer.Write(jsonBytes); err != nil {
			middleware.logger.Warn("write response failed", zap.Error(err))
		}
	}
}

// toGeneric 轉成 map/slice 以便遮蔽欄位
func toGeneric(data any) any {
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return data
	}
	return generic
}

// safePreviewJSON 序列化為 JSON 字串並限制長度
func safePreviewJSON(data any, max int) string {
	var out string
	switch v := data.(type) {
	case string:
		out = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("[marshal error: %v]", err)
		}
		out = string(b)
	}
	if len(out) > max {
		return out[:max] + "…"
	}
	return out
}
