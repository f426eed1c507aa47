package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"toolhub/config"
	"toolhub/internal/core"
	"toolhub/internal/database/fluentd/model"
	"toolhub/internal/database/fluentd/repository"
	"toolhub/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxLoggedBody = 2000
	redacted      = "[REDACTED]"
)

// 請求中帶有憑證的 header 與 JSON 欄位，不寫進 log
var (
	sensitiveHeaders = map[string]bool{
		"authorization": true,
		"x-api-key":     true,
		"cookie":        true,
	}
	sensitiveFields = map[string]bool{
		"credentials":   true,
		"secret_key":    true,
		"access_token":  true,
		"refresh_token": true,
		"client_secret": true,
		"code":          true,
		"keyvalue":      true,
	}
)

type Logger struct {
	logger            *zap.Logger
	trace             *telemetry.Trace
	config            *config.Configuration
	fluentdRepository *repository.LogRepository
}

func NewLogger(
	logger *zap.Logger,
	trace *telemetry.Trace,
	config *config.Configuration,
	fluentdRepository *repository.LogRepository,
) *Logger {
	return &Logger{
		logger:            logger,
		trace:             trace,
		config:            config,
		fluentdRepository: fluentdRepository,
	}
}

// LoggerHandler 記錄每個請求；二進位 body 不讀，文字 body 截斷並遮蔽憑證
func (m *Logger) LoggerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if isUnobserved(endpoint) {
			c.Next()
			return
		}

		ctx, span, end := m.trace.WithSpan(c.Request.Context(), string(core.SpanLoggerMiddleware))
		requestTime := requestStart(c)
		body := readLoggedBody(c)

		headerMap := make(map[string]string, len(c.Request.Header))
		for k, v := range c.Request.Header {
			lk := strings.ToLower(k)
			if sensitiveHeaders[lk] {
				headerMap[lk] = redacted
				continue
			}
			headerMap[lk] = strings.Join(v, ",")
		}
		paramsMap := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			paramsMap[p.Key] = p.Value
		}
		query := redactQuery(c)

		m.trace.ApplyTraceAttributes(span, core.LoggerRequestMeta{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			FullPath:   endpoint,
			Query:      query,
			Body:       body,
			Scheme:     schemeOf(c),
			Host:       c.Request.Host,
			UserAgent:  c.Request.UserAgent(),
			ContentLen: c.Request.ContentLength,
			Proto:      c.Request.Proto,
			ClientIP:   c.ClientIP(),
			Headers:    headerMap,
			Params:     paramsMap,
		})

		traceID := span.SpanContext().TraceID()
		spanID := span.SpanContext().SpanID()
		logFields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("headers", headerMap),
		}
		if query != "" {
			logFields = append(logFields, zap.String("query", query))
		}
		if len(paramsMap) > 0 {
			logFields = append(logFields, zap.Any("params", paramsMap))
		}
		if body != "" {
			logFields = append(logFields, zap.String("body", body))
		}
		logFields = append(logFields,
			zap.String("spanId", fmt.Sprintf("%x", spanID[:])),
			zap.String("traceId", fmt.Sprintf("%x", traceID[:])),
		)
		m.logger.Info("[Request] logging middleware message", logFields...)

		err := m.fluentdRepository.LogRequest(ctx, model.RequestLog{
			RequestID: fmt.Sprintf("%x", traceID[:]),
			Service:   m.config.App.Name,
			Method:    c.Request.Method,
			Route:     endpoint,
			Path:      c.Request.URL.Path,
			Query:     query,
			Body:      body,
			IPHash:    hashIP(c.ClientIP()),
			UserAgent: c.Request.UserAgent(),
			Version:   m.config.App.Version,
			RequestTS: requestTime.UTC().Format("2006-01-02 15:04:05.999999 UTC"),
		})
		if err != nil {
			m.logger.Warn("fluentd request log failed", zap.Error(err))
		}
		end(nil)
		c.Next()
	}
}

// hashIP log 只保留 IP 雜湊的前 8 bytes
func hashIP(ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}

// readLoggedBody 讀完 body 後回填，確保下游仍可讀取
func readLoggedBody(c *gin.Context) string {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if isBinaryContent(mediaType) {
		if c.Request.ContentLength > 0 {
			return fmt.Sprintf("(binary %s, %d bytes)", mediaType, c.Request.ContentLength)
		}
		return fmt.Sprintf("(binary %s)", mediaType)
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return ""
	}
	data, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(data))

	if strings.HasPrefix(mediaType, "application/json") && len(data) > 0 {
		var decoded any
		if json.Unmarshal(data, &decoded) == nil {
			if masked, err := json.Marshal(redactJSON(decoded)); err == nil {
				data = masked
			}
		}
	}
	return toSafePreview(data, maxLoggedBody)
}

// redactJSON 遞迴遮蔽憑證欄位
func redactJSON(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, inner := range v {
			if sensitiveFields[strings.ToLower(key)] {
				v[key] = redacted
				continue
			}
			v[key] = redactJSON(inner)
		}
		return v
	case []any:
		for i, inner := range v {
			v[i] = redactJSON(inner)
		}
		return v
	default:
		return v
	}
}

// OAuth2 callback 的 code 與 state 在 query 中
func redactQuery(c *gin.Context) string {
	if c.Request.URL.RawQuery == "" {
		return ""
	}
	values := c.Request.URL.Query()
	for key := range values {
		if sensitiveFields[strings.ToLower(key)] || strings.EqualFold(key, "state") {
			values.Set(key, redacted)
		}
	}
	return values.Encode()
}

// UTF-8 直接截斷；非 UTF-8 以 Base64 表示
func toSafePreview(b []byte, max int) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		if len(b) > max {
			return string(b[:max]) + "…"
		}
		return string(b)
	}
	if len(b) > max {
		b = b[:max]
	}
	return "b64:" + base64.StdEncoding.EncodeToString(b)
}

func isBinaryContent(mediaType string) bool {
	return strings.HasPrefix(mediaType, "multipart/") ||
		strings.HasPrefix(mediaType, "image/") ||
		strings.HasPrefix(mediaType, "audio/") ||
		strings.HasPrefix(mediaType, "video/") ||
		mediaType == "application/octet-stream"
}
