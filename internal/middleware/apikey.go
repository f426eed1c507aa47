package middleware

import (
	"context"
	"fmt"
	"strings"

	"toolhub/internal/core"
	"toolhub/internal/database/mongodb/model"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/pkg/response"
	"toolhub/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const apiKeyHeader = "X-API-KEY"

// APIKeyValidator 由 service.APIKeyService 實作
type APIKeyValidator interface {
	ValidateKey(ctx context.Context, rawKey string) (*model.APIKey, *model.Project, error)
}

type APIKey struct {
	logger    *zap.Logger
	trace     *telemetry.Trace
	validator APIKeyValidator
}

func NewAPIKey(logger *zap.Logger, trace *telemetry.Trace, validator APIKeyValidator) *APIKey {
	return &APIKey{logger: logger, trace: trace, validator: validator}
}

// Handler 驗證專案 API key，成功後把 project 放進 gin context
func (middleware *APIKey) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanAPIKeyMiddleware))
		meta := core.TraceAPIKeyMiddlewareMeta{Where: strings.ToLower(apiKeyHeader), ClientIP: c.ClientIP()}
		fail := func(status string, cause error) {
			meta.Status = status
			middleware.trace.ApplyTraceAttributes(span, meta)
			response.AbortWithError(c, cause)
			end(cause)
		}

		rawKey := strings.TrimSpace(c.GetHeader(apiKeyHeader))
		if rawKey == "" {
			fail("missing_api_key", cErr.UnauthorizedApiKey("missing API key"))
			return
		}
		key, project, err := middleware.validator.ValidateKey(ctx, rawKey)
		if err != nil {
			fail("invalid_api_key", err)
			return
		}

		meta.ProjectID = project.ID.Hex()
		meta.OrgID = project.OrgID
		meta.APIKeyID = key.ID.Hex()
		meta.Status = "success"
		middleware.trace.ApplyTraceAttributes(span, meta)
		traceID := span.SpanContext().TraceID()
		middleware.logger.Info("[APIKey Authenticated]",
			zap.String("projectID", meta.ProjectID),
			zap.String("orgID", meta.OrgID),
			zap.String("apiKeyID", meta.APIKeyID),
			zap.String("traceId", fmt.Sprintf("%x", traceID[:])),
		)
		end(nil)

		c.Set(core.ContextProjectKey, project)
		c.Set(core.ContextAPIKeyIDKey, meta.APIKeyID)
		c.Next()
	}
}

// ProjectFrom 取出 APIKey middleware 放入的專案
func ProjectFrom(c *gin.Context) (*model.Project, bool) {
	raw, ok := c.Get(core.ContextProjectKey)
	if !ok {
		return nil, false
	}
	project, ok := raw.(*model.Project)
	return project, ok && project != nil
}
