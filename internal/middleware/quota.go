package middleware

import (
	"context"
	"strings"

	"toolhub/internal/core"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/pkg/response"
	"toolhub/internal/quota"
	"toolhub/internal/telemetry"

	"github.com/gin-gonic/gin"
)

// QuotaEnforcer 由 service.QuotaService 實作
type QuotaEnforcer interface {
	Enforce(ctx context.Context, project quota.ProjectRef) error
}

// Quota 在 search 與 execute 端點前扣除專案每日與 org 每月額度
type Quota struct {
	trace    *telemetry.Trace
	enforcer QuotaEnforcer
}

func NewQuota(trace *telemetry.Trace, enforcer QuotaEnforcer) *Quota {
	return &Quota{trace: trace, enforcer: enforcer}
}

func (middleware *Quota) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isQuotaMetered(c.FullPath()) {
			c.Next()
			return
		}
		ctx, _, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanQuotaMiddleware))
		project, ok := ProjectFrom(c)
		if !ok {
			cause := cErr.UnauthorizedApiKey("missing project context")
			response.AbortWithError(c, cause)
			end(cause)
			return
		}
		if err := middleware.enforcer.Enforce(ctx, quota.ProjectRef{ID: project.ID.Hex(), OrgID: project.OrgID}); err != nil {
			response.AbortWithError(c, err)
			end(err)
			return
		}
		end(nil)
		c.Next()
	}
}

// isQuotaMetered 依註冊的路由樣板判斷：/v1/apps 與 /v1/functions 底下最後一段為字面 search 或 execute。
// 以參數命中的 "/v1/apps/execute" 樣板是 /v1/apps/:appName，不計量；未命中路由時 fullPath 為空。
func isQuotaMetered(fullPath string) bool {
	if !strings.HasPrefix(fullPath, "/v1/apps/") && !strings.HasPrefix(fullPath, "/v1/functions/") {
		return false
	}
	last := fullPath[strings.LastIndexByte(fullPath, '/')+1:]
	return last == "search" || last == "execute"
}
