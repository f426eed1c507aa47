package middleware

import (
	"errors"
	"strings"

	"toolhub/config"
	"toolhub/internal/core"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/pkg/response"
	"toolhub/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// Admin 驗證管理後台的 HS256 Bearer token
type Admin struct {
	logger *zap.Logger
	trace  *telemetry.Trace
	conf   *config.Configuration
}

func NewAdmin(logger *zap.Logger, trace *telemetry.Trace, conf *config.Configuration) *Admin {
	return &Admin{logger: logger, trace: trace, conf: conf}
}

// Handler 寫入操作需要 admin 角色；readonly 只能 GET
func (middleware *Admin) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanAdminMiddleware))
		meta := core.TraceAdminMiddlewareMeta{}
		fail := func(status string, cause error) {
			meta.Status = status
			middleware.trace.ApplyTraceAttributes(span, meta)
			response.AbortWithError(c, cause)
			end(cause)
		}

		claims, err := middleware.parse(c.GetHeader("Authorization"))
		if err != nil {
			fail("invalid_token", cErr.Unauthorized(err.Error()))
			return
		}
		meta.Username = claims.Username
		meta.Role = string(claims.Role)
		switch claims.Role {
		case core.RoleAdmin:
		case core.RoleReadOnly:
			if c.Request.Method != "GET" {
				fail("forbidden_role", cErr.Forbidden("readonly role cannot modify resources"))
				return
			}
		default:
			fail("unknown_role", cErr.Forbidden("unknown admin role"))
			return
		}

		meta.Status = "success"
		middleware.trace.ApplyTraceAttributes(span, meta)
		end(nil)
		c.Set(core.ContextAdminKey, claims)
		c.Next()
	}
}

func (middleware *Admin) parse(header string) (*core.AdminClaims, error) {
	secret := middleware.conf.App.AdminJWTSecret
	if secret == "" {
		return nil, errors.New("admin api is disabled")
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, errors.New("missing bearer token")
	}
	claims := &core.AdminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid or expired admin token")
	}
	return claims, nil
}
