package middleware

import (
	"time"

	"toolhub/config"
	"toolhub/internal/core"
	"toolhub/internal/telemetry"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Cors struct {
	trace *telemetry.Trace
	conf  *config.Configuration
}

func NewCors(trace *telemetry.Trace, conf *config.Configuration) *Cors {
	return &Cors{trace: trace, conf: conf}
}

type corsMeta struct {
	AllowOrigins []string `trace:"http.cors.allow_origins"`
	AllowMethods []string `trace:"http.cors.allow_methods"`
	AllowHeaders []string `trace:"http.cors.allow_headers"`
	AllowCreds   bool     `trace:"http.cors.allow_credentials"`
}

func (m *Cors) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:  []string{"Content-Type", "Authorization", "X-API-KEY"},
		ExposeHeaders: []string{"X-Trace-Id", "X-App-Version"},
		MaxAge:        12 * time.Hour,
	}
	// 萬用來源不能搭配 credentials
	if len(m.conf.App.CorsAllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = m.conf.App.CorsAllowOrigins
		cfg.AllowCredentials = true
	}
	return cfg
}

// CorsHandler 觀測路徑不開 span，但 CORS 一律套用，避免 preflight 失敗
func (m *Cors) CorsHandler() gin.HandlerFunc {
	cfg := m.corsConfig()
	corsHandler := cors.New(cfg)
	meta := corsMeta{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
		AllowHeaders: cfg.AllowHeaders,
		AllowCreds:   cfg.AllowCredentials,
	}

	return func(c *gin.Context) {
		if isUnobserved(c.FullPath()) {
			corsHandler(c)
			return
		}
		_, span, end := m.trace.WithSpan(c.Request.Context(), string(core.SpanCorsMiddleware))
		m.trace.ApplyTraceAttributes(span, meta)
		end(nil)
		corsHandler(c)
	}
}
