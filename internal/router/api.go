package router

import (
	"toolhub/internal/handler"
	"toolhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

// APIRouter agent 使用的 /v1 路由；search 與 execute 會經過額度檢查
type APIRouter struct {
	catalogHandler       *handler.CatalogHandler
	linkedAccountHandler *handler.LinkedAccountHandler
	apiKeyMiddleware     *middleware.APIKey
	quotaMiddleware      *middleware.Quota
}

func NewAPIRouter(
	catalogHandler *handler.CatalogHandler,
	linkedAccountHandler *handler.LinkedAccountHandler,
	apiKeyMiddleware *middleware.APIKey,
	quotaMiddleware *middleware.Quota,
) *APIRouter {
	return &APIRouter{
		catalogHandler:       catalogHandler,
		linkedAccountHandler: linkedAccountHandler,
		apiKeyMiddleware:     apiKeyMiddleware,
		quotaMiddleware:      quotaMiddleware,
	}
}

func (apiRouter *APIRouter) RegisterRoutes(engine *gin.Engine) {
	// provider 直接導回瀏覽器，不帶 API key
	engine.GET("/v1/linked-accounts/oauth2/callback", apiRouter.linkedAccountHandler.OAuth2Callback)

	router := engine.Group("/v1")
	router.Use(apiRouter.apiKeyMiddleware.Handler())
	router.Use(apiRouter.quotaMiddleware.Handler())

	apps := router.Group("/apps")
	{
		apps.GET("/search", apiRouter.catalogHandler.SearchApps)
		apps.GET("/:appName", apiRouter.catalogHandler.GetApp)
	}

	functions := router.Group("/functions")
	{
		functions.GET("/search", apiRouter.catalogHandler.SearchFunctions)
		functions.GET("/:functionName", apiRouter.catalogHandler.GetFunction)
		functions.POST("/:functionName/execute", apiRouter.catalogHandler.ExecuteFunction)
	}

	accounts := router.Group("/linked-accounts")
	{
		accounts.POST("", apiRouter.linkedAccountHandler.Link)
		accounts.GET("", apiRouter.linkedAccountHandler.List)
		accounts.POST("/oauth2", apiRouter.linkedAccountHandler.OAuth2Start)
		accounts.GET("/:accountID", apiRouter.linkedAccountHandler.Get)
		accounts.PATCH("/:accountID", apiRouter.linkedAccountHandler.Update)
		accounts.DELETE("/:accountID", apiRouter.linkedAccountHandler.Delete)
	}

	router.GET("/quota", apiRouter.catalogHandler.Quota)
}
