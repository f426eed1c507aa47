package router

import (
	"toolhub/internal/handler"
	"toolhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

type AdminRouter struct {
	adminHandler    *handler.AdminHandler
	adminMiddleware *middleware.Admin
}

func NewAdminRouter(
	adminHandler *handler.AdminHandler,
	adminMiddleware *middleware.Admin,
) *AdminRouter {
	return &AdminRouter{
		adminHandler:    adminHandler,
		adminMiddleware: adminMiddleware,
	}
}

func (ar *AdminRouter) RegisterRoutes(r *gin.Engine) {
	admin := r.Group("/admin/v1")
	admin.Use(ar.adminMiddleware.Handler())

	apps := admin.Group("/apps")
	{
		apps.PUT("", ar.adminHandler.UpsertApp)
		apps.PUT("/:appName/default-credentials", ar.adminHandler.SetAppDefaultCredentials)
	}

	plans := admin.Group("/plans")
	{
		plans.GET("", ar.adminHandler.ListPlans)
		plans.PUT("", ar.adminHandler.UpsertPlan)
	}

	orgs := admin.Group("/orgs/:orgID")
	{
		orgs.GET("/plan", ar.adminHandler.GetActivePlan)
		orgs.PUT("/subscription", ar.adminHandler.SetSubscription)
		orgs.GET("/projects", ar.adminHandler.ListProjects)
		orgs.GET("/quota", ar.adminHandler.OrgQuota)
		orgs.POST("/quota/reset", ar.adminHandler.ResetOrgQuota)
	}

	projects := admin.Group("/projects")
	{
		projects.POST("", ar.adminHandler.CreateProject)
		projects.GET("/:projectID", ar.adminHandler.GetProject)
		projects.GET("/:projectID/api-keys", ar.adminHandler.ListAPIKeys)
		projects.POST("/:projectID/api-keys", ar.adminHandler.CreateAPIKey)
		projects.PATCH("/:projectID/api-keys/:apiKeyID/status", ar.adminHandler.UpdateAPIKeyStatus)
		projects.GET("/:projectID/quota", ar.adminHandler.ProjectQuota)
		projects.POST("/:projectID/quota/reset", ar.adminHandler.ResetProjectQuota)
	}
}
