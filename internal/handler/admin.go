package handler

import (
	"toolhub/internal/dto"
	"toolhub/internal/pkg/response"
	"toolhub/internal/service"
	"toolhub/internal/telemetry"
	"toolhub/utils/validate"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理後台：app 目錄、方案與訂閱、專案與 API key、額度
type AdminHandler struct {
	trace    *telemetry.Trace
	apps     *service.AppService
	billing  *service.BillingService
	projects *service.ProjectService
	apiKeys  *service.APIKeyService
	quota    *service.QuotaService
}

func NewAdminHandler(
	trace *telemetry.Trace,
	apps *service.AppService,
	billing *service.BillingService,
	projects *service.ProjectService,
	apiKeys *service.APIKeyService,
	quota *service.QuotaService,
) *AdminHandler {
	return &AdminHandler{trace: trace, apps: apps, billing: billing, projects: projects, apiKeys: apiKeys, quota: quota}
}

// UpsertApp 新增或更新 app 與其 functions
// @Summary 新增或更新 app
// @Tags Admin-App
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.UpsertAppDto true "app 定義"
// @Success 200 {object} dto.AppResponseDto
// @Failure 400 {object} response.Response
// @Router /admin/v1/apps [put]
func (h *AdminHandler) UpsertApp(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	var req dto.UpsertAppDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	app, err := h.apps.Upsert(ctx, &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, app)
}

// SetAppDefaultCredentials 設定 app 預設憑證
// @Summary 設定 app 預設憑證
// @Tags Admin-App
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param appName path string true "App 名稱"
// @Param body body dto.SetAppDefaultCredentialsDto true "scheme 與憑證"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/v1/apps/{appName}/default-credentials [put]
func (h *AdminHandler) SetAppDefaultCredentials(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	var req dto.SetAppDefaultCredentialsDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	err := h.apps.SetDefaultCredentials(ctx, c.Param("appName"), &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "default credentials updated"})
}

// UpsertPlan
// @Summary 新增或更新方案
// @Tags Admin-Billing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.UpsertPlanDto true "方案"
// @Success 200 {object} model.Plan
// @Failure 400 {object} response.Response
// @Router /admin/v1/plans [put]
func (h *AdminHandler) UpsertPlan(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	var req dto.UpsertPlanDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	plan, err := h.billing.UpsertPlan(ctx, &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, plan)
}

// ListPlans
// @Summary 方案列表
// @Tags Admin-Billing
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.Plan
// @Router /admin/v1/plans [get]
func (h *AdminHandler) ListPlans(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	plans, err := h.billing.ListPlans(ctx)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, plans)
}

// SetSubscription 寫入 org 訂閱
// @Summary 設定 org 訂閱
// @Tags Admin-Billing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param orgID path string true "Org ID"
// @Param body body dto.SetSubscriptionDto true "訂閱"
// @Success 200 {object} model.Subscription
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/v1/orgs/{orgID}/subscription [put]
func (h *AdminHandler) SetSubscription(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	var req dto.SetSubscriptionDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	subscription, err := h.billing.SetSubscription(ctx, c.Param("orgID"), &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, subscription)
}

// GetActivePlan
// @Summary 取得 org 目前方案
// @Tags Admin-Billing
// @Security BearerAuth
// @Produce json
// @Param orgID path string true "Org ID"
// @Success 200 {object} dto.ActivePlanResponseDto
// @Router /admin/v1/orgs/{orgID}/plan [get]
func (h *AdminHandler) GetActivePlan(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	orgID := c.Param("orgID")
	active, err := h.billing.GetActivePlan(ctx, orgID)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, service.ActivePlanToDto(orgID, active))
}
