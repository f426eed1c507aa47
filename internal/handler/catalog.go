package handler

import (
	"toolhub/internal/dto"
	"toolhub/internal/middleware"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/pkg/response"
	"toolhub/internal/service"
	"toolhub/internal/telemetry"
	"toolhub/utils/validate"

	"github.com/gin-gonic/gin"
)

// CatalogHandler 給 agent 使用的 app 與 function 查詢及執行
type CatalogHandler struct {
	trace     *telemetry.Trace
	apps      *service.AppService
	search    *service.SearchService
	functions *service.FunctionService
	quota     *service.QuotaService
}

func NewCatalogHandler(
	trace *telemetry.Trace,
	apps *service.AppService,
	search *service.SearchService,
	functions *service.FunctionService,
	quota *service.QuotaService,
) *CatalogHandler {
	return &CatalogHandler{trace: trace, apps: apps, search: search, functions: functions, quota: quota}
}

// SearchApps
// @Summary 搜尋 app
// @Tags App
// @Security ApiKeyAuth
// @Produce json
// @Param intent query string false "用途關鍵字"
// @Param categories query []string false "分類"
// @Param allowedAppsOnly query bool false "只列出已連結的 app"
// @Param limit query int false "筆數"
// @Param offset query int false "位移"
// @Success 200 {array} dto.AppResponseDto
// @Failure 429 {object} response.Response
// @Router /v1/apps/search [get]
func (h *CatalogHandler) SearchApps(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	project, ok := middleware.ProjectFrom(c)
	if !ok {
		end(nil)
		response.AbortWithError(c, cErr.UnauthorizedApiKey("missing project context"))
		return
	}
	var req dto.SearchAppsDto
	if cause, respErr := validate.BindQueryAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	apps, err := h.search.SearchApps(ctx, project, &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, apps)
}

// GetApp 含啟用中的 functions
// @Summary 取得 app
// @Tags App
// @Security ApiKeyAuth
// @Produce json
// @Param appName path string true "App 名稱"
// @Success 200 {object} dto.AppResponseDto
// @Failure 404 {object} response.Response
// @Router /v1/apps/{appName} [get]
func (h *CatalogHandler) GetApp(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	app, err := h.apps.Get(ctx, c.Param("appName"))
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, app)
}

// SearchFunctions
// @Summary 搜尋 function
// @Tags Function
// @Security ApiKeyAuth
// @Produce json
// @Param intent query string false "用途關鍵字"
// @Param appNames query []string false "限定 app"
// @Param limit query int false "筆數"
// @Param offset query int false "位移"
// @Success 200 {array} dto.FunctionResponseDto
// @Failure 429 {object} response.Response
// @Router /v1/functions/search [get]
func (h *CatalogHandler) SearchFunctions(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	var req dto.SearchFunctionsDto
	if cause, respErr := validate.BindQueryAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	functions, err := h.search.SearchFunctions(ctx, &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, functions)
}

// GetFunction
// @Summary 取得 function 定義
// @Tags Function
// @Security ApiKeyAuth
// @Produce json
// @Param functionName path string true "Function 名稱"
// @Success 200 {object} dto.FunctionResponseDto
// @Failure 404 {object} response.Response
// @Router /v1/functions/{functionName} [get]
func (h *CatalogHandler) GetFunction(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	function, err := h.functions.Get(ctx, c.Param("functionName"))
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, function)
}

// ExecuteFunction 外部 API 的失敗放在結果內，HTTP 仍回 200
// @Summary 執行 function
// @Tags Function
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param functionName path string true "Function 名稱"
// @Param body body dto.ExecuteFunctionDto true "執行參數"
// @Success 200 {object} dto.FunctionExecutionResultDto
// @Failure 404 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /v1/functions/{functionName}/execute [post]
func (h *CatalogHandler) ExecuteFunction(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	project, ok := middleware.ProjectFrom(c)
	if !ok {
		end(nil)
		response.AbortWithError(c, cErr.UnauthorizedApiKey("missing project context"))
		return
	}
	var req dto.ExecuteFunctionDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	result, err := h.functions.Execute(ctx, project, c.Param("functionName"), &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, result)
}

// Quota 呼叫端查詢自己專案的用量
// @Summary 目前專案額度用量
// @Tags Quota
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.ProjectQuotaUsageDto
// @Router /v1/quota [get]
func (h *CatalogHandler) Quota(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	project, ok := middleware.ProjectFrom(c)
	if !ok {
		end(nil)
		response.AbortWithError(c, cErr.UnauthorizedApiKey("missing project context"))
		return
	}
	usage, err := h.quota.ProjectUsage(ctx, project.ID)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, usage)
}
