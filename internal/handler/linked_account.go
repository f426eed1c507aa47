package handler

import (
	"net/http"

	"toolhub/internal/dto"
	"toolhub/internal/middleware"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/pkg/response"
	"toolhub/internal/service"
	"toolhub/internal/telemetry"
	"toolhub/utils/validate"

	"github.com/gin-gonic/gin"
)

type LinkedAccountHandler struct {
	trace    *telemetry.Trace
	accounts *service.LinkedAccountService
}

func NewLinkedAccountHandler(trace *telemetry.Trace, accounts *service.LinkedAccountService) *LinkedAccountHandler {
	return &LinkedAccountHandler{trace: trace, accounts: accounts}
}

// Link api_key 或 no_auth 連結
// @Summary 建立 linked account
// @Tags LinkedAccount
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body dto.LinkAccountDto true "連結資訊"
// @Success 201 {object} dto.LinkedAccountResponseDto
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /v1/linked-accounts [post]
func (h *LinkedAccountHandler) Link(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	project, ok := middleware.ProjectFrom(c)
	if !ok {
		end(nil)
		response.AbortWithError(c, cErr.UnauthorizedApiKey("missing project context"))
		return
	}
	var req dto.LinkAccountDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	account, err := h.accounts.LinkAccount(ctx, project, &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Create(c, account)
}

// OAuth2Start 回傳 provider 授權網址
// @Summary 開始 OAuth2 連結
// @Tags LinkedAccount
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body dto.OAuth2LinkStartDto true "連結資訊"
// @Success 200 {object} dto.OAuth2LinkStartResponseDto
// @Router /v1/linked-accounts/oauth2 [post]
func (h *LinkedAccountHandler) OAuth2Start(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	project, ok := middleware.ProjectFrom(c)
	if !ok {
		end(nil)
		response.AbortWithError(c, cErr.UnauthorizedApiKey("missing project context"))
		return
	}
	var req dto.OAuth2LinkStartDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	res, err := h.accounts.OAuth2Start(ctx, project, &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, res)
}

// OAuth2Callback provider 導回；有指定導向網址時改為 302
// @Summary OAuth2 callback
// @Tags LinkedAccount
// @Produce json
// @Param code query string false "authorization code"
// @Param state query string true "state"
// @Param error query string false "provider error"
// @Success 200 {object} dto.LinkedAccountResponseDto
// @Success 302
// @Failure 400 {object} response.Response
// @Router /v1/linked-accounts/oauth2/callback [get]
func (h *LinkedAccountHandler) OAuth2Callback(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	var req dto.OAuth2CallbackDto
	if cause, respErr := validate.BindQueryAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	account, afterURL, err := h.accounts.OAuth2Callback(ctx, &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	if afterURL != "" {
		c.Redirect(http.StatusFound, afterURL)
		c.Abort()
		return
	}
	response.Success(c, account)
}

// List
// @Summary linked account 列表
// @Tags LinkedAccount
// @Security ApiKeyAuth
// @Produce json
// @Param appName query string false "App 名稱"
// @Param linkedAccountOwnerId query string false "擁有者"
// @Success 200 {array} dto.LinkedAccountResponseDto
// @Router /v1/linked-accounts [get]
func (h *LinkedAccountHandler) List(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	project, ok := middleware.ProjectFrom(c)
	if !ok {
		end(nil)
		response.AbortWithError(c, cErr.UnauthorizedApiKey("missing project context"))
		return
	}
	var req dto.ListLinkedAccountsDto
	if cause, respErr := validate.BindQueryAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	accounts, err := h.accounts.List(ctx, project, &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, accounts)
}

// Get
// @Summary 取得 linked account
// @Tags LinkedAccount
// @Security ApiKeyAuth
// @Produce json
// @Param accountID path string true "Linked account ID"
// @Success 200 {object} dto.LinkedAccountResponseDto
// @Failure 404 {object} response.Response
// @Router /v1/linked-accounts/{accountID} [get]
func (h *LinkedAccountHandler) Get(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	project, ok := middleware.ProjectFrom(c)
	if !ok {
		end(nil)
		response.AbortWithError(c, cErr.UnauthorizedApiKey("missing project context"))
		return
	}
	id, cause, respErr := validate.ParseObjectID(c, "accountID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	account, err := h.accounts.Get(ctx, project, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, account)
}

// Update 啟用或停用
// @Summary 更新 linked account
// @Tags LinkedAccount
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param accountID path string true "Linked account ID"
// @Param body body dto.UpdateLinkedAccountDto true "啟用狀態"
// @Success 200 {object} dto.LinkedAccountResponseDto
// @Router /v1/linked-accounts/{accountID} [patch]
func (h *LinkedAccountHandler) Update(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	project, ok := middleware.ProjectFrom(c)
	if !ok {
		end(nil)
		response.AbortWithError(c, cErr.UnauthorizedApiKey("missing project context"))
		return
	}
	id, cause, respErr := validate.ParseObjectID(c, "accountID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	var req dto.UpdateLinkedAccountDto
	if cause, respErr = validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	account, err := h.accounts.SetEnabled(ctx, project, id, *req.Enabled)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, account)
}

// Delete
// @Summary 刪除 linked account
// @Tags LinkedAccount
// @Security ApiKeyAuth
// @Produce json
// @Param accountID path string true "Linked account ID"
// @Success 200 {object} map[string]string
// @Router /v1/linked-accounts/{accountID} [delete]
func (h *LinkedAccountHandler) Delete(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	project, ok := middleware.ProjectFrom(c)
	if !ok {
		end(nil)
		response.AbortWithError(c, cErr.UnauthorizedApiKey("missing project context"))
		return
	}
	id, cause, respErr := validate.ParseObjectID(c, "accountID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	err := h.accounts.Delete(ctx, project, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "linked account deleted"})
}
