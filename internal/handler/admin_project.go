package handler

import (
	"toolhub/internal/dto"
	"toolhub/internal/pkg/response"
	"toolhub/utils/validate"

	"github.com/gin-gonic/gin"
)

// CreateProject
// @Summary 建立專案
// @Tags Admin-Project
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CreateProjectDto true "專案"
// @Success 201 {object} dto.ProjectResponseDto
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/v1/projects [post]
func (h *AdminHandler) CreateProject(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	var req dto.CreateProjectDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	project, err := h.projects.Create(ctx, &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Create(c, project)
}

// ListProjects 依 org 列出專案
// @Summary 專案列表
// @Tags Admin-Project
// @Security BearerAuth
// @Produce json
// @Param orgID path string true "Org ID"
// @Success 200 {array} dto.ProjectResponseDto
// @Router /admin/v1/orgs/{orgID}/projects [get]
func (h *AdminHandler) ListProjects(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	projects, err := h.projects.ListByOrg(ctx, c.Param("orgID"))
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, projects)
}

// GetProject
// @Summary 取得專案
// @Tags Admin-Project
// @Security BearerAuth
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} dto.ProjectResponseDto
// @Failure 404 {object} response.Response
// @Router /admin/v1/projects/{projectID} [get]
func (h *AdminHandler) GetProject(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	id, cause, respErr := validate.ParseObjectID(c, "projectID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	project, err := h.projects.Get(ctx, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, project)
}

// CreateAPIKey 完整 key 只在這裡回傳一次
// @Summary 建立專案 API key
// @Tags Admin-Project
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param body body dto.CreateAPIKeyDto true "API key"
// @Success 201 {object} dto.APIKeyResponseDto
// @Router /admin/v1/projects/{projectID}/api-keys [post]
func (h *AdminHandler) CreateAPIKey(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	id, cause, respErr := validate.ParseObjectID(c, "projectID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	var req dto.CreateAPIKeyDto
	if cause, respErr = validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	apiKey, err := h.apiKeys.Create(ctx, id, &req)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Create(c, apiKey)
}

// ListAPIKeys
// @Summary 專案 API key 列表
// @Tags Admin-Project
// @Security BearerAuth
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {array} dto.APIKeyResponseDto
// @Router /admin/v1/projects/{projectID}/api-keys [get]
func (h *AdminHandler) ListAPIKeys(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	id, cause, respErr := validate.ParseObjectID(c, "projectID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	apiKeys, err := h.apiKeys.List(ctx, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, apiKeys)
}

// UpdateAPIKeyStatus
// @Summary 停用或撤銷 API key
// @Tags Admin-Project
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param apiKeyID path string true "API key ID"
// @Param body body dto.UpdateAPIKeyStatusDto true "狀態"
// @Success 200 {object} map[string]string
// @Router /admin/v1/projects/{projectID}/api-keys/{apiKeyID}/status [patch]
func (h *AdminHandler) UpdateAPIKeyStatus(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	projectID, cause, respErr := validate.ParseObjectID(c, "projectID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	apiKeyID, cause, respErr := validate.ParseObjectID(c, "apiKeyID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	var req dto.UpdateAPIKeyStatusDto
	if cause, respErr = validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	err := h.apiKeys.UpdateStatus(ctx, projectID, apiKeyID, req.Status)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "api key status updated"})
}

// ProjectQuota
// @Summary 專案額度用量
// @Tags Admin-Quota
// @Security BearerAuth
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} dto.ProjectQuotaUsageDto
// @Router /admin/v1/projects/{projectID}/quota [get]
func (h *AdminHandler) ProjectQuota(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	id, cause, respErr := validate.ParseObjectID(c, "projectID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	usage, err := h.quota.ProjectUsage(ctx, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, usage)
}

// ResetProjectQuota 清除每日與每月計數
// @Summary 重置專案額度
// @Tags Admin-Quota
// @Security BearerAuth
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} map[string]string
// @Router /admin/v1/projects/{projectID}/quota/reset [post]
func (h *AdminHandler) ResetProjectQuota(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	id, cause, respErr := validate.ParseObjectID(c, "projectID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	err := h.quota.ResetProject(ctx, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "project quota reset"})
}

// OrgQuota
// @Summary org 月額度用量
// @Tags Admin-Quota
// @Security BearerAuth
// @Produce json
// @Param orgID path string true "Org ID"
// @Success 200 {object} dto.OrgQuotaUsageDto
// @Router /admin/v1/orgs/{orgID}/quota [get]
func (h *AdminHandler) OrgQuota(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	usage, err := h.quota.OrgUsage(ctx, c.Param("orgID"))
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, usage)
}

// ResetOrgQuota 重置 org 所有專案的月用量
// @Summary 重置 org 月額度
// @Tags Admin-Quota
// @Security BearerAuth
// @Produce json
// @Param orgID path string true "Org ID"
// @Success 200 {object} map[string]int64
// @Router /admin/v1/orgs/{orgID}/quota/reset [post]
func (h *AdminHandler) ResetOrgQuota(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	affected, err := h.quota.ResetOrgMonthly(ctx, c.Param("orgID"))
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"projects": affected})
}
