package dto

import (
	"encoding/json"

	"toolhub/internal/pkg/request"
	"toolhub/internal/security"
)

// 管理端一次寫入 app 與其 functions
type UpsertAppDto struct {
	Name            string                 `json:"name" binding:"required,uppercase"`
	DisplayName     string                 `json:"displayName" binding:"required"`
	Description     string                 `json:"description"`
	Categories      []string               `json:"categories"`
	SecuritySchemes security.SchemeConfigs `json:"securitySchemes"`
	Active          *bool                  `json:"active"`
	Functions       []UpsertFunctionDto    `json:"functions" binding:"omitempty,dive"`
}

type UpsertFunctionDto struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Method      string         `json:"method" binding:"required,oneof=GET POST PUT PATCH DELETE"`
	Path        string         `json:"path" binding:"required,startswith=/"`
	ServerURL   string         `json:"serverUrl" binding:"required,url"`
	Parameters  map[string]any `json:"parameters"`
	Active      *bool          `json:"active"`
}

// 設定 app 預設憑證，credentials 依 scheme 解析
type SetAppDefaultCredentialsDto struct {
	SecurityScheme security.Scheme `json:"securityScheme" binding:"required,oneof=api_key oauth2 no_auth"`
	Credentials    json.RawMessage `json:"credentials" binding:"required"`
}

type AppResponseDto struct {
	Name            string                `json:"name"`
	DisplayName     string                `json:"displayName"`
	Description     string                `json:"description"`
	Categories      []string              `json:"categories"`
	SecuritySchemes []security.Scheme     `json:"securitySchemes"`
	Active          bool                  `json:"active"`
	Functions       []FunctionResponseDto `json:"functions,omitempty"`
}

type FunctionResponseDto struct {
	Name        string         `json:"name"`
	AppName     string         `json:"appName"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Active      bool           `json:"active"`
}

func (d *UpsertAppDto) GetMessages() request.ValidatorMessages {
	return request.ValidatorMessages{
		"Name.required":        "name is required",
		"Name.uppercase":       "name must be upper case",
		"DisplayName.required": "displayName is required",
	}
}
