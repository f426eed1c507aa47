package dto

import (
	"encoding/json"
	"time"

	"toolhub/internal/pkg/request"
	"toolhub/internal/security"
)

// api_key 或 no_auth 直接建立連結；credentials 為空時使用 app 預設
type LinkAccountDto struct {
	AppName              string          `json:"appName" binding:"required"`
	LinkedAccountOwnerID string          `json:"linkedAccountOwnerId" binding:"required"`
	SecurityScheme       security.Scheme `json:"securityScheme" binding:"required,oneof=api_key no_auth"`
	Credentials          json.RawMessage `json:"credentials"`
}

// 開始 OAuth2 授權流程
type OAuth2LinkStartDto struct {
	AppName              string `json:"appName" binding:"required"`
	LinkedAccountOwnerID string `json:"linkedAccountOwnerId" binding:"required"`
	AfterOAuth2LinkURL   string `json:"afterOAuth2LinkRedirectUrl" binding:"omitempty,url"`
}

type OAuth2LinkStartResponseDto struct {
	URL string `json:"url"`
}

// provider 導回時帶的參數
type OAuth2CallbackDto struct {
	Code  string `form:"code"`
	State string `form:"state" binding:"required"`
	Error string `form:"error"`
}

type ListLinkedAccountsDto struct {
	AppName              string `form:"appName"`
	LinkedAccountOwnerID string `form:"linkedAccountOwnerId"`
}

type UpdateLinkedAccountDto struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type LinkedAccountResponseDto struct {
	ID                   string          `json:"id"`
	ProjectID            string          `json:"projectId"`
	AppName              string          `json:"appName"`
	LinkedAccountOwnerID string          `json:"linkedAccountOwnerId"`
	SecurityScheme       security.Scheme `json:"securityScheme"`
	UsesAppDefault       bool            `json:"usesAppDefault"`
	Enabled              bool            `json:"enabled"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
	LastUsedAt           *time.Time      `json:"lastUsedAt,omitempty"`
}

func (d *LinkAccountDto) GetMessages() request.ValidatorMessages {
	return request.ValidatorMessages{
		"SecurityScheme.oneof": "securityScheme must be api_key or no_auth; use the oauth2 link flow for oauth2",
	}
}
