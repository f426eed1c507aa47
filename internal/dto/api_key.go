package dto

import (
	"time"

	"toolhub/internal/core"
	"toolhub/internal/pkg/request"
)

// 建立專案 API Key
type CreateAPIKeyDto struct {
	KeyName string `json:"keyName" binding:"required,max=64"`
}

type UpdateAPIKeyStatusDto struct {
	Status core.Status `json:"status" binding:"required,oneof=active revoked disabled"`
}

type APIKeyResponseDto struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	KeyName   string      `json:"keyName"`
	KeyValue  string      `json:"keyValue"` // 只有建立時回傳完整值，其餘遮蔽
	Status    core.Status `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	LastUsed  *time.Time  `json:"lastUsedAt,omitempty"`
}

func (d *CreateAPIKeyDto) GetMessages() request.ValidatorMessages {
	return request.ValidatorMessages{
		"KeyName.required": "keyName is required",
		"KeyName.max":      "keyName must be at most 64 characters",
	}
}
