package model

import (
	"time"

	"toolhub/internal/core"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type APIKey struct {
	ID         primitive.ObjectID `json:"id" bson:"_id"`                              // API Key 唯一識別碼
	ProjectID  primitive.ObjectID `json:"projectID" bson:"projectID"`                 // 所屬專案
	KeyName    string             `json:"keyName,omitempty" bson:"keyName,omitempty"` // API Key 名稱
	KeyValue   string             `json:"-" bson:"keyValue"`                          // 簽章後的 key，只在建立時回傳
	Status     core.Status        `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
	LastUsedAt *time.Time         `json:"lastUsedAt,omitempty" bson:"lastUsedAt,omitempty"`
}
