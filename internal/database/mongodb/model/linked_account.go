package model

import (
	"time"

	"toolhub/internal/security"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LinkedAccount 專案內某個使用者對 app 的授權
type LinkedAccount struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProjectID            primitive.ObjectID `json:"projectID" bson:"projectID"`
	AppName              string             `json:"appName" bson:"appName"`
	LinkedAccountOwnerID string             `json:"linkedAccountOwnerID" bson:"linkedAccountOwnerID"`
	SecurityScheme       security.Scheme    `json:"securityScheme" bson:"securityScheme"`
	// 空值代表使用 app 預設憑證
	SecurityCredentials bson.Raw   `json:"-" bson:"securityCredentials,omitempty"`
	Enabled             bool       `json:"enabled" bson:"enabled"`
	CreatedAt           time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt" bson:"updatedAt"`
	LastUsedAt          *time.Time `json:"lastUsedAt,omitempty" bson:"lastUsedAt,omitempty"`
}

// Credentials 依 securityScheme 解碼；未設定回傳 nil
func (account *LinkedAccount) Credentials() (security.Credentials, error) {
	return security.Decode(account.SecurityScheme, account.SecurityCredentials)
}
