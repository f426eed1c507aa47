package model

import (
	"time"

	"toolhub/internal/security"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type App struct {
	ID              primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Name            string                 `json:"name" bson:"name"` // 全域唯一，大寫底線
	DisplayName     string                 `json:"displayName" bson:"displayName"`
	Description     string                 `json:"description" bson:"description"`
	Categories      []string               `json:"categories" bson:"categories"`
	SecuritySchemes security.SchemeConfigs `json:"securitySchemes" bson:"securitySchemes"` // 各 scheme 的設定
	// key 為 scheme，value 依 scheme 解碼成對應的 Credentials
	DefaultSecurityCredentials map[string]bson.Raw `json:"-" bson:"defaultSecurityCredentialsByScheme,omitempty"`
	Active                     bool                `json:"active" bson:"active"`
	CreatedAt                  time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt                  time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// DefaultCredentials 取出 app 對指定 scheme 的預設憑證；未設定回傳 nil
func (app *App) DefaultCredentials(scheme security.Scheme) (security.Credentials, error) {
	if app.DefaultSecurityCredentials == nil {
		return nil, nil
	}
	return security.Decode(scheme, app.DefaultSecurityCredentials[string(scheme)])
}
