package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const ProtocolREST = "rest"

type Function struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"` // APP_NAME__ACTION
	AppName      string             `json:"appName" bson:"appName"`
	Description  string             `json:"description" bson:"description"`
	Tags         []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	Protocol     string             `json:"protocol" bson:"protocol"`
	ProtocolData RESTProtocolData   `json:"protocolData" bson:"protocolData"`
	// 參數 schema 原樣保存，不做驗證
	Parameters map[string]any `json:"parameters,omitempty" bson:"parameters,omitempty"`
	Active     bool           `json:"active" bson:"active"`
	CreatedAt  time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt" bson:"updatedAt"`
}

type RESTProtocolData struct {
	Method    string `json:"method" bson:"method"`
	Path      string `json:"path" bson:"path"` // 可含 {param}
	ServerURL string `json:"serverURL" bson:"serverURL"`
}
