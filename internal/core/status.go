package core

type Role string

const (
	RoleAdmin    Role = "admin"    // 管理員：可管理 app、方案、專案
	RoleReadOnly Role = "readonly" // 只能查詢
)

type Status string

const (
	StatusActive   Status = "active"   // 正常可用
	StatusRevoked  Status = "revoked"  // 被手動撤銷
	StatusDisabled Status = "disabled" // 停用
)

// 訂閱狀態
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type SubscriptionInterval string

const (
	IntervalMonth SubscriptionInterval = "month"
	IntervalYear  SubscriptionInterval = "year"
)

// gin context keys
const (
	ContextProjectKey  = "project"
	ContextAPIKeyIDKey = "apiKeyID"
	ContextAdminKey    = "adminClaims"
)
