package model

// QuotaUsageLog 排程回報的 org 月用量
type QuotaUsageLog struct {
	OrgID        string `json:"org_id"`
	PlanName     string `json:"plan_name"`
	MonthlyUsed  int64  `json:"monthly_used"`
	MonthlyLimit int64  `json:"monthly_limit"`
	Projects     int    `json:"projects"`
	Version      string `json:"version"`
	LoggedAt     string `json:"logged_at"`
}
