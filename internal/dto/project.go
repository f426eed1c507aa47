package dto

import "time"

type CreateProjectDto struct {
	OrgID string `json:"orgId" binding:"required"`
	Name  string `json:"name" binding:"required,max=128"`
}

type ProjectResponseDto struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// 專案額度用量
type ProjectQuotaUsageDto struct {
	ProjectID        string     `json:"projectId"`
	OrgID            string     `json:"orgId"`
	DailyUsed        int64      `json:"dailyUsed"`
	DailyLimit       int64      `json:"dailyLimit"`
	DailyResetAt     *time.Time `json:"dailyResetAt,omitempty"`
	MonthlyUsed      int64      `json:"monthlyUsed"`
	MonthlyLastReset *time.Time `json:"monthlyLastReset,omitempty"`
	TotalUsed        int64      `json:"totalUsed"`
}

// org 月額度用量
type OrgQuotaUsageDto struct {
	OrgID        string    `json:"orgId"`
	PlanName     string    `json:"planName"`
	MonthlyUsed  int64     `json:"monthlyUsed"`
	MonthlyLimit int64     `json:"monthlyLimit"`
	Projects     int       `json:"projects"`
	PeriodStart  time.Time `json:"periodStart"`
}
