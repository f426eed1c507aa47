package dto

import (
	"time"

	"toolhub/internal/core"
)

type PlanFeaturesDto struct {
	APICallsMonthly  int64 `json:"apiCallsMonthly" binding:"gte=0"`
	LinkedAccounts   int64 `json:"linkedAccounts" binding:"gte=0"`
	AgentCredentials int64 `json:"agentCredentials" binding:"gte=0"`
	DeveloperSeats   int64 `json:"developerSeats" binding:"gte=0"`
	Projects         int64 `json:"projects" binding:"gte=0"`
}

type UpsertPlanDto struct {
	Name     string          `json:"name" binding:"required"`
	Features PlanFeaturesDto `json:"features" binding:"required"`
	IsPublic bool            `json:"isPublic"`
}

type SetSubscriptionDto struct {
	PlanName           string                    `json:"planName" binding:"required"`
	Status             core.SubscriptionStatus   `json:"status" binding:"required,oneof=active trialing past_due canceled"`
	Interval           core.SubscriptionInterval `json:"interval" binding:"required,oneof=month year"`
	CurrentPeriodStart time.Time                 `json:"currentPeriodStart" binding:"required"`
	CurrentPeriodEnd   time.Time                 `json:"currentPeriodEnd" binding:"required,gtfield=CurrentPeriodStart"`
	CancelAtPeriodEnd  bool                      `json:"cancelAtPeriodEnd"`
}

type ActivePlanResponseDto struct {
	OrgID              string          `json:"orgId"`
	PlanName           string          `json:"planName"`
	Features           PlanFeaturesDto `json:"features"`
	Status             string          `json:"status"`
	CurrentPeriodStart time.Time       `json:"currentPeriodStart"`
}
