package service

import (
	"context"
	"time"

	"toolhub/config"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/quota"
	"toolhub/internal/telemetry"
)

// ActivePlan org 目前適用的方案
type ActivePlan struct {
	Plan *model.Plan
	// nil 代表沒有訂閱，使用 free 方案
	Subscription       *model.Subscription
	CurrentPeriodStart time.Time
}

type BillingService struct {
	trace         *telemetry.Trace
	plans         PlanStore
	subscriptions SubscriptionStore
	config        *config.Configuration
	now           func() time.Time
}

func NewBillingService(trace *telemetry.Trace, plans PlanStore, subscriptions SubscriptionStore, config *config.Configuration) *BillingService {
	return &BillingService{
		trace:         trace,
		plans:         plans,
		subscriptions: subscriptions,
		config:        config,
		now:           time.Now,
	}
}

// GetActivePlan 有效訂閱優先，否則回傳 free 方案；free 方案的週期從當月一日起算
func (s *BillingService) GetActivePlan(ctx context.Context, orgID string) (_ *ActivePlan, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	subscription, err := s.subscriptions.GetActiveByOrg(ctx, orgID)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get subscription failed")
	}
	if subscription == nil {
		freePlanName := s.config.Quota.FreePlan()
		plan, err := s.plans.GetByName(ctx, freePlanName)
		if err != nil {
			return nil, cErr.DatabaseError("mongodb get plan failed")
		}
		if plan == nil {
			return nil, cErr.NoImplementationFound("plan " + freePlanName + " is not configured")
		}
		return &ActivePlan{Plan: plan, CurrentPeriodStart: quota.FirstOfMonth(s.now())}, nil
	}

	plan, err := s.plans.GetByID(ctx, subscription.PlanID)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get plan failed")
	}
	if plan == nil {
		return nil, cErr.InternalServer("subscription of org " + orgID + " references a missing plan")
	}
	return &ActivePlan{Plan: plan, Subscription: subscription, CurrentPeriodStart: subscription.CurrentPeriodStart}, nil
}

func (s *BillingService) GetActivePlanFeatures(ctx context.Context, orgID string) (model.PlanFeatures, error) {
	active, err := s.GetActivePlan(ctx, orgID)
	if err != nil {
		return model.PlanFeatures{}, err
	}
	return active.Plan.Features, nil
}

func (s *BillingService) UpsertPlan(ctx context.Context, req *dto.UpsertPlanDto) (_ *model.Plan, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	plan, err := s.plans.Upsert(ctx, &model.Plan{
		Name: req.Name,
		Features: model.PlanFeatures{
			APICallsMonthly:  req.Features.APICallsMonthly,
			LinkedAccounts:   req.Features.LinkedAccounts,
			AgentCredentials: req.Features.AgentCredentials,
			DeveloperSeats:   req.Features.DeveloperSeats,
			Projects:         req.Features.Projects,
		},
		IsPublic: req.IsPublic,
	})
	if err != nil {
		return nil, cErr.DatabaseError("mongodb upsert plan failed")
	}
	return plan, nil
}

func (s *BillingService) ListPlans(ctx context.Context) ([]*model.Plan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb list plans failed")
	}
	return plans, nil
}

// SetSubscription 管理端直接寫入 org 訂閱（取代外部金流 webhook）
func (s *BillingService) SetSubscription(ctx context.Context, orgID string, req *dto.SetSubscriptionDto) (_ *model.Subscription, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	plan, err := s.plans.GetByName(ctx, req.PlanName)
	if err != nil {
		return nil, cErr.DatabaseError("mongodb get plan failed")
	}
	if plan == nil {
		return nil, cErr.NotFound("plan " + req.PlanName + " not found")
	}
	subscription, err := s.subscriptions.Upsert(ctx, &model.Subscription{
		OrgID:              orgID,
		PlanID:             plan.ID,
		Status:             req.Status,
		Interval:           req.Interval,
		CurrentPeriodStart: req.CurrentPeriodStart,
		CurrentPeriodEnd:   req.CurrentPeriodEnd,
		CancelAtPeriodEnd:  req.CancelAtPeriodEnd,
	})
	if err != nil {
		return nil, cErr.DatabaseError("mongodb upsert subscription failed")
	}
	return subscription, nil
}

func ActivePlanToDto(orgID string, active *ActivePlan) *dto.ActivePlanResponseDto {
	status := "free"
	if active.Subscription != nil {
		status = string(active.Subscription.Status)
	}
	features := active.Plan.Features
	return &dto.ActivePlanResponseDto{
		OrgID:    orgID,
		PlanName: active.Plan.Name,
		Features: dto.PlanFeaturesDto{
			APICallsMonthly:  features.APICallsMonthly,
			LinkedAccounts:   features.LinkedAccounts,
			AgentCredentials: features.AgentCredentials,
			DeveloperSeats:   features.DeveloperSeats,
			Projects:         features.Projects,
		},
		Status:             status,
		CurrentPeriodStart: active.CurrentPeriodStart,
	}
}
