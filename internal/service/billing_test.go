package service

import (
	"context"
	"testing"
	"time"

	"toolhub/config"
	"toolhub/internal/core"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBilling(plans *memoryPlanStore, subscriptions *memorySubscriptionStore, now time.Time) *BillingService {
	billing := NewBillingService(&telemetry.Trace{}, plans, subscriptions, &config.Configuration{})
	billing.now = func() time.Time { return now }
	return billing
}

func freePlan(monthly int64) *model.Plan {
	return &model.Plan{Name: config.DefaultFreePlanName, Features: model.PlanFeatures{APICallsMonthly: monthly, LinkedAccounts: 3, Projects: 1}}
}

func TestGetActivePlanFallsBackToFreePlan(t *testing.T) {
	now := time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC)
	billing := newTestBilling(newMemoryPlanStore(freePlan(1000)), newMemorySubscriptionStore(), now)

	active, err := billing.GetActivePlan(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFreePlanName, active.Plan.Name)
	assert.Nil(t, active.Subscription)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), active.CurrentPeriodStart)

	features, err := billing.GetActivePlanFeatures(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), features.APICallsMonthly)
}

func TestGetActivePlanUsesSubscription(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	plans := newMemoryPlanStore(freePlan(1000), &model.Plan{Name: "pro", Features: model.PlanFeatures{APICallsMonthly: 50000}})
	billing := newTestBilling(plans, newMemorySubscriptionStore(), now)

	periodStart := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	_, err := billing.SetSubscription(context.Background(), "org-1", &dto.SetSubscriptionDto{
		PlanName:           "pro",
		Status:             core.SubscriptionActive,
		Interval:           core.IntervalMonth,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodStart.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	active, err := billing.GetActivePlan(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, "pro", active.Plan.Name)
	assert.Equal(t, periodStart, active.CurrentPeriodStart)
	assert.Equal(t, "active", ActivePlanToDto("org-1", active).Status)
}

func TestCanceledSubscriptionFallsBackToFree(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	plans := newMemoryPlanStore(freePlan(1000), &model.Plan{Name: "pro", Features: model.PlanFeatures{APICallsMonthly: 50000}})
	billing := newTestBilling(plans, newMemorySubscriptionStore(), now)

	_, err := billing.SetSubscription(context.Background(), "org-1", &dto.SetSubscriptionDto{
		PlanName:           "pro",
		Status:             core.SubscriptionCanceled,
		Interval:           core.IntervalMonth,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	active, err := billing.GetActivePlan(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFreePlanName, active.Plan.Name)
	assert.Equal(t, "free", ActivePlanToDto("org-1", active).Status)
}

func TestGetActivePlanErrors(t *testing.T) {
	now := time.Now()

	billing := newTestBilling(newMemoryPlanStore(), newMemorySubscriptionStore(), now)
	_, err := billing.GetActivePlan(context.Background(), "org-1")
	assert.True(t, cErr.HasCode(err, cErr.NO_IMPLEMENTATION_FOUND))

	subscriptions := newMemorySubscriptionStore()
	subscriptions.err = errStoreDown
	billing = newTestBilling(newMemoryPlanStore(freePlan(10)), subscriptions, now)
	_, err = billing.GetActivePlan(context.Background(), "org-1")
	assert.True(t, cErr.HasCode(err, cErr.DATABASE_ERROR))
}

func TestSetSubscriptionUnknownPlan(t *testing.T) {
	billing := newTestBilling(newMemoryPlanStore(freePlan(10)), newMemorySubscriptionStore(), time.Now())
	_, err := billing.SetSubscription(context.Background(), "org-1", &dto.SetSubscriptionDto{PlanName: "enterprise"})
	assert.True(t, cErr.HasCode(err, cErr.NOT_FOUND))
}

func TestUpsertPlanKeepsIdentity(t *testing.T) {
	plans := newMemoryPlanStore()
	billing := newTestBilling(plans, newMemorySubscriptionStore(), time.Now())

	first, err := billing.UpsertPlan(context.Background(), &dto.UpsertPlanDto{Name: "team", Features: dto.PlanFeaturesDto{APICallsMonthly: 100}})
	require.NoError(t, err)
	second, err := billing.UpsertPlan(context.Background(), &dto.UpsertPlanDto{Name: "team", Features: dto.PlanFeaturesDto{APICallsMonthly: 200}})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(200), second.Features.APICallsMonthly)
	listed, err := billing.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
