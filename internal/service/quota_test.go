package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"toolhub/config"
	client "toolhub/internal/database/client"
	"toolhub/internal/database/mongodb/model"
	redisRepo "toolhub/internal/database/redis/repository"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/quota"
	"toolhub/internal/telemetry"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type quotaFixture struct {
	service  *QuotaService
	ledger   quota.Ledger
	projects *memoryProjectStore
	usageLog *recordingUsageLogger
	clock    *testClock
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func newQuotaFixture(t *testing.T, dailyQuota, monthlyQuota int64, now time.Time) *quotaFixture {
	t.Helper()
	server := miniredis.RunT(t)
	conn := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = conn.Close() })
	ledger := redisRepo.NewQuotaLedgerRepository(&telemetry.Trace{}, client.NewRedisClientFromConn(zap.NewNop(), conn))

	conf := &config.Configuration{}
	conf.Quota.ProjectDailyQuota = dailyQuota

	clock := &testClock{now: now}
	billing := NewBillingService(&telemetry.Trace{}, newMemoryPlanStore(freePlan(monthlyQuota)), newMemorySubscriptionStore(), conf)
	billing.now = clock.Now

	projects := newMemoryProjectStore()
	usageLog := &recordingUsageLogger{}
	service := NewQuotaService(&telemetry.Trace{}, &telemetry.Metric{}, zap.NewNop(), ledger, billing, projects, usageLog, conf)
	service.now = clock.Now
	return &quotaFixture{service: service, ledger: ledger, projects: projects, usageLog: usageLog, clock: clock}
}

func (f *quotaFixture) project(t *testing.T, orgID string) quota.ProjectRef {
	t.Helper()
	project, err := f.projects.Create(context.Background(), &model.Project{OrgID: orgID, Name: "p"})
	require.NoError(t, err)
	return quota.ProjectRef{ID: project.ID.Hex(), OrgID: orgID}
}

func TestEnforceFirstCallCountsUsage(t *testing.T) {
	f := newQuotaFixture(t, 1000, 1000, time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	project := f.project(t, "org-1")

	require.NoError(t, f.service.Enforce(context.Background(), project))

	usage, err := f.ledger.Usage(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, int64(1), usage.DailyUsed)
	assert.Equal(t, int64(1), usage.TotalUsed)
	assert.Equal(t, int64(1), usage.MonthlyUsed)

	require.NoError(t, f.service.Enforce(context.Background(), project))
	usage, err = f.ledger.Usage(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, int64(2), usage.MonthlyUsed)
	assert.Equal(t, int64(2), usage.TotalUsed)
}

func TestEnforceMonthlyExceededLeavesCountersUnchanged(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	f := newQuotaFixture(t, 100000, 1000, now)
	first := f.project(t, "org-1")
	second := f.project(t, "org-1")

	for _, project := range []quota.ProjectRef{first, second} {
		_, err := f.ledger.IncrementDaily(ctx, project, now)
		require.NoError(t, err)
		for i := 0; i < 500; i++ {
			allowed, err := f.ledger.IncrementMonthlyIfWithinOrgLimit(ctx, project, 1000, now)
			require.NoError(t, err)
			require.True(t, allowed)
		}
	}
	before, err := f.ledger.Usage(ctx, first)
	require.NoError(t, err)

	err = f.service.Enforce(ctx, first)
	assert.True(t, cErr.HasCode(err, cErr.MONTHLY_QUOTA_EXCEEDED))

	after, err := f.ledger.Usage(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	orgUsage, err := f.ledger.OrgMonthlyUsage(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), orgUsage.MonthlyUsed)

	err = f.service.Enforce(ctx, second)
	assert.True(t, cErr.HasCode(err, cErr.MONTHLY_QUOTA_EXCEEDED))
}

func TestEnforceDailyQuotaWindow(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	f := newQuotaFixture(t, 2, 1000, start)
	project := f.project(t, "org-1")

	require.NoError(t, f.service.Enforce(ctx, project))
	require.NoError(t, f.service.Enforce(ctx, project))
	err := f.service.Enforce(ctx, project)
	require.True(t, cErr.HasCode(err, cErr.DAILY_QUOTA_EXCEEDED))

	// 被拒絕的呼叫不計入月用量
	usage, err := f.ledger.Usage(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, int64(2), usage.MonthlyUsed)

	f.clock.Set(start.Add(quota.DailyWindow))
	require.NoError(t, f.service.Enforce(ctx, project))
	usage, err = f.ledger.Usage(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, int64(1), usage.DailyUsed)
	assert.Equal(t, int64(3), usage.TotalUsed)
}

func TestEnforceResetsMonthlyUsageInNewMonth(t *testing.T) {
	ctx := context.Background()
	f := newQuotaFixture(t, 1000, 3, time.Date(2026, 10, 30, 12, 0, 0, 0, time.UTC))
	project := f.project(t, "org-1")
	other := f.project(t, "org-1")

	for i := 0; i < 2; i++ {
		require.NoError(t, f.service.Enforce(ctx, project))
	}
	require.NoError(t, f.service.Enforce(ctx, other))
	assert.True(t, cErr.HasCode(f.service.Enforce(ctx, other), cErr.MONTHLY_QUOTA_EXCEEDED))

	f.clock.Set(time.Date(2026, 11, 1, 0, 5, 0, 0, time.UTC))
	require.NoError(t, f.service.Enforce(ctx, project))

	orgUsage, err := f.ledger.OrgMonthlyUsage(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), orgUsage.MonthlyUsed)

	usage, err := f.ledger.Usage(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), usage.MonthlyLastReset.UTC())
}

func TestEnforceWithoutFreePlan(t *testing.T) {
	f := newQuotaFixture(t, 1000, 1000, time.Now())
	f.service.billing = NewBillingService(&telemetry.Trace{}, newMemoryPlanStore(), newMemorySubscriptionStore(), &config.Configuration{})

	err := f.service.Enforce(context.Background(), f.project(t, "org-1"))
	assert.True(t, cErr.HasCode(err, cErr.NO_IMPLEMENTATION_FOUND))
}

func TestQuotaUsageReporting(t *testing.T) {
	ctx := context.Background()
	f := newQuotaFixture(t, 1000, 1000, time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	project := f.project(t, "org-1")
	require.NoError(t, f.service.Enforce(ctx, project))
	require.NoError(t, f.service.Enforce(ctx, f.project(t, "org-2")))

	projectID, err := primitive.ObjectIDFromHex(project.ID)
	require.NoError(t, err)
	projectUsage, err := f.service.ProjectUsage(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), projectUsage.DailyUsed)
	assert.Equal(t, int64(1000), projectUsage.DailyLimit)
	require.NotNil(t, projectUsage.DailyResetAt)

	orgUsage, err := f.service.OrgUsage(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), orgUsage.MonthlyUsed)
	assert.Equal(t, int64(1000), orgUsage.MonthlyLimit)
	assert.Equal(t, 1, orgUsage.Projects)

	reports, err := f.service.ReportUsage(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.Len(t, f.usageLog.quotas, 2)

	require.NoError(t, f.service.ResetProject(ctx, projectID))
	projectUsage, err = f.service.ProjectUsage(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), projectUsage.DailyUsed)
	assert.Equal(t, int64(0), projectUsage.MonthlyUsed)
	assert.Equal(t, int64(1), projectUsage.TotalUsed)

	_, err = f.service.ProjectUsage(ctx, primitive.NewObjectID())
	assert.True(t, cErr.HasCode(err, cErr.NOT_FOUND))
}
