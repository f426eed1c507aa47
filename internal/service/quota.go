package service

import (
	"context"
	"time"

	"toolhub/config"
	"toolhub/internal/core"
	fluentdModel "toolhub/internal/database/fluentd/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/quota"
	"toolhub/internal/telemetry"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// QuotaService 額度閘門與用量查詢。計數只經由 ledger 的原子操作修改。
type QuotaService struct {
	trace    *telemetry.Trace
	metric   *telemetry.Metric
	logger   *zap.Logger
	ledger   quota.Ledger
	billing  *BillingService
	projects ProjectStore
	usageLog UsageLogger
	config   *config.Configuration
	now      func() time.Time
}

func NewQuotaService(
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	logger *zap.Logger,
	ledger quota.Ledger,
	billing *BillingService,
	projects ProjectStore,
	usageLog UsageLogger,
	config *config.Configuration,
) *QuotaService {
	return &QuotaService{
		trace:    trace,
		metric:   metric,
		logger:   logger,
		ledger:   ledger,
		billing:  billing,
		projects: projects,
		usageLog: usageLog,
		config:   config,
		now:      time.Now,
	}
}

// Enforce 依序檢查專案每日額度與 org 每月額度，兩者都通過才計入每日用量。
// 月額度不足時不修改任何計數；通過後即使後續呼叫失敗也不退還。
func (s *QuotaService) Enforce(ctx context.Context, project quota.ProjectRef) (returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	now := s.now().UTC()
	traceMetadata := core.TraceQuotaMeta{
		ProjectID:  project.ID,
		OrgID:      project.OrgID,
		Op:         "enforce",
		DailyLimit: s.config.Quota.DailyLimit(),
	}
	defer func() { s.trace.ApplyTraceAttributes(span, traceMetadata) }()

	usage, err := s.ledger.Usage(ctx, project)
	if err != nil {
		return cErr.DatabaseError("quota ledger read failed")
	}
	traceMetadata.DailyUsed = usage.DailyUsed
	if !usage.DailyResetDue(now) && usage.DailyUsed >= traceMetadata.DailyLimit {
		traceMetadata.Result = "daily_exceeded"
		s.countExceeded("daily")
		return cErr.DailyQuotaExceeded("daily quota exceeded for project " + project.ID)
	}

	if usage.MonthlyResetDue(now) {
		traceMetadata.MonthlyReset = true
		if _, err := s.ledger.ResetMonthlyForOrg(ctx, project.OrgID, quota.FirstOfMonth(now)); err != nil {
			return cErr.DatabaseError("quota ledger monthly reset failed")
		}
	}

	features, err := s.billing.GetActivePlanFeatures(ctx, project.OrgID)
	if err != nil {
		return err
	}
	traceMetadata.MonthlyLimit = features.APICallsMonthly
	allowed, err := s.ledger.IncrementMonthlyIfWithinOrgLimit(ctx, project, features.APICallsMonthly, now)
	if err != nil {
		return cErr.DatabaseError("quota ledger monthly increment failed")
	}
	if !allowed {
		traceMetadata.Result = "monthly_exceeded"
		s.countExceeded("monthly")
		return cErr.MonthlyQuotaExceeded("monthly quota exceeded for org " + project.OrgID)
	}

	if _, err := s.ledger.IncrementDaily(ctx, project, now); err != nil {
		return cErr.DatabaseError("quota ledger daily increment failed")
	}
	traceMetadata.Allowed = true
	traceMetadata.Result = "allowed"
	return nil
}

func (s *QuotaService) ProjectUsage(ctx context.Context, projectID primitive.ObjectID) (*dto.ProjectQuotaUsageDto, error) {
	ref, err := s.projectRef(ctx, projectID)
	if err != nil {
		return nil, err
	}
	usage, err := s.ledger.Usage(ctx, ref)
	if err != nil {
		return nil, cErr.DatabaseError("quota ledger read failed")
	}
	return &dto.ProjectQuotaUsageDto{
		ProjectID:        ref.ID,
		OrgID:            ref.OrgID,
		DailyUsed:        usage.DailyUsed,
		DailyLimit:       s.config.Quota.DailyLimit(),
		DailyResetAt:     timeOrNil(usage.DailyResetAt),
		MonthlyUsed:      usage.MonthlyUsed,
		MonthlyLastReset: timeOrNil(usage.MonthlyLastReset),
		TotalUsed:        usage.TotalUsed,
	}, nil
}

func (s *QuotaService) OrgUsage(ctx context.Context, orgID string) (_ *dto.OrgQuotaUsageDto, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	active, err := s.billing.GetActivePlan(ctx, orgID)
	if err != nil {
		return nil, err
	}
	usage, err := s.ledger.OrgMonthlyUsage(ctx, orgID)
	if err != nil {
		return nil, cErr.DatabaseError("quota ledger read failed")
	}
	return &dto.OrgQuotaUsageDto{
		OrgID:        orgID,
		PlanName:     active.Plan.Name,
		MonthlyUsed:  usage.MonthlyUsed,
		MonthlyLimit: active.Plan.Features.APICallsMonthly,
		Projects:     usage.Projects,
		PeriodStart:  active.CurrentPeriodStart,
	}, nil
}

// ResetProject 清除單一專案的每日與每月計數，total 保留
func (s *QuotaService) ResetProject(ctx context.Context, projectID primitive.ObjectID) error {
	ref, err := s.projectRef(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.ledger.ResetProject(ctx, ref); err != nil {
		return cErr.DatabaseError("quota ledger reset failed")
	}
	s.logger.Info("project quota reset", zap.String("projectID", ref.ID), zap.String("orgID", ref.OrgID))
	return nil
}

// ResetOrgMonthly 以目前時間為基準重置 org 月用量，回傳受影響的專案數
func (s *QuotaService) ResetOrgMonthly(ctx context.Context, orgID string) (int64, error) {
	affected, err := s.ledger.ResetMonthlyForOrg(ctx, orgID, s.now().UTC())
	if err != nil {
		return 0, cErr.DatabaseError("quota ledger monthly reset failed")
	}
	s.logger.Info("org monthly quota reset", zap.String("orgID", orgID), zap.Int64("projects", affected))
	return affected, nil
}

// ReportUsage 回報所有 org 的月用量到 gauge 與 fluentd，單一 org 失敗不影響其他 org
func (s *QuotaService) ReportUsage(ctx context.Context) (_ []*dto.OrgQuotaUsageDto, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx, string(core.SpanQuotaUsageReportJob))
	defer func() { end(returnedError) }()

	orgs, err := s.ledger.Orgs(ctx)
	if err != nil {
		return nil, cErr.DatabaseError("quota ledger list orgs failed")
	}
	reports := make([]*dto.OrgQuotaUsageDto, 0, len(orgs))
	for _, orgID := range orgs {
		report, err := s.OrgUsage(ctx, orgID)
		if err != nil {
			s.logger.Warn("org usage report skipped", zap.String("orgID", orgID), zap.Error(err))
			continue
		}
		if s.metric.OrgMonthlyUsage != nil {
			s.metric.OrgMonthlyUsage.WithLabelValues(orgID).Set(float64(report.MonthlyUsed))
		}
		if err := s.usageLog.LogQuotaUsage(ctx, fluentdModel.QuotaUsageLog{
			OrgID:        orgID,
			PlanName:     report.PlanName,
			MonthlyUsed:  report.MonthlyUsed,
			MonthlyLimit: report.MonthlyLimit,
			Projects:     report.Projects,
		}); err != nil {
			s.logger.Error("fluentd quota usage log failed", zap.String("orgID", orgID), zap.Error(err))
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *QuotaService) projectRef(ctx context.Context, projectID primitive.ObjectID) (quota.ProjectRef, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return quota.ProjectRef{}, cErr.DatabaseError("mongodb get project failed")
	}
	if project == nil {
		return quota.ProjectRef{}, cErr.NotFound("project not found")
	}
	return quota.ProjectRef{ID: project.ID.Hex(), OrgID: project.OrgID}, nil
}

func (s *QuotaService) countExceeded(kind string) {
	if s.metric.QuotaExceededTotal != nil {
		s.metric.QuotaExceededTotal.WithLabelValues(kind).Inc()
	}
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
