package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"toolhub/internal/core"
	client "toolhub/internal/database/client"
	"toolhub/internal/quota"
	"toolhub/internal/telemetry"
)

const ledgerBackendPostgres = "postgres"

// QuotaLedgerRepository 以 project_quota_usage 表保存計數，
// 每日計數用單一 upsert 完成，org 月額度以 advisory lock 序列化。
type QuotaLedgerRepository struct {
	trace  *telemetry.Trace
	client *client.PostgresClient
}

func NewQuotaLedgerRepository(trace *telemetry.Trace, client *client.PostgresClient) *QuotaLedgerRepository {
	return &QuotaLedgerRepository{trace: trace, client: client}
}

// Migrate 建立資料表
func (repository *QuotaLedgerRepository) Migrate(contextValue context.Context) error {
	return EnsureSchema(contextValue, repository.client.DB())
}

func (repository *QuotaLedgerRepository) db() (*sql.DB, error) {
	db := repository.client.DB()
	if db == nil {
		return nil, errPostgresNotConfigured
	}
	return db, nil
}

func (repository *QuotaLedgerRepository) Usage(contextValue context.Context, project quota.ProjectRef) (_ quota.Usage, returnedError error) {
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()
	repository.trace.ApplyTraceAttributes(span, core.TraceLedgerMeta{
		Backend: ledgerBackendPostgres, Op: "usage", ProjectID: project.ID, OrgID: project.OrgID,
	})

	db, err := repository.db()
	if err != nil {
		return quota.Usage{}, err
	}
	row := db.QueryRowContext(contextValue, `
		select daily_quota_used, daily_quota_reset_at, api_quota_monthly_used, api_quota_last_reset, total_quota_used
		from project_quota_usage where project_id = $1`, project.ID)
	usage, err := scanUsage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return quota.Usage{}, nil
	}
	return usage, err
}

func (repository *QuotaLedgerRepository) IncrementDaily(contextValue context.Context, project quota.ProjectRef, now time.Time) (_ quota.Usage, returnedError error) {
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	db, err := repository.db()
	if err != nil {
		return quota.Usage{}, err
	}
	// 視窗過期（或從未開始）時從 1 重新計算
	row := db.QueryRowContext(contextValue, `
		insert into project_quota_usage as u
			(project_id, org_id, daily_quota_used, daily_quota_reset_at, api_quota_monthly_used, api_quota_last_reset, total_quota_used)
		values ($1, $2, 1, $3, 0, $3, 1)
		on conflict (project_id) do update set
			daily_quota_used = case
				when u.daily_quota_reset_at is null or $3 >= u.daily_quota_reset_at + $4 * interval '1 second' then 1
				else u.daily_quota_used + 1 end,
			daily_quota_reset_at = case
				when u.daily_quota_reset_at is null or $3 >= u.daily_quota_reset_at + $4 * interval '1 second' then $3
				else u.daily_quota_reset_at end,
			api_quota_last_reset = coalesce(u.api_quota_last_reset, $3),
			total_quota_used = u.total_quota_used + 1,
			updated_at = now()
		returning daily_quota_used, daily_quota_reset_at, api_quota_monthly_used, api_quota_last_reset, total_quota_used`,
		project.ID, project.OrgID, now.UTC(), int64(quota.DailyWindow/time.Second),
	)
	usage, err := scanUsage(row)
	if err != nil {
		return quota.Usage{}, err
	}

	repository.trace.ApplyTraceAttributes(span, core.TraceLedgerMeta{
		Backend: ledgerBackendPostgres, Op: "increment_daily", ProjectID: project.ID, OrgID: project.OrgID,
		Value: usage.DailyUsed, Applied: true,
	})
	return usage, nil
}

func (repository *QuotaLedgerRepository) IncrementMonthlyIfWithinOrgLimit(contextValue context.Context, project quota.ProjectRef, limit int64, now time.Time) (_ bool, returnedError error) {
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	traceMetadata := core.TraceLedgerMeta{
		Backend: ledgerBackendPostgres, Op: "increment_monthly", ProjectID: project.ID, OrgID: project.OrgID, Limit: limit,
	}

	db, err := repository.db()
	if err != nil {
		return false, err
	}
	tx, err := db.BeginTx(contextValue, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	// 同一 org 的檢查與累加必須序列化，鎖隨 transaction 結束釋放
	if _, err := tx.ExecContext(contextValue, `select pg_advisory_xact_lock(hashtext($1))`, project.OrgID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(contextValue, `
		insert into project_quota_usage (project_id, org_id, api_quota_last_reset) values ($1, $2, $3)
		on conflict (project_id) do update
			set api_quota_last_reset = coalesce(project_quota_usage.api_quota_last_reset, excluded.api_quota_last_reset)`,
		project.ID, project.OrgID, now.UTC()); err != nil {
		return false, err
	}
	result, err := tx.ExecContext(contextValue, `
		update project_quota_usage
		set api_quota_monthly_used = api_quota_monthly_used + 1, updated_at = now()
		where project_id = $1
		  and (select coalesce(sum(api_quota_monthly_used), 0) from project_quota_usage where org_id = $2) + 1 <= $3`,
		project.ID, project.OrgID, limit)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	traceMetadata.Applied = affected == 1
	repository.trace.ApplyTraceAttributes(span, traceMetadata)
	return traceMetadata.Applied, nil
}

func (repository *QuotaLedgerRepository) ResetMonthlyForOrg(contextValue context.Context, orgID string, resetDate time.Time) (_ int64, returnedError error) {
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	db, err := repository.db()
	if err != nil {
		return 0, err
	}
	result, err := db.ExecContext(contextValue, `
		update project_quota_usage
		set api_quota_monthly_used = 0, api_quota_last_reset = $2, updated_at = now()
		where org_id = $1 and (api_quota_last_reset is null or api_quota_last_reset < $2)`,
		orgID, resetDate.UTC())
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	repository.trace.ApplyTraceAttributes(span, core.TraceLedgerMeta{
		Backend: ledgerBackendPostgres, Op: "reset_monthly", OrgID: orgID, Value: affected, Applied: affected > 0,
	})
	return affected, nil
}

func (repository *QuotaLedgerRepository) OrgMonthlyUsage(contextValue context.Context, orgID string) (_ quota.OrgUsage, returnedError error) {
	contextValue, _, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	db, err := repository.db()
	if err != nil {
		return quota.OrgUsage{}, err
	}
	usage := quota.OrgUsage{OrgID: orgID}
	err = db.QueryRowContext(contextValue, `
		select coalesce(sum(api_quota_monthly_used), 0), count(*)
		from project_quota_usage where org_id = $1`, orgID).Scan(&usage.MonthlyUsed, &usage.Projects)
	if err != nil {
		return quota.OrgUsage{}, err
	}
	return usage, nil
}

func (repository *QuotaLedgerRepository) ResetProject(contextValue context.Context, project quota.ProjectRef) (returnedError error) {
	contextValue, _, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	db, err := repository.db()
	if err != nil {
		return err
	}
	_, returnedError = db.ExecContext(contextValue, `
		update project_quota_usage
		set daily_quota_used = 0, daily_quota_reset_at = null, api_quota_monthly_used = 0, updated_at = now()
		where project_id = $1`, project.ID)
	return returnedError
}

func (repository *QuotaLedgerRepository) Orgs(contextValue context.Context) (_ []string, returnedError error) {
	contextValue, _, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	db, err := repository.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(contextValue, `select distinct org_id from project_quota_usage order by org_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgIDs []string
	for rows.Next() {
		var orgID string
		if err := rows.Scan(&orgID); err != nil {
			return nil, err
		}
		orgIDs = append(orgIDs, orgID)
	}
	return orgIDs, rows.Err()
}

func scanUsage(row *sql.Row) (quota.Usage, error) {
	var (
		usage            quota.Usage
		dailyResetAt     sql.NullTime
		monthlyLastReset sql.NullTime
	)
	if err := row.Scan(&usage.DailyUsed, &dailyResetAt, &usage.MonthlyUsed, &monthlyLastReset, &usage.TotalUsed); err != nil {
		return quota.Usage{}, err
	}
	if dailyResetAt.Valid {
		usage.DailyResetAt = dailyResetAt.Time.UTC()
	}
	if monthlyLastReset.Valid {
		usage.MonthlyLastReset = monthlyLastReset.Time.UTC()
	}
	return usage, nil
}
