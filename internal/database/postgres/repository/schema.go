package repository

import (
	"context"
	"database/sql"
	"errors"
)

var errPostgresNotConfigured = errors.New("postgres is not configured")

var schemaStatements = []string{
	`create table if not exists project_quota_usage (
		project_id             text primary key,
		org_id                 text not null,
		daily_quota_used       bigint not null default 0,
		daily_quota_reset_at   timestamptz,
		api_quota_monthly_used bigint not null default 0,
		api_quota_last_reset   timestamptz,
		total_quota_used       bigint not null default 0,
		updated_at             timestamptz not null default now()
	)`,
	`create index if not exists project_quota_usage_org_id_idx on project_quota_usage (org_id)`,
}

// EnsureSchema 建立 ledger 所需資料表，可重複執行
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errPostgresNotConfigured
	}
	for _, statement := range schemaStatements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}
