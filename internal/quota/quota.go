// Package quota defines the per-project and per-organization usage ledger
// that backs the quota enforcement gate.
package quota

import (
	"context"
	"time"
)

// DailyWindow 每日額度視窗，從第一次呼叫起算
const DailyWindow = 24 * time.Hour

// ProjectRef 額度歸屬：project 與其所屬 org
type ProjectRef struct {
	ID    string
	OrgID string
}

// Usage 單一 project 的計數快照
type Usage struct {
	DailyUsed        int64
	DailyResetAt     time.Time
	MonthlyUsed      int64
	MonthlyLastReset time.Time
	TotalUsed        int64
}

// DailyResetDue now 是否已跨過每日視窗（未曾重置也視為需要）
func (u Usage) DailyResetDue(now time.Time) bool {
	return u.DailyResetAt.IsZero() || !now.Before(u.DailyResetAt.Add(DailyWindow))
}

// MonthlyResetDue 上次重置早於本月第一天即需重置
func (u Usage) MonthlyResetDue(now time.Time) bool {
	return u.MonthlyLastReset.IsZero() || u.MonthlyLastReset.Before(FirstOfMonth(now))
}

// OrgUsage org 全部 project 的月用量
type OrgUsage struct {
	OrgID       string
	MonthlyUsed int64
	Projects    int
}

// FirstOfMonth UTC 當月第一天 00:00
func FirstOfMonth(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Ledger 計數器的所有寫入都必須是原子操作，呼叫端不得自行讀後寫。
type Ledger interface {
	// Usage 讀取 project 目前的計數，未曾使用時回傳零值
	Usage(ctx context.Context, project ProjectRef) (Usage, error)
	// IncrementDaily 視窗過期時重設為 1，否則加 1；同時累加 total。
	IncrementDaily(ctx context.Context, project ProjectRef, now time.Time) (Usage, error)
	// IncrementMonthlyIfWithinOrgLimit 僅在 org 加總 + 1 <= limit 時加 1。
	// 同一 org 的並發呼叫必須序列化，回傳是否有加。
	// 尚未有 monthly_last_reset 的 project 於同一步驟以 now 標記，避免被並發的月重設歸零。
	IncrementMonthlyIfWithinOrgLimit(ctx context.Context, project ProjectRef, limit int64, now time.Time) (bool, error)
	// ResetMonthlyForOrg 把 org 內 monthly_last_reset 早於 resetDate 的 project 歸零，
	// 回傳受影響數量；重複呼叫不會有額外效果。
	ResetMonthlyForOrg(ctx context.Context, orgID string, resetDate time.Time) (int64, error)
	// OrgMonthlyUsage 加總 org 的月用量
	OrgMonthlyUsage(ctx context.Context, orgID string) (OrgUsage, error)
	// ResetProject 管理用：清除單一 project 的 daily 與 monthly 計數
	ResetProject(ctx context.Context, project ProjectRef) error
	// Orgs 列出有計數紀錄的 org，供排程報表使用
	Orgs(ctx context.Context) ([]string, error)
}
