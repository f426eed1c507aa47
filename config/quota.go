package config

const (
	QuotaBackendRedis    = "redis"
	QuotaBackendPostgres = "postgres"

	DefaultProjectDailyQuota = 1000
	DefaultFreePlanName      = "free"
	DefaultUsageReportSpec   = "0 */5 * * * *"
)

type Quota struct {
	// redis（預設）或 postgres
	Backend string `mapstructure:"BACKEND" json:"backend" yaml:"backend"`
	// 每個專案每日可呼叫次數
	ProjectDailyQuota int64 `mapstructure:"PROJECT_DAILY_QUOTA" json:"project_daily_quota" yaml:"project_daily_quota"`
	// 無訂閱時使用的方案名稱
	FreePlanName string `mapstructure:"FREE_PLAN_NAME" json:"free_plan_name" yaml:"free_plan_name"`
	// 用量回報排程（cron，含秒）
	UsageReportSpec string `mapstructure:"USAGE_REPORT_SPEC" json:"usage_report_spec" yaml:"usage_report_spec"`
}

func (q Quota) DailyLimit() int64 {
	if q.ProjectDailyQuota <= 0 {
		return DefaultProjectDailyQuota
	}
	return q.ProjectDailyQuota
}

func (q Quota) FreePlan() string {
	if q.FreePlanName == "" {
		return DefaultFreePlanName
	}
	return q.FreePlanName
}

func (q Quota) ReportSpec() string {
	if q.UsageReportSpec == "" {
		return DefaultUsageReportSpec
	}
	return q.UsageReportSpec
}
