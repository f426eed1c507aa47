package core

const ContextTraceKey = "telemetry_trace_ctx"

// ==== 型別安全 span name ====
// 專案全域建議都寫這裡，方便集中管理
type TraceSpanName string

const (
	SpanHttpRequest         TraceSpanName = "http_request"
	SpanLoggerMiddleware    TraceSpanName = "logger_middleware"
	SpanRecoveryMiddleware  TraceSpanName = "recovery_middleware"
	SpanCorsMiddleware      TraceSpanName = "cors_middleware"
	SpanResponseMiddleware  TraceSpanName = "response_middleware"
	SpanAPIKeyMiddleware    TraceSpanName = "api_key_middleware"
	SpanAdminMiddleware     TraceSpanName = "admin_middleware"
	SpanQuotaMiddleware     TraceSpanName = "quota_middleware"
	SpanOAuth2TokenRequest  TraceSpanName = "oauth2.token_request"
	SpanFunctionHTTPRequest TraceSpanName = "function.http_request"
	SpanQuotaUsageReportJob TraceSpanName = "cron.quota_usage_report"
)

// 指標名稱常數
type MetricName string

const (
	MetricHttpRequestsTotal         MetricName = "requests_total"
	MetricHttpRequestDuration       MetricName = "request_duration_seconds"
	MetricResponseSuccessTotal      MetricName = "response_success_total"
	MetricResponseFailTotal         MetricName = "response_fail_total"
	MetricQuotaExceededTotal        MetricName = "quota_exceeded_total"
	MetricTokenRefreshTotal         MetricName = "oauth2_token_refresh_total"
	MetricCredentialWriteBackFail   MetricName = "credential_write_back_fail_total"
	MetricFunctionExecutionTotal    MetricName = "function_execution_total"
	MetricFunctionExecutionDuration MetricName = "function_execution_duration_seconds"
	MetricOrgMonthlyUsage           MetricName = "org_monthly_usage"
)

// label name 常數
type MetricLabelName string

const (
	MetricLabelEndpoint MetricLabelName = "endpoint"
	MetricLabelStatus   MetricLabelName = "status"
	MetricLabelReason   MetricLabelName = "reason"
	MetricLabelKind     MetricLabelName = "kind"
	MetricLabelOutcome  MetricLabelName = "outcome"
	MetricLabelSource   MetricLabelName = "source"
	MetricLabelApp      MetricLabelName = "app"
	MetricLabelOrg      MetricLabelName = "org"
)

type LoggerRequestMeta struct {
	Method     string            `trace:"request.method"`
	Path       string            `trace:"request.path"`
	FullPath   string            `trace:"request.full_path"`
	Query      string            `trace:"request.query"`
	Body       string            `trace:"request.body"`
	Scheme     string            `trace:"http.scheme"`
	Host       string            `trace:"http.host"`
	UserAgent  string            `trace:"http.user_agent"`
	ContentLen int64             `trace:"http.request_content_length"`
	Proto      string            `trace:"http.flavor"`
	ClientIP   string            `trace:"net.peer.ip"`
	Headers    map[string]string `trace:"http.request.header"`
	Params     map[string]string `trace:"http.request.param"`
}
type TraceAPIKeyMiddlewareMeta struct {
	Where     string `trace:"auth.where"`
	ClientIP  string `trace:"net.peer.ip,omitempty"`
	ProjectID string `trace:"auth.project_id,omitempty"`
	OrgID     string `trace:"auth.org_id,omitempty"`
	APIKeyID  string `trace:"auth.api_key_id,omitempty"`
	Status    string `trace:"auth.status,omitempty"`
}

type TraceAdminMiddlewareMeta struct {
	Username string `trace:"admin.username,omitempty"`
	Role     string `trace:"admin.role,omitempty"`
	Status   string `trace:"auth.status,omitempty"`
}

// 額度檢查與 ledger 操作
type TraceQuotaMeta struct {
	ProjectID    string `trace:"quota.project_id"`
	OrgID        string `trace:"quota.org_id"`
	Op           string `trace:"quota.op"`
	DailyUsed    int64  `trace:"quota.daily_used,omitempty"`
	DailyLimit   int64  `trace:"quota.daily_limit,omitempty"`
	MonthlyLimit int64  `trace:"quota.monthly_limit,omitempty"`
	MonthlyReset bool   `trace:"quota.monthly_reset"`
	Allowed      bool   `trace:"quota.allowed"`
	Result       string `trace:"quota.result,omitempty"`
}

type TraceLedgerMeta struct {
	Backend   string `trace:"ledger.backend"`
	Op        string `trace:"ledger.op"`
	ProjectID string `trace:"ledger.project_id,omitempty"`
	OrgID     string `trace:"ledger.org_id"`
	Limit     int64  `trace:"ledger.limit,omitempty"`
	Value     int64  `trace:"ledger.value,omitempty"`
	Applied   bool   `trace:"ledger.applied"`
}

type TraceCredentialResolveMeta struct {
	AppName      string `trace:"credentials.app_name"`
	AccountID    string `trace:"credentials.linked_account_id"`
	Scheme       string `trace:"credentials.scheme"`
	IsAppDefault bool   `trace:"credentials.is_app_default"`
	Expired      bool   `trace:"credentials.expired"`
	Refreshed    bool   `trace:"credentials.refreshed"`
}

type TraceOAuth2TokenMeta struct {
	Grant      string `trace:"oauth2.grant_type"`
	Endpoint   string `trace:"oauth2.endpoint"`
	AuthMethod string `trace:"oauth2.auth_method"`
	StatusCode int    `trace:"http.response.status_code,omitempty"`
}

type TraceFunctionExecuteMeta struct {
	FunctionName string `trace:"function.name"`
	AppName      string `trace:"function.app_name"`
	ProjectID    string `trace:"function.project_id"`
	OwnerID      string `trace:"function.linked_account_owner_id"`
	Method       string `trace:"http.request.method,omitempty"`
	URL          string `trace:"http.request.url,omitempty"`
	StatusCode   int    `trace:"http.response.status_code,omitempty"`
	Success      bool   `trace:"function.success"`
}

type TraceSearchMeta struct {
	Intent      string   `trace:"search.intent,omitempty"`
	Categories  []string `trace:"search.categories,omitempty"`
	AppNames    []string `trace:"search.app_names,omitempty"`
	Limit       int64    `trace:"search.limit"`
	Offset      int64    `trace:"search.offset"`
	ResultCount int      `trace:"result.count"`
}

type TracePanicMeta struct {
	Path       string  `trace:"http.path"`
	Method     string  `trace:"http.method"`
	ClientIP   string  `trace:"net.peer.ip"`
	UserAgent  string  `trace:"http.user_agent"`
	DurationMs float64 `trace:"response.latency_ms"`
	Status     int     `trace:"http.status_code"`
	Message    string  `trace:"error.message"`
	Stack      string  `trace:"error.stack"`
}

type TraceErrorMeta struct {
	Code       int     `trace:"error.code"`
	Message    string  `trace:"error.message"`
	Detail     string  `trace:"error.detail"`
	Status     int     `trace:"http.status_code"`
	DurationMs float64 `trace:"response.latency_ms"`
}

type TraceResponseMeta struct {
	Path       string  `trace:"http.path"`
	Method     string  `trace:"http.method"`
	Status     int     `trace:"http.status_code"`
	Message    string  `trace:"response.message"`
	Code       int     `trace:"response.code"`
	DurationMs float64 `trace:"response.latency_ms"`
	Data       string  `trace:"response.data_preview"`
}
type TraceHttpServerMeta struct {
	// request side
	ClientAddr        string `trace:"client.address"`
	HttpRequestMethod string `trace:"http.request.method"`
	HttpRoute         string `trace:"http.route"`
	UrlPath           string `trace:"http.request.path"`
	UrlScheme         string `trace:"http.request.url.scheme"`
	UserAgent         string `trace:"user_agent.original"`
	ServerAddress     string `trace:"server.address"`
	NetworkPeerAddr   string `trace:"network.peer.address"`
	NetworkPeerPort   int    `trace:"network.peer.port"`
	NetworkProtoVer   string `trace:"network.protocol.version"`
	SpanKind          string `trace:"span.kind"`
	SpanTraceID       string `trace:"span.trace_id"`
	HttpStatusCode    int    `trace:"http.response.status_code"`
}
