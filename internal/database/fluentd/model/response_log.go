package model

// ResponseLog 以 request_id 與 RequestLog 對應
type ResponseLog struct {
	RequestID  string `json:"request_id"`
	Service    string `json:"service,omitempty"`
	ProjectID  string `json:"project_id,omitempty"`
	Route      string `json:"route,omitempty"`
	Code       int    `json:"code"`
	StatusCode int    `json:"status_code"`
	Body       string `json:"body,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Version    string `json:"version,omitempty"`
	ResponseTS string `json:"response_ts"`
	LoggedAt   string `json:"logged_at"`
}
