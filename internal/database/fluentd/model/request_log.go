package model

// RequestLog 進入點記錄；body 與 query 已遮蔽憑證
type RequestLog struct {
	RequestID string `json:"request_id"`
	Service   string `json:"service,omitempty"`
	Method    string `json:"method"`
	Route     string `json:"route,omitempty"`
	Path      string `json:"path"`
	Query     string `json:"query,omitempty"`
	Body      string `json:"body,omitempty"`
	IPHash    string `json:"ip_hash,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Version   string `json:"version,omitempty"`
	RequestTS string `json:"request_ts"`
	LoggedAt  string `json:"logged_at"`
}
