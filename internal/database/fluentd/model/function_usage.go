package model

// FunctionUsageLog 每次 function 執行一筆
type FunctionUsageLog struct {
	RequestID            string `json:"request_id,omitempty"`
	ProjectID            string `json:"project_id"`
	OrgID                string `json:"org_id"`
	AppName              string `json:"app_name"`
	FunctionName         string `json:"function_name"`
	LinkedAccountOwnerID string `json:"linked_account_owner_id"`
	SecurityScheme       string `json:"security_scheme"`
	IsAppDefault         bool   `json:"is_app_default_credentials"`
	CredentialsRefreshed bool   `json:"credentials_refreshed"`
	Success              bool   `json:"success"`
	StatusCode           int    `json:"status_code,omitempty"`
	Error                string `json:"error,omitempty"`
	DurationMs           int64  `json:"duration_ms"`
	Version              string `json:"version"`
	LoggedAt             string `json:"logged_at"`
}
