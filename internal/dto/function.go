package dto

// 執行 function 的輸入，依 REST 位置分段
type ExecuteFunctionDto struct {
	LinkedAccountOwnerID string        `json:"linkedAccountOwnerId" binding:"required"`
	FunctionInput        FunctionInput `json:"functionInput"`
}

type FunctionInput struct {
	Path   map[string]any `json:"path,omitempty"`
	Query  map[string]any `json:"query,omitempty"`
	Header map[string]any `json:"header,omitempty"`
	Cookie map[string]any `json:"cookie,omitempty"`
	Body   map[string]any `json:"body,omitempty"`
}

type FunctionExecutionResultDto struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	// token 已刷新但寫回失敗時帶出
	Warning string `json:"warning,omitempty"`
}
