package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"toolhub/config"
	"toolhub/internal/core"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
	"toolhub/internal/telemetry"
)

var pathParamPattern = regexp.MustCompile(`\{([^{}/]+)\}`)

// Call 一次 function 執行所需的全部資料
type Call struct {
	Function     *model.Function
	SchemeConfig security.SchemeConfig
	Credentials  security.Credentials
	Input        dto.FunctionInput
}

// Result 外部 API 的結果；HTTP 層失敗不視為 error，放在 Error 欄位
type Result struct {
	Success    bool
	Data       any
	Error      string
	StatusCode int
}

type RESTExecutor struct {
	trace         *telemetry.Trace
	httpClient    *http.Client
	responseLimit int64
}

func NewRESTExecutor(trace *telemetry.Trace, config *config.Configuration) *RESTExecutor {
	return &RESTExecutor{
		trace:         trace,
		httpClient:    &http.Client{Timeout: config.Executor.Timeout()},
		responseLimit: config.Executor.ResponseLimit(),
	}
}

// Execute 組出請求、注入憑證後送出。輸入不合法時回傳 error，
// 連線失敗或非 2xx 則以 Result.Success=false 回報。
func (executor *RESTExecutor) Execute(ctx context.Context, call Call) (_ *Result, returnedError error) {
	ctx, span, end := executor.trace.WithSpan(ctx, string(core.SpanFunctionHTTPRequest))
	defer func() { end(returnedError) }()

	function := call.Function
	traceMetadata := core.TraceFunctionExecuteMeta{
		FunctionName: function.Name,
		AppName:      function.AppName,
		Method:       function.ProtocolData.Method,
	}
	defer func() { executor.trace.ApplyTraceAttributes(span, traceMetadata) }()

	if function.Protocol != "" && function.Protocol != model.ProtocolREST {
		return nil, cErr.NoImplementationFound("unsupported function protocol " + function.Protocol)
	}

	request := NewRequest()
	copyInto(request.Headers, call.Input.Header)
	copyInto(request.Query, call.Input.Query)
	copyInto(request.Body, call.Input.Body)
	copyInto(request.Cookies, call.Input.Cookie)
	if err := Inject(call.SchemeConfig, call.Credentials, request); err != nil {
		return nil, err
	}

	path, err := expandPath(function.ProtocolData.Path, call.Input.Path)
	if err != nil {
		return nil, err
	}
	target, err := url.Parse(ResolveBaseURL(call.SchemeConfig, function.ProtocolData.ServerURL) + path)
	if err != nil {
		return nil, cErr.NoImplementationFound("invalid function url: " + err.Error())
	}
	if len(request.Query) > 0 {
		target.RawQuery = encodeQuery(target.Query(), request.Query).Encode()
	}
	traceMetadata.URL = target.Scheme + "://" + target.Host + target.Path

	var body io.Reader
	if len(request.Body) > 0 {
		payload, err := json.Marshal(request.Body)
		if err != nil {
			return nil, cErr.BadRequestBody("function body is not serializable: " + err.Error())
		}
		body = bytes.NewReader(payload)
	}
	httpRequest, err := http.NewRequestWithContext(ctx, strings.ToUpper(function.ProtocolData.Method), target.String(), body)
	if err != nil {
		return nil, cErr.InternalServer("create function request failed: " + err.Error())
	}
	for name, value := range request.Headers {
		if reservedHeader(name) {
			continue
		}
		httpRequest.Header.Set(name, stringify(value))
	}
	for name, value := range request.Cookies {
		httpRequest.AddCookie(&http.Cookie{Name: name, Value: stringify(value)})
	}
	if body != nil && httpRequest.Header.Get("Content-Type") == "" {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	if httpRequest.Header.Get("Accept") == "" {
		httpRequest.Header.Set("Accept", "application/json")
	}

	response, err := executor.httpClient.Do(httpRequest)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return &Result{Error: "function request timed out"}, nil
		}
		return &Result{Error: "function request failed: " + err.Error()}, nil
	}
	defer response.Body.Close()
	traceMetadata.StatusCode = response.StatusCode

	raw, err := io.ReadAll(io.LimitReader(response.Body, executor.responseLimit+1))
	if err != nil {
		return &Result{StatusCode: response.StatusCode, Error: "read function response failed: " + err.Error()}, nil
	}
	if int64(len(raw)) > executor.responseLimit {
		return &Result{StatusCode: response.StatusCode, Error: fmt.Sprintf("function response exceeds %d bytes", executor.responseLimit)}, nil
	}
	decoded, err := decodeBody(raw, response.Header)
	if err != nil {
		return &Result{StatusCode: response.StatusCode, Error: "decode function response failed: " + err.Error()}, nil
	}

	result := &Result{StatusCode: response.StatusCode, Data: parseData(decoded)}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		result.Error = fmt.Sprintf("function returned HTTP %d", response.StatusCode)
		return result, nil
	}
	result.Success = true
	traceMetadata.Success = true
	return result, nil
}

// expandPath 以 path 參數取代 {name}，缺少參數時回傳錯誤
func expandPath(template string, params map[string]any) (string, error) {
	var missing []string
	expanded := pathParamPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := params[name]
		if !ok || value == nil {
			missing = append(missing, name)
			return match
		}
		return url.PathEscape(stringify(value))
	})
	if len(missing) > 0 {
		return "", cErr.BadRequestParams("missing path parameters: " + strings.Join(missing, ", "))
	}
	if expanded != "" && !strings.HasPrefix(expanded, "/") {
		expanded = "/" + expanded
	}
	return expanded, nil
}

// 陣列展開成重複的 key，key 依字母排序讓 URL 穩定
func encodeQuery(values url.Values, params map[string]any) url.Values {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		switch value := params[key].(type) {
		case nil:
			continue
		case []any:
			for _, item := range value {
				values.Add(key, stringify(item))
			}
		case []string:
			for _, item := range value {
				values.Add(key, item)
			}
		default:
			values.Set(key, stringify(value))
		}
	}
	return values
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case map[string]any, []any:
		b, _ := json.Marshal(v)
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// JSON 優先，否則回傳文字
func parseData(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var data any
	if err := json.Unmarshal(body, &data); err == nil {
		return data
	}
	return string(body)
}

func copyInto(dst, src map[string]any) {
	for key, value := range src {
		dst[key] = value
	}
}
