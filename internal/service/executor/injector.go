// Package executor turns a function definition plus resolved credentials
// into an outbound HTTP call.
package executor

import (
	"net/http"
	"strings"

	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
)

// Request 尚未送出的請求各部位，Inject 直接修改
type Request struct {
	Headers map[string]any
	Query   map[string]any
	Body    map[string]any
	Cookies map[string]any
}

func NewRequest() *Request {
	return &Request{
		Headers: map[string]any{},
		Query:   map[string]any{},
		Body:    map[string]any{},
		Cookies: map[string]any{},
	}
}

// 送出時會被丟棄的 header，憑證不能放在這裡
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Proxy-Connection":    {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Host":                {},
	"Content-Length":      {},
}

// ReservedHeader 該 header 不會隨請求送出
func ReservedHeader(name string) bool {
	return reservedHeader(name)
}

func reservedHeader(name string) bool {
	_, ok := hopByHopHeaders[http.CanonicalHeaderKey(name)]
	return ok
}

// Inject 依 scheme 設定把憑證放到指定位置；no_auth 不做任何事
func Inject(schemeConfig security.SchemeConfig, credentials security.Credentials, request *Request) error {
	var location security.Location
	var name, value string
	switch scheme := schemeConfig.(type) {
	case security.NoAuthScheme:
		return nil
	case security.APIKeyScheme:
		secret, ok := credentials.(security.APIKeyCredentials)
		if !ok {
			return cErr.InternalServer("api_key scheme requires api_key credentials")
		}
		location, name, value = scheme.Location, scheme.Name, withPrefix(scheme.Prefix, secret.SecretKey)
	case security.OAuth2Scheme:
		token, ok := credentials.(security.OAuth2Credentials)
		if !ok {
			return cErr.InternalServer("oauth2 scheme requires oauth2 credentials")
		}
		location, name, value = scheme.Location, scheme.Name, withPrefix(scheme.Prefix, token.AccessToken)
	default:
		return cErr.NoImplementationFound("unsupported security scheme config")
	}

	switch location {
	case security.LocationHeader:
		if reservedHeader(name) {
			return cErr.NoImplementationFound("credential header " + name + " cannot be sent")
		}
		request.Headers[name] = value
	case security.LocationQuery:
		request.Query[name] = value
	case security.LocationBody:
		request.Body[name] = value
	case security.LocationCookie:
		request.Cookies[name] = value
	default:
		return cErr.NoImplementationFound("unsupported credential location " + string(location))
	}
	return nil
}

// ResolveBaseURL api_key 的 api_host_url 優先於 function 的 server_url
func ResolveBaseURL(schemeConfig security.SchemeConfig, defaultServerURL string) string {
	if scheme, ok := schemeConfig.(security.APIKeyScheme); ok && scheme.APIHostURL != "" {
		return strings.TrimRight(scheme.APIHostURL, "/")
	}
	return strings.TrimRight(defaultServerURL, "/")
}

func withPrefix(prefix, secret string) string {
	if prefix == "" {
		return secret
	}
	return prefix + " " + secret
}
