// Package oauth2 is a small authorization-code and refresh-token client for
// third-party providers configured per app.
package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"toolhub/internal/core"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
	"toolhub/internal/telemetry"
)

const maxTokenResponseBytes = 1 << 20

// Config 每個 app 的 OAuth2 client 設定
type Config struct {
	ClientID                string
	ClientSecret            string
	Scope                   string
	AuthorizeURL            string
	AccessTokenURL          string
	RefreshTokenURL         string
	TokenEndpointAuthMethod string
}

func ConfigFromScheme(scheme security.OAuth2Scheme) Config {
	return Config{
		ClientID:                scheme.ClientID,
		ClientSecret:            scheme.ClientSecret,
		Scope:                   scheme.Scope,
		AuthorizeURL:            scheme.AuthorizeURL,
		AccessTokenURL:          scheme.AccessTokenURL,
		RefreshTokenURL:         scheme.RefreshTokenURL,
		TokenEndpointAuthMethod: scheme.TokenEndpointAuthMethod,
	}
}

func (c Config) authMethod() string {
	if c.TokenEndpointAuthMethod == "" {
		return security.AuthMethodClientSecretBasic
	}
	return c.TokenEndpointAuthMethod
}

// Manager 不保存任何狀態，只負責與 provider 的 token endpoint 溝通；不做重試。
type Manager struct {
	trace      *telemetry.Trace
	config     Config
	httpClient *http.Client
}

// NewManager httpClient 需自帶逾時設定
func NewManager(trace *telemetry.Trace, config Config, httpClient *http.Client) *Manager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Manager{trace: trace, config: config, httpClient: httpClient}
}

// BuildAuthorizationURL 組出帶 PKCE challenge 的授權網址
func (m *Manager) BuildAuthorizationURL(state, redirectURI, codeVerifier string) (string, error) {
	if state == "" || redirectURI == "" || codeVerifier == "" {
		return "", cErr.BadRequestParams("state, redirect_uri and code_verifier are required")
	}
	parsed, err := url.Parse(m.config.AuthorizeURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", cErr.NoImplementationFound("invalid oauth2 authorize_url")
	}

	query := parsed.Query()
	query.Set("response_type", "code")
	query.Set("client_id", m.config.ClientID)
	query.Set("redirect_uri", redirectURI)
	if m.config.Scope != "" {
		query.Set("scope", m.config.Scope)
	}
	query.Set("state", state)
	query.Set("code_challenge", CodeChallenge(codeVerifier))
	query.Set("code_challenge_method", PKCEChallengeMethodS256)
	// 要求 refresh token
	query.Set("access_type", "offline")
	query.Set("prompt", "consent")
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func (m *Manager) ExchangeCodeForToken(ctx context.Context, code, redirectURI, codeVerifier string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("code_verifier", codeVerifier)
	return m.requestToken(ctx, "authorization_code", m.config.AccessTokenURL, form)
}

func (m *Manager) RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return m.requestToken(ctx, "refresh_token", m.config.RefreshTokenURL, form)
}

// CredentialsFromToken 把授權碼交換結果轉成可儲存的憑證
func (m *Manager) CredentialsFromToken(token TokenResponse, now time.Time) (security.OAuth2Credentials, error) {
	expiresAt, err := ExpiresAt(token, now)
	if err != nil {
		return security.OAuth2Credentials{}, err
	}
	return security.OAuth2Credentials{
		ClientID:         m.config.ClientID,
		ClientSecret:     m.config.ClientSecret,
		Scope:            m.config.Scope,
		AccessToken:      token.AccessToken(),
		TokenType:        token.TokenType(),
		ExpiresAt:        &expiresAt,
		RefreshToken:     token.RefreshToken(),
		RawTokenResponse: token,
	}, nil
}

func (m *Manager) requestToken(contextValue context.Context, grant, endpoint string, form url.Values) (_ TokenResponse, returnedError error) {
	contextValue, span, endSpan := m.trace.WithSpan(contextValue, string(core.SpanOAuth2TokenRequest))
	defer func() { endSpan(returnedError) }()

	traceMetadata := core.TraceOAuth2TokenMeta{
		Grant:      grant,
		Endpoint:   endpoint,
		AuthMethod: m.config.authMethod(),
	}
	m.trace.ApplyTraceAttributes(span, traceMetadata)

	switch m.config.authMethod() {
	case security.AuthMethodClientSecretBasic:
	case security.AuthMethodClientSecretPost:
		form.Set("client_id", m.config.ClientID)
		form.Set("client_secret", m.config.ClientSecret)
	case security.AuthMethodNone:
		form.Set("client_id", m.config.ClientID)
	default:
		return nil, cErr.NoImplementationFound("unsupported token_endpoint_auth_method " + m.config.TokenEndpointAuthMethod)
	}

	request, err := http.NewRequestWithContext(contextValue, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, cErr.OAuth2Error(fmt.Sprintf("create token request: %v", err))
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")
	if m.config.authMethod() == security.AuthMethodClientSecretBasic {
		request.SetBasicAuth(url.QueryEscape(m.config.ClientID), url.QueryEscape(m.config.ClientSecret))
	}

	response, err := m.httpClient.Do(request)
	if err != nil {
		return nil, cErr.OAuth2Error(fmt.Sprintf("token request failed: %v", err))
	}
	defer func() { _ = response.Body.Close() }()

	traceMetadata.StatusCode = response.StatusCode
	m.trace.ApplyTraceAttributes(span, traceMetadata)

	body, err := io.ReadAll(io.LimitReader(response.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, cErr.OAuth2Error(fmt.Sprintf("read token response: %v", err))
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, cErr.OAuth2Error(fmt.Sprintf("token endpoint returned status %d", response.StatusCode))
	}

	token, err := decodeTokenResponse(response.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, cErr.OAuth2Error(fmt.Sprintf("decode token response: %v", err))
	}
	if token.AccessToken() == "" {
		return nil, cErr.OAuth2Error("token response missing access_token")
	}
	return token, nil
}

// 部分 provider 仍回 form-encoded
func decodeTokenResponse(contentType string, body []byte) (TokenResponse, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "text/plain" {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		token := TokenResponse{}
		for key := range values {
			token[key] = values.Get(key)
		}
		return token, nil
	}
	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, err
	}
	return token, nil
}
