package service

import (
	"context"
	"net/http"
	"time"

	"toolhub/config"
	"toolhub/internal/core"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/oauth2"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
	"toolhub/internal/telemetry"

	"go.uber.org/zap"
)

// TokenRefresher 由 oauth2.Manager 實作
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (oauth2.TokenResponse, error)
}

// ResolvedCredentials 本次呼叫實際要使用的憑證
type ResolvedCredentials struct {
	Scheme       security.Scheme
	SchemeConfig security.SchemeConfig
	Credentials  security.Credentials
	// 來自 app 預設而非 linked account
	IsAppDefault bool
	// token 已更新，呼叫端需寫回來源
	IsUpdated bool
}

// CredentialsResolver 決定 linked account 要用哪組憑證，必要時刷新 OAuth2 token。
// 本身不寫入任何儲存。
type CredentialsResolver struct {
	trace     *telemetry.Trace
	metric    *telemetry.Metric
	logger    *zap.Logger
	refresher func(scheme security.OAuth2Scheme) TokenRefresher
	now       func() time.Time
}

func NewCredentialsResolver(trace *telemetry.Trace, metric *telemetry.Metric, logger *zap.Logger, config *config.Configuration) *CredentialsResolver {
	httpClient := &http.Client{Timeout: config.OAuth2.Timeout()}
	return &CredentialsResolver{
		trace:  trace,
		metric: metric,
		logger: logger,
		refresher: func(scheme security.OAuth2Scheme) TokenRefresher {
			return oauth2.NewManager(trace, oauth2.ConfigFromScheme(scheme), httpClient)
		},
		now: time.Now,
	}
}

func (resolver *CredentialsResolver) Resolve(contextValue context.Context, app *model.App, account *model.LinkedAccount) (_ *ResolvedCredentials, returnedError error) {
	contextValue, span, endSpan := resolver.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	scheme := account.SecurityScheme
	traceMetadata := core.TraceCredentialResolveMeta{
		AppName:   app.Name,
		AccountID: account.ID.Hex(),
		Scheme:    string(scheme),
	}
	defer func() { resolver.trace.ApplyTraceAttributes(span, traceMetadata) }()

	schemeConfig, ok := app.SecuritySchemes.Get(scheme)
	if !ok {
		return nil, cErr.NoImplementationFound("app " + app.Name + " does not support security scheme " + string(scheme))
	}

	credentials, err := account.Credentials()
	if err != nil {
		return nil, cErr.InternalServer("decode linked account credentials: " + err.Error())
	}

	result := &ResolvedCredentials{Scheme: scheme, SchemeConfig: schemeConfig}
	switch scheme {
	case security.NoAuth:
		// 原樣傳遞，允許為空
		if credentials == nil {
			credentials = security.NoAuthCredentials{}
		}
		result.Credentials = credentials
		return result, nil

	case security.APIKey:
		credentials, result.IsAppDefault, err = resolver.withAppDefault(app, scheme, credentials)
		if err != nil {
			return nil, err
		}
		traceMetadata.IsAppDefault = result.IsAppDefault
		result.Credentials = credentials
		return result, nil

	case security.OAuth2:
		credentials, result.IsAppDefault, err = resolver.withAppDefault(app, scheme, credentials)
		if err != nil {
			return nil, err
		}
		traceMetadata.IsAppDefault = result.IsAppDefault

		oauth2Credentials, ok := credentials.(security.OAuth2Credentials)
		if !ok {
			return nil, cErr.InternalServer("oauth2 scheme carries non-oauth2 credentials")
		}
		now := resolver.now()
		if !oauth2Credentials.Expired(now) {
			result.Credentials = oauth2Credentials
			return result, nil
		}

		traceMetadata.Expired = true
		if oauth2Credentials.RefreshToken == "" {
			resolver.countRefresh("no_refresh_token")
			return nil, cErr.OAuth2Error("access token expired and no refresh token is available")
		}

		refreshed, err := resolver.refresh(contextValue, schemeConfig.(security.OAuth2Scheme), oauth2Credentials, now)
		if err != nil {
			resolver.countRefresh("failure")
			resolver.logger.Warn("oauth2 token refresh failed",
				zap.String("app", app.Name),
				zap.String("linkedAccountID", account.ID.Hex()),
				zap.Error(err),
			)
			return nil, err
		}
		resolver.countRefresh("success")
		traceMetadata.Refreshed = true
		result.Credentials = refreshed
		result.IsUpdated = true
		return result, nil

	default:
		return nil, cErr.NoImplementationFound("unsupported security scheme " + string(scheme))
	}
}

// withAppDefault linked account 沒有憑證時改用 app 預設
func (resolver *CredentialsResolver) withAppDefault(app *model.App, scheme security.Scheme, credentials security.Credentials) (security.Credentials, bool, error) {
	if !security.IsEmpty(credentials) {
		return credentials, false, nil
	}
	defaults, err := app.DefaultCredentials(scheme)
	if err != nil {
		return nil, false, cErr.InternalServer("decode app default credentials: " + err.Error())
	}
	if security.IsEmpty(defaults) {
		return nil, false, cErr.NoImplementationFound("no " + string(scheme) + " credentials configured for app " + app.Name)
	}
	return defaults, true, nil
}

// refresh 呼叫一次 token endpoint，並把新 token 疊加到原紀錄上；client 設定沿用原紀錄
func (resolver *CredentialsResolver) refresh(contextValue context.Context, scheme security.OAuth2Scheme, stored security.OAuth2Credentials, now time.Time) (security.OAuth2Credentials, error) {
	token, err := resolver.refresher(scheme).RefreshToken(contextValue, stored.RefreshToken)
	if err != nil {
		return security.OAuth2Credentials{}, err
	}
	expiresAt, err := oauth2.ExpiresAt(token, now)
	if err != nil {
		return security.OAuth2Credentials{}, err
	}

	refreshed := stored
	refreshed.AccessToken = token.AccessToken()
	refreshed.ExpiresAt = &expiresAt
	if tokenType := token.TokenType(); tokenType != "" {
		refreshed.TokenType = tokenType
	}
	// provider 有輪替才覆寫
	if refreshToken := token.RefreshToken(); refreshToken != "" {
		refreshed.RefreshToken = refreshToken
	}
	refreshed.RawTokenResponse = token
	return refreshed, nil
}

func (resolver *CredentialsResolver) countRefresh(outcome string) {
	if resolver.metric.TokenRefreshTotal != nil {
		resolver.metric.TokenRefreshTotal.WithLabelValues(outcome).Inc()
	}
}
