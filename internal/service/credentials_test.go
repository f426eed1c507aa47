package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"toolhub/config"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/oauth2"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
	"toolhub/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeRefresher struct {
	calls    int
	response oauth2.TokenResponse
	err      error
}

func (f *fakeRefresher) RefreshToken(_ context.Context, _ string) (oauth2.TokenResponse, error) {
	f.calls++
	return f.response, f.err
}

func newTestResolver(refresher TokenRefresher, now time.Time) *CredentialsResolver {
	resolver := NewCredentialsResolver(&telemetry.Trace{}, &telemetry.Metric{}, zap.NewNop(), &config.Configuration{})
	if refresher != nil {
		resolver.refresher = func(security.OAuth2Scheme) TokenRefresher { return refresher }
	}
	resolver.now = func() time.Time { return now }
	return resolver
}

func mustEncode(t *testing.T, scheme security.Scheme, credentials security.Credentials) bson.Raw {
	t.Helper()
	raw, err := security.Encode(scheme, credentials)
	require.NoError(t, err)
	return raw
}

func testOAuth2Scheme(tokenURL string) *security.OAuth2Scheme {
	return &security.OAuth2Scheme{
		Location:        security.LocationHeader,
		Name:            "Authorization",
		Prefix:          "Bearer",
		ClientID:        "app-client",
		ClientSecret:    "app-secret",
		Scope:           "repo",
		AuthorizeURL:    "https://provider.example.com/authorize",
		AccessTokenURL:  tokenURL,
		RefreshTokenURL: tokenURL,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestResolveAPIKeyFallsBackToAppDefault(t *testing.T) {
	app := &model.App{
		Name:            "SERPAPI",
		SecuritySchemes: security.SchemeConfigs{APIKey: &security.APIKeyScheme{Location: security.LocationQuery, Name: "api_key"}},
		DefaultSecurityCredentials: map[string]bson.Raw{
			string(security.APIKey): mustEncode(t, security.APIKey, security.APIKeyCredentials{SecretKey: "app-key"}),
		},
	}
	account := &model.LinkedAccount{ID: primitive.NewObjectID(), AppName: "SERPAPI", SecurityScheme: security.APIKey}

	result, err := newTestResolver(nil, time.Now()).Resolve(context.Background(), app, account)
	require.NoError(t, err)
	assert.True(t, result.IsAppDefault)
	assert.False(t, result.IsUpdated)
	assert.Equal(t, security.APIKeyCredentials{SecretKey: "app-key"}, result.Credentials)

	// 空的 secret 視同未設定
	account.SecurityCredentials = mustEncode(t, security.APIKey, security.APIKeyCredentials{})
	result, err = newTestResolver(nil, time.Now()).Resolve(context.Background(), app, account)
	require.NoError(t, err)
	assert.True(t, result.IsAppDefault)
}

func TestResolveAPIKeyPrefersLinkedAccount(t *testing.T) {
	app := &model.App{
		Name:            "SERPAPI",
		SecuritySchemes: security.SchemeConfigs{APIKey: &security.APIKeyScheme{Location: security.LocationHeader, Name: "X-Key"}},
		DefaultSecurityCredentials: map[string]bson.Raw{
			string(security.APIKey): mustEncode(t, security.APIKey, security.APIKeyCredentials{SecretKey: "app-key"}),
		},
	}
	account := &model.LinkedAccount{
		ID:                  primitive.NewObjectID(),
		SecurityScheme:      security.APIKey,
		SecurityCredentials: mustEncode(t, security.APIKey, security.APIKeyCredentials{SecretKey: "user-key"}),
	}

	result, err := newTestResolver(nil, time.Now()).Resolve(context.Background(), app, account)
	require.NoError(t, err)
	assert.False(t, result.IsAppDefault)
	assert.Equal(t, security.APIKeyCredentials{SecretKey: "user-key"}, result.Credentials)
}

func TestResolveWithoutAnyCredentials(t *testing.T) {
	for _, scheme := range []security.Scheme{security.APIKey, security.OAuth2} {
		t.Run(string(scheme), func(t *testing.T) {
			app := &model.App{
				Name: "EMPTY",
				SecuritySchemes: security.SchemeConfigs{
					APIKey: &security.APIKeyScheme{Location: security.LocationHeader, Name: "X-Key"},
					OAuth2: testOAuth2Scheme("http://unused"),
				},
			}
			account := &model.LinkedAccount{ID: primitive.NewObjectID(), SecurityScheme: scheme}

			_, err := newTestResolver(nil, time.Now()).Resolve(context.Background(), app, account)
			assert.True(t, cErr.HasCode(err, cErr.NO_IMPLEMENTATION_FOUND))
		})
	}
}

func TestResolveSchemeNotConfiguredOnApp(t *testing.T) {
	app := &model.App{Name: "NOAUTH_ONLY", SecuritySchemes: security.SchemeConfigs{NoAuth: &security.NoAuthScheme{}}}
	account := &model.LinkedAccount{ID: primitive.NewObjectID(), SecurityScheme: security.APIKey}

	_, err := newTestResolver(nil, time.Now()).Resolve(context.Background(), app, account)
	assert.True(t, cErr.HasCode(err, cErr.NO_IMPLEMENTATION_FOUND))
}

func TestResolveNoAuthPassesThrough(t *testing.T) {
	app := &model.App{Name: "PUBLIC", SecuritySchemes: security.SchemeConfigs{NoAuth: &security.NoAuthScheme{}}}
	account := &model.LinkedAccount{ID: primitive.NewObjectID(), SecurityScheme: security.NoAuth}

	result, err := newTestResolver(nil, time.Now()).Resolve(context.Background(), app, account)
	require.NoError(t, err)
	assert.Equal(t, security.NoAuthCredentials{}, result.Credentials)
	assert.False(t, result.IsUpdated)
	assert.False(t, result.IsAppDefault)
}

func TestResolveOAuth2ValidTokenDoesNotRefresh(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	for name, expiresAt := range map[string]*int64{
		"future":      int64Ptr(now.Unix() + 60),
		"exactly now": int64Ptr(now.Unix()),
		"no expiry":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			refresher := &fakeRefresher{}
			app := &model.App{Name: "GITHUB", SecuritySchemes: security.SchemeConfigs{OAuth2: testOAuth2Scheme("http://unused")}}
			account := &model.LinkedAccount{
				ID:             primitive.NewObjectID(),
				SecurityScheme: security.OAuth2,
				SecurityCredentials: mustEncode(t, security.OAuth2, security.OAuth2Credentials{
					AccessToken: "old", RefreshToken: "r1", ExpiresAt: expiresAt,
				}),
			}

			result, err := newTestResolver(refresher, now).Resolve(context.Background(), app, account)
			require.NoError(t, err)
			assert.Zero(t, refresher.calls)
			assert.False(t, result.IsUpdated)
			assert.Equal(t, "old", result.Credentials.(security.OAuth2Credentials).AccessToken)
		})
	}
}

func TestResolveOAuth2ExpiredRefreshesOnce(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	refresher := &fakeRefresher{response: oauth2.TokenResponse{
		"access_token": "new", "expires_in": float64(3600), "refresh_token": "r2", "token_type": "Bearer",
	}}
	app := &model.App{Name: "GITHUB", SecuritySchemes: security.SchemeConfigs{OAuth2: testOAuth2Scheme("http://unused")}}
	account := &model.LinkedAccount{
		ID:             primitive.NewObjectID(),
		SecurityScheme: security.OAuth2,
		SecurityCredentials: mustEncode(t, security.OAuth2, security.OAuth2Credentials{
			ClientID: "stored-client", ClientSecret: "stored-secret", Scope: "stored-scope",
			AccessToken: "old", RefreshToken: "r1", ExpiresAt: int64Ptr(now.Unix() - 1),
		}),
	}

	result, err := newTestResolver(refresher, now).Resolve(context.Background(), app, account)
	require.NoError(t, err)
	assert.Equal(t, 1, refresher.calls)
	assert.True(t, result.IsUpdated)
	assert.False(t, result.IsAppDefault)

	refreshed := result.Credentials.(security.OAuth2Credentials)
	assert.Equal(t, "new", refreshed.AccessToken)
	assert.Equal(t, "r2", refreshed.RefreshToken)
	assert.Equal(t, now.Unix()+3600, *refreshed.ExpiresAt)
	// client 設定沿用儲存的紀錄，不是 app 目前的設定
	assert.Equal(t, "stored-client", refreshed.ClientID)
	assert.Equal(t, "stored-secret", refreshed.ClientSecret)
	assert.Equal(t, "stored-scope", refreshed.Scope)
}

func TestResolveOAuth2KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	refresher := &fakeRefresher{response: oauth2.TokenResponse{"access_token": "new", "expires_at": float64(now.Unix() + 10)}}
	app := &model.App{Name: "GITHUB", SecuritySchemes: security.SchemeConfigs{OAuth2: testOAuth2Scheme("http://unused")}}
	account := &model.LinkedAccount{
		ID:             primitive.NewObjectID(),
		SecurityScheme: security.OAuth2,
		SecurityCredentials: mustEncode(t, security.OAuth2, security.OAuth2Credentials{
			AccessToken: "old", RefreshToken: "r1", ExpiresAt: int64Ptr(0),
		}),
	}

	result, err := newTestResolver(refresher, now).Resolve(context.Background(), app, account)
	require.NoError(t, err)
	assert.Equal(t, "r1", result.Credentials.(security.OAuth2Credentials).RefreshToken)
}

func TestResolveOAuth2ExpiredFailures(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	app := &model.App{Name: "GITHUB", SecuritySchemes: security.SchemeConfigs{OAuth2: testOAuth2Scheme("http://unused")}}

	t.Run("no refresh token", func(t *testing.T) {
		refresher := &fakeRefresher{}
		account := &model.LinkedAccount{
			ID:             primitive.NewObjectID(),
			SecurityScheme: security.OAuth2,
			SecurityCredentials: mustEncode(t, security.OAuth2, security.OAuth2Credentials{
				AccessToken: "old", ExpiresAt: int64Ptr(0),
			}),
		}
		_, err := newTestResolver(refresher, now).Resolve(context.Background(), app, account)
		assert.True(t, cErr.HasCode(err, cErr.OAUTH2_ERROR))
		assert.Zero(t, refresher.calls)
	})

	t.Run("refresh response without expiry", func(t *testing.T) {
		refresher := &fakeRefresher{response: oauth2.TokenResponse{"access_token": "new"}}
		account := &model.LinkedAccount{
			ID:             primitive.NewObjectID(),
			SecurityScheme: security.OAuth2,
			SecurityCredentials: mustEncode(t, security.OAuth2, security.OAuth2Credentials{
				AccessToken: "old", RefreshToken: "r1", ExpiresAt: int64Ptr(0),
			}),
		}
		_, err := newTestResolver(refresher, now).Resolve(context.Background(), app, account)
		assert.True(t, cErr.HasCode(err, cErr.OAUTH2_ERROR))
	})

	t.Run("provider error", func(t *testing.T) {
		refresher := &fakeRefresher{err: cErr.OAuth2Error("invalid_grant")}
		account := &model.LinkedAccount{
			ID:             primitive.NewObjectID(),
			SecurityScheme: security.OAuth2,
			SecurityCredentials: mustEncode(t, security.OAuth2, security.OAuth2Credentials{
				AccessToken: "old", RefreshToken: "r1", ExpiresAt: int64Ptr(0),
			}),
		}
		_, err := newTestResolver(refresher, now).Resolve(context.Background(), app, account)
		assert.True(t, cErr.HasCode(err, cErr.OAUTH2_ERROR))
		assert.Equal(t, 1, refresher.calls)
	})
}

// 走真實的 oauth2.Manager 與 httptest token endpoint
func TestResolveOAuth2AppDefaultAgainstTokenEndpoint(t *testing.T) {
	var gotGrant string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotGrant = r.PostForm.Get("grant_type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new","expires_in":3600}`))
	}))
	defer server.Close()

	app := &model.App{
		Name:            "GITHUB",
		SecuritySchemes: security.SchemeConfigs{OAuth2: testOAuth2Scheme(server.URL)},
		DefaultSecurityCredentials: map[string]bson.Raw{
			string(security.OAuth2): mustEncode(t, security.OAuth2, security.OAuth2Credentials{
				AccessToken: "old", RefreshToken: "r1", ExpiresAt: int64Ptr(0),
			}),
		},
	}
	account := &model.LinkedAccount{ID: primitive.NewObjectID(), SecurityScheme: security.OAuth2}

	resolver := NewCredentialsResolver(&telemetry.Trace{}, &telemetry.Metric{}, zap.NewNop(), &config.Configuration{})
	result, err := resolver.Resolve(context.Background(), app, account)
	require.NoError(t, err)
	assert.Equal(t, "refresh_token", gotGrant)
	assert.True(t, result.IsAppDefault)
	assert.True(t, result.IsUpdated)
	assert.Equal(t, "new", result.Credentials.(security.OAuth2Credentials).AccessToken)
}
