package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"toolhub/config"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
	"toolhub/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type linkedAccountFixture struct {
	service  *LinkedAccountService
	accounts *memoryLinkedAccountStore
	apps     *memoryAppStore
	project  *model.Project
	// token endpoint 收到的 form
	tokenForm url.Values
}

func newLinkedAccountFixture(t *testing.T, linkedAccountLimit int64) *linkedAccountFixture {
	t.Helper()
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	f := &linkedAccountFixture{project: &model.Project{ID: primitive.NewObjectID(), OrgID: "org-1"}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.tokenForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"linked-token","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(server.Close)

	f.apps = newMemoryAppStore(
		&model.App{Name: "GITHUB", Active: true, SecuritySchemes: security.SchemeConfigs{OAuth2: testOAuth2Scheme(server.URL)}},
		&model.App{Name: "WEATHER", Active: true, SecuritySchemes: security.SchemeConfigs{
			APIKey: &security.APIKeyScheme{Location: security.LocationQuery, Name: "appid"},
			NoAuth: &security.NoAuthScheme{},
		}},
	)
	f.accounts = newMemoryLinkedAccountStore()
	plan := freePlan(1000)
	plan.Features.LinkedAccounts = linkedAccountLimit
	billing := newTestBilling(newMemoryPlanStore(plan), newMemorySubscriptionStore(), now)

	conf := &config.Configuration{}
	conf.App.SecretKey = "app-secret"
	conf.OAuth2.RedirectURL = "https://toolhub.example.com/v1/linked-accounts/oauth2/callback"
	f.service = NewLinkedAccountService(
		&telemetry.Trace{}, zap.NewNop(),
		f.apps, f.accounts, newMemoryProjectStore(f.project), newMemoryOAuth2StateStore(),
		billing, conf,
	)
	return f
}

func TestOAuth2LinkFlow(t *testing.T) {
	f := newLinkedAccountFixture(t, 0)
	ctx := context.Background()

	started, err := f.service.OAuth2Start(ctx, f.project, &dto.OAuth2LinkStartDto{
		AppName:              "GITHUB",
		LinkedAccountOwnerID: "user-1",
		AfterOAuth2LinkURL:   "https://agent.example.com/done",
	})
	require.NoError(t, err)
	authorizationURL, err := url.Parse(started.URL)
	require.NoError(t, err)
	query := authorizationURL.Query()
	assert.Equal(t, "app-client", query.Get("client_id"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	state := query.Get("state")
	require.NotEmpty(t, state)

	account, afterURL, err := f.service.OAuth2Callback(ctx, &dto.OAuth2CallbackDto{Code: "auth-code", State: state})
	require.NoError(t, err)
	assert.Equal(t, "https://agent.example.com/done", afterURL)
	assert.Equal(t, security.OAuth2, account.SecurityScheme)
	assert.False(t, account.UsesAppDefault)
	assert.Equal(t, "auth-code", f.tokenForm.Get("code"))
	assert.NotEmpty(t, f.tokenForm.Get("code_verifier"))

	id, _ := primitive.ObjectIDFromHex(account.ID)
	stored, err := f.accounts.stored(id).Credentials()
	require.NoError(t, err)
	oauth2Credentials := stored.(security.OAuth2Credentials)
	assert.Equal(t, "linked-token", oauth2Credentials.AccessToken)
	assert.Equal(t, "refresh", oauth2Credentials.RefreshToken)

	t.Run("state can only be used once", func(t *testing.T) {
		_, _, err := f.service.OAuth2Callback(ctx, &dto.OAuth2CallbackDto{Code: "auth-code", State: state})
		assert.True(t, cErr.HasCode(err, cErr.INVALID_OAUTH2_STATE))
	})
}

func TestOAuth2CallbackRejects(t *testing.T) {
	f := newLinkedAccountFixture(t, 0)
	ctx := context.Background()

	_, _, err := f.service.OAuth2Callback(ctx, &dto.OAuth2CallbackDto{Code: "x", State: "not-a-jwt"})
	assert.True(t, cErr.HasCode(err, cErr.INVALID_OAUTH2_STATE))

	started, err := f.service.OAuth2Start(ctx, f.project, &dto.OAuth2LinkStartDto{AppName: "GITHUB", LinkedAccountOwnerID: "user-1"})
	require.NoError(t, err)
	parsed, _ := url.Parse(started.URL)
	_, _, err = f.service.OAuth2Callback(ctx, &dto.OAuth2CallbackDto{State: parsed.Query().Get("state"), Error: "access_denied"})
	assert.True(t, cErr.HasCode(err, cErr.OAUTH2_ERROR))

	_, err = f.service.OAuth2Start(ctx, f.project, &dto.OAuth2LinkStartDto{AppName: "WEATHER", LinkedAccountOwnerID: "user-1"})
	assert.True(t, cErr.HasCode(err, cErr.BAD_REQUEST_BODY))
}

func TestLinkAccountAPIKey(t *testing.T) {
	f := newLinkedAccountFixture(t, 0)
	ctx := context.Background()

	account, err := f.service.LinkAccount(ctx, f.project, &dto.LinkAccountDto{
		AppName:              "WEATHER",
		LinkedAccountOwnerID: "user-1",
		SecurityScheme:       security.APIKey,
		Credentials:          json.RawMessage(`{"secret_key":"abc"}`),
	})
	require.NoError(t, err)
	assert.True(t, account.Enabled)
	assert.False(t, account.UsesAppDefault)

	// 沒有 app 預設時必須提供憑證
	_, err = f.service.LinkAccount(ctx, f.project, &dto.LinkAccountDto{
		AppName: "WEATHER", LinkedAccountOwnerID: "user-2", SecurityScheme: security.APIKey,
	})
	assert.True(t, cErr.HasCode(err, cErr.BAD_REQUEST_BODY))

	require.NoError(t, f.apps.SetDefaultCredentials(ctx, "WEATHER", string(security.APIKey), mustEncode(t, security.APIKey, security.APIKeyCredentials{SecretKey: "shared"})))
	account, err = f.service.LinkAccount(ctx, f.project, &dto.LinkAccountDto{
		AppName: "WEATHER", LinkedAccountOwnerID: "user-2", SecurityScheme: security.APIKey,
	})
	require.NoError(t, err)
	assert.True(t, account.UsesAppDefault)

	_, err = f.service.LinkAccount(ctx, f.project, &dto.LinkAccountDto{
		AppName: "GITHUB", LinkedAccountOwnerID: "user-1", SecurityScheme: security.NoAuth,
	})
	assert.True(t, cErr.HasCode(err, cErr.BAD_REQUEST_BODY))
}

func TestLinkedAccountPlanLimit(t *testing.T) {
	f := newLinkedAccountFixture(t, 1)
	ctx := context.Background()
	link := func(owner string) error {
		_, err := f.service.LinkAccount(ctx, f.project, &dto.LinkAccountDto{
			AppName: "WEATHER", LinkedAccountOwnerID: owner, SecurityScheme: security.NoAuth,
		})
		return err
	}

	require.NoError(t, link("user-1"))
	// 重新連結既有帳號不佔額度
	require.NoError(t, link("user-1"))
	assert.True(t, cErr.HasCode(link("user-2"), cErr.PLAN_LIMIT_REACHED))
}

func TestLinkedAccountLifecycle(t *testing.T) {
	f := newLinkedAccountFixture(t, 0)
	ctx := context.Background()
	account, err := f.service.LinkAccount(ctx, f.project, &dto.LinkAccountDto{
		AppName: "WEATHER", LinkedAccountOwnerID: "user-1", SecurityScheme: security.NoAuth,
	})
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(account.ID)

	disabled, err := f.service.SetEnabled(ctx, f.project, id, false)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	listed, err := f.service.List(ctx, f.project, &dto.ListLinkedAccountsDto{AppName: "WEATHER"})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	// 其他專案看不到
	other := &model.Project{ID: primitive.NewObjectID(), OrgID: "org-1"}
	_, err = f.service.Get(ctx, other, id)
	assert.True(t, cErr.HasCode(err, cErr.NOT_FOUND))

	require.NoError(t, f.service.Delete(ctx, f.project, id))
	_, err = f.service.Get(ctx, f.project, id)
	assert.True(t, cErr.HasCode(err, cErr.NOT_FOUND))
}
