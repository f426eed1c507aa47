package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"toolhub/config"
	"toolhub/internal/database/mongodb/model"
	"toolhub/internal/dto"
	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
	"toolhub/internal/service/executor"
	"toolhub/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type functionFixture struct {
	service  *FunctionService
	apps     *memoryAppStore
	accounts *memoryLinkedAccountStore
	usageLog *recordingUsageLogger
	project  *model.Project
	// function 端點收到的 Authorization
	authorization atomic.Value
	refreshCalls  atomic.Int32
}

// 建立一個 token endpoint 與一個 function 端點
func newFunctionFixture(t *testing.T) (*functionFixture, *httptest.Server) {
	t.Helper()
	f := &functionFixture{
		project:  &model.Project{ID: primitive.NewObjectID(), OrgID: "org-1"},
		usageLog: &recordingUsageLogger{},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			f.refreshCalls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"new","expires_in":3600}`))
		default:
			f.authorization.Store(r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"login":"octocat"}`))
		}
	}))
	t.Cleanup(server.Close)

	f.apps = newMemoryAppStore(&model.App{
		Name:            "GITHUB",
		Active:          true,
		SecuritySchemes: security.SchemeConfigs{OAuth2: testOAuth2Scheme(server.URL + "/token")},
	})
	functions := newMemoryFunctionStore(&model.Function{
		Name:         "GITHUB__GET_USER",
		AppName:      "GITHUB",
		Protocol:     model.ProtocolREST,
		ProtocolData: model.RESTProtocolData{Method: http.MethodGet, Path: "/user", ServerURL: server.URL},
		Active:       true,
	})
	f.accounts = newMemoryLinkedAccountStore()

	conf := &config.Configuration{}
	resolver := NewCredentialsResolver(&telemetry.Trace{}, &telemetry.Metric{}, zap.NewNop(), conf)
	f.service = NewFunctionService(
		&telemetry.Trace{}, &telemetry.Metric{}, zap.NewNop(),
		f.apps, functions, f.accounts, resolver,
		executor.NewRESTExecutor(&telemetry.Trace{}, conf),
		f.usageLog, conf,
	)
	return f, server
}

func (f *functionFixture) link(t *testing.T, credentials security.Credentials) *model.LinkedAccount {
	t.Helper()
	account, err := f.accounts.Upsert(context.Background(), &model.LinkedAccount{
		ProjectID:            f.project.ID,
		AppName:              "GITHUB",
		LinkedAccountOwnerID: "user-1",
		SecurityScheme:       security.OAuth2,
		SecurityCredentials:  mustEncode(t, security.OAuth2, credentials),
	})
	require.NoError(t, err)
	return account
}

func (f *functionFixture) execute() (*dto.FunctionExecutionResultDto, error) {
	return f.service.Execute(context.Background(), f.project, "GITHUB__GET_USER", &dto.ExecuteFunctionDto{LinkedAccountOwnerID: "user-1"})
}

func TestExecuteRefreshesAndPersistsLinkedAccountToken(t *testing.T) {
	f, _ := newFunctionFixture(t)
	account := f.link(t, security.OAuth2Credentials{
		ClientID: "app-client", ClientSecret: "app-secret", Scope: "repo",
		AccessToken: "old", RefreshToken: "r1", ExpiresAt: int64Ptr(0),
	})

	result, err := f.execute()
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, map[string]any{"login": "octocat"}, result.Data)
	assert.Equal(t, "Bearer new", f.authorization.Load())
	assert.Equal(t, int32(1), f.refreshCalls.Load())

	stored, err := f.accounts.stored(account.ID).Credentials()
	require.NoError(t, err)
	persisted := stored.(security.OAuth2Credentials)
	assert.Equal(t, "new", persisted.AccessToken)
	assert.Equal(t, "r1", persisted.RefreshToken)
	assert.Equal(t, "app-client", persisted.ClientID)
	require.NotNil(t, persisted.ExpiresAt)
	assert.Greater(t, *persisted.ExpiresAt, int64(0))
	assert.NotNil(t, f.accounts.stored(account.ID).LastUsedAt)

	// 已寫回，第二次不再刷新
	_, err = f.execute()
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.refreshCalls.Load())

	require.Len(t, f.usageLog.functions, 2)
	assert.True(t, f.usageLog.functions[0].CredentialsRefreshed)
	assert.False(t, f.usageLog.functions[1].CredentialsRefreshed)
}

func TestExecuteRefreshesAppDefaultToken(t *testing.T) {
	f, _ := newFunctionFixture(t)
	f.apps.apps["GITHUB"].DefaultSecurityCredentials = map[string]bson.Raw{
		string(security.OAuth2): mustEncode(t, security.OAuth2, security.OAuth2Credentials{
			AccessToken: "old", RefreshToken: "r1", ExpiresAt: int64Ptr(0),
		}),
	}
	_, err := f.accounts.Upsert(context.Background(), &model.LinkedAccount{
		ProjectID: f.project.ID, AppName: "GITHUB", LinkedAccountOwnerID: "user-1", SecurityScheme: security.OAuth2,
	})
	require.NoError(t, err)

	result, err := f.execute()
	require.NoError(t, err)
	assert.True(t, result.Success)

	app, err := f.apps.GetByName(context.Background(), "GITHUB")
	require.NoError(t, err)
	defaults, err := app.DefaultCredentials(security.OAuth2)
	require.NoError(t, err)
	assert.Equal(t, "new", defaults.(security.OAuth2Credentials).AccessToken)
	assert.True(t, f.usageLog.functions[0].IsAppDefault)
}

func TestExecuteProceedsWhenWriteBackFails(t *testing.T) {
	f, _ := newFunctionFixture(t)
	account := f.link(t, security.OAuth2Credentials{AccessToken: "old", RefreshToken: "r1", ExpiresAt: int64Ptr(0)})
	f.accounts.updateErr = errStoreDown

	result, err := f.execute()
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "refreshed credentials could not be persisted", result.Warning)
	assert.Equal(t, "Bearer new", f.authorization.Load())

	stored, err := f.accounts.stored(account.ID).Credentials()
	require.NoError(t, err)
	assert.Equal(t, "old", stored.(security.OAuth2Credentials).AccessToken)
}

func TestExecuteRejections(t *testing.T) {
	f, _ := newFunctionFixture(t)

	_, err := f.service.Execute(context.Background(), f.project, "GITHUB__UNKNOWN", &dto.ExecuteFunctionDto{LinkedAccountOwnerID: "user-1"})
	assert.True(t, cErr.HasCode(err, cErr.NOT_FOUND))

	_, err = f.execute()
	assert.True(t, cErr.HasCode(err, cErr.NOT_FOUND))

	account := f.link(t, security.OAuth2Credentials{AccessToken: "valid"})
	require.NoError(t, f.accounts.SetEnabled(context.Background(), f.project.ID, account.ID, false))
	_, err = f.execute()
	assert.True(t, cErr.HasCode(err, cErr.LINKED_ACCOUNT_DISABLED))
}

func TestExecuteSurfacesRefreshFailure(t *testing.T) {
	f, _ := newFunctionFixture(t)
	f.link(t, security.OAuth2Credentials{AccessToken: "old", ExpiresAt: int64Ptr(0)})

	_, err := f.execute()
	assert.True(t, cErr.HasCode(err, cErr.OAUTH2_ERROR))
	require.Len(t, f.usageLog.functions, 1)
	assert.NotEmpty(t, f.usageLog.functions[0].Error)
	assert.Nil(t, f.authorization.Load())
}
