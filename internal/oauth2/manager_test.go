package oauth2

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	cErr "toolhub/internal/pkg/error"
	"toolhub/internal/security"
	"toolhub/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	form     url.Values
	user     string
	password string
	hasBasic bool
	accept   string
}

func newTokenServer(t *testing.T, status int, body any, captured *capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if captured != nil {
			captured.form = r.PostForm
			captured.user, captured.password, captured.hasBasic = r.BasicAuth()
			captured.accept = r.Header.Get("Accept")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestManager(method, tokenURL string) *Manager {
	return NewManager(&telemetry.Trace{}, Config{
		ClientID:                "client id",
		ClientSecret:            "s3cr:et",
		Scope:                   "read write",
		AuthorizeURL:            "https://provider.example.com/authorize?tenant=1",
		AccessTokenURL:          tokenURL,
		RefreshTokenURL:         tokenURL,
		TokenEndpointAuthMethod: method,
	}, &http.Client{Timeout: 2 * time.Second})
}

func TestRefreshTokenClientSecretBasic(t *testing.T) {
	captured := &capturedRequest{}
	server := newTokenServer(t, http.StatusOK, map[string]any{"access_token": "A2", "expires_in": 3600}, captured)
	manager := newTestManager(security.AuthMethodClientSecretBasic, server.URL)

	token, err := manager.RefreshToken(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "A2", token.AccessToken())

	assert.True(t, captured.hasBasic)
	assert.Equal(t, url.QueryEscape("client id"), captured.user)
	assert.Equal(t, url.QueryEscape("s3cr:et"), captured.password)
	assert.Equal(t, "refresh_token", captured.form.Get("grant_type"))
	assert.Equal(t, "R1", captured.form.Get("refresh_token"))
	assert.Empty(t, captured.form.Get("client_secret"))
	assert.Equal(t, "application/json", captured.accept)
}

func TestRefreshTokenClientSecretPost(t *testing.T) {
	captured := &capturedRequest{}
	server := newTokenServer(t, http.StatusOK, map[string]any{"access_token": "A2"}, captured)
	manager := newTestManager(security.AuthMethodClientSecretPost, server.URL)

	_, err := manager.RefreshToken(context.Background(), "R1")
	require.NoError(t, err)
	assert.False(t, captured.hasBasic)
	assert.Equal(t, "client id", captured.form.Get("client_id"))
	assert.Equal(t, "s3cr:et", captured.form.Get("client_secret"))
}

func TestRefreshTokenNoneSendsOnlyClientID(t *testing.T) {
	captured := &capturedRequest{}
	server := newTokenServer(t, http.StatusOK, map[string]any{"access_token": "A2"}, captured)
	manager := newTestManager(security.AuthMethodNone, server.URL)

	_, err := manager.RefreshToken(context.Background(), "R1")
	require.NoError(t, err)
	assert.False(t, captured.hasBasic)
	assert.Equal(t, "client id", captured.form.Get("client_id"))
	_, hasSecret := captured.form["client_secret"]
	assert.False(t, hasSecret)
}

func TestRefreshTokenErrors(t *testing.T) {
	t.Run("non 2xx", func(t *testing.T) {
		server := newTokenServer(t, http.StatusBadRequest, map[string]any{"error": "invalid_grant"}, nil)
		_, err := newTestManager("", server.URL).RefreshToken(context.Background(), "R1")
		assert.True(t, cErr.HasCode(err, cErr.OAUTH2_ERROR))
	})
	t.Run("missing access token", func(t *testing.T) {
		server := newTokenServer(t, http.StatusOK, map[string]any{"token_type": "Bearer"}, nil)
		_, err := newTestManager("", server.URL).RefreshToken(context.Background(), "R1")
		assert.True(t, cErr.HasCode(err, cErr.OAUTH2_ERROR))
	})
	t.Run("unreachable", func(t *testing.T) {
		server := newTokenServer(t, http.StatusOK, nil, nil)
		server.Close()
		_, err := newTestManager("", server.URL).RefreshToken(context.Background(), "R1")
		assert.True(t, cErr.HasCode(err, cErr.OAUTH2_ERROR))
	})
	t.Run("unknown auth method", func(t *testing.T) {
		_, err := newTestManager("private_key_jwt", "http://127.0.0.1:1").RefreshToken(context.Background(), "R1")
		assert.True(t, cErr.HasCode(err, cErr.NO_IMPLEMENTATION_FOUND))
	})
}

func TestExchangeCodeForTokenSendsVerifier(t *testing.T) {
	captured := &capturedRequest{}
	server := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token": "A1", "refresh_token": "R1", "expires_at": 1_700_000_000,
	}, captured)
	manager := newTestManager(security.AuthMethodClientSecretPost, server.URL)

	token, err := manager.ExchangeCodeForToken(context.Background(), "code-1", "https://app/callback", "verifier")
	require.NoError(t, err)
	assert.Equal(t, "authorization_code", captured.form.Get("grant_type"))
	assert.Equal(t, "code-1", captured.form.Get("code"))
	assert.Equal(t, "verifier", captured.form.Get("code_verifier"))
	assert.Equal(t, "https://app/callback", captured.form.Get("redirect_uri"))

	creds, err := manager.CredentialsFromToken(token, time.Unix(1_600_000_000, 0))
	require.NoError(t, err)
	assert.Equal(t, "R1", creds.RefreshToken)
	assert.Equal(t, "read write", creds.Scope)
	require.NotNil(t, creds.ExpiresAt)
	assert.Equal(t, int64(1_700_000_000), *creds.ExpiresAt)
}

func TestFormEncodedTokenResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("access_token=A9&token_type=bearer&expires_in=60"))
	}))
	defer server.Close()

	token, err := newTestManager("", server.URL).RefreshToken(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "A9", token.AccessToken())

	expiresAt, err := ExpiresAt(token, time.Unix(100, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(160), expiresAt)
}

func TestExpiresAt(t *testing.T) {
	now := time.Unix(1000, 0)

	value, err := ExpiresAt(TokenResponse{"expires_at": float64(5000), "expires_in": float64(10)}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), value)

	value, err = ExpiresAt(TokenResponse{"expires_in": float64(3600)}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4600), value)

	_, err = ExpiresAt(TokenResponse{"access_token": "A"}, now)
	assert.True(t, cErr.HasCode(err, cErr.OAUTH2_ERROR))
}

func TestBuildAuthorizationURL(t *testing.T) {
	manager := newTestManager("", "http://unused")
	authURL, err := manager.BuildAuthorizationURL("state-1", "https://app/callback", "verifier-123")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "provider.example.com", parsed.Host)
	assert.Equal(t, "1", query.Get("tenant"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "client id", query.Get("client_id"))
	assert.Equal(t, "read write", query.Get("scope"))
	assert.Equal(t, "state-1", query.Get("state"))
	assert.Equal(t, CodeChallenge("verifier-123"), query.Get("code_challenge"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.Equal(t, "offline", query.Get("access_type"))
}

func TestCodeVerifierAndChallenge(t *testing.T) {
	verifier, err := NewCodeVerifier()
	require.NoError(t, err)
	assert.Len(t, verifier, 43)
	// RFC 7636 appendix B
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", CodeChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"))
}
