package oauth2

import (
	"errors"
	"time"

	cErr "toolhub/internal/pkg/error"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// StateClaims 授權流程往返 provider 時攜帶的 state。
// code_verifier 不放在這裡，而是以 ID (jti) 為 key 存在 redis。
type StateClaims struct {
	ProjectID          string `json:"project_id"`
	AppName            string `json:"app_name"`
	LinkedAccountOwner string `json:"linked_account_owner_id"`
	RedirectURI        string `json:"redirect_uri"`
	AfterOAuth2LinkURL string `json:"after_oauth2_link_redirect_url,omitempty"`
	jwt.RegisteredClaims
}

// SignState 產生 HS256 state，回傳 token 與其 jti
func SignState(secret string, claims StateClaims, now time.Time, ttl time.Duration) (string, string, error) {
	if secret == "" {
		return "", "", cErr.InternalServer("oauth2 state secret is not configured")
	}
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", cErr.InternalServer(err.Error())
	}
	return token, claims.ID, nil
}

// ParseState 驗證簽章與期限
func ParseState(secret, state string) (*StateClaims, error) {
	claims := &StateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, cErr.InvalidOAuth2State("invalid or expired oauth2 state")
	}
	if claims.ID == "" || claims.ProjectID == "" || claims.AppName == "" {
		return nil, cErr.InvalidOAuth2State("incomplete oauth2 state")
	}
	return claims, nil
}
