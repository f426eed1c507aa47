package oauth2

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	cErr "toolhub/internal/pkg/error"
)

// TokenResponse 保留 provider 原樣回傳的欄位
type TokenResponse map[string]any

func (t TokenResponse) stringValue(key string) string {
	switch value := t[key].(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		return ""
	}
}

func (t TokenResponse) AccessToken() string  { return t.stringValue("access_token") }
func (t TokenResponse) RefreshToken() string { return t.stringValue("refresh_token") }
func (t TokenResponse) TokenType() string    { return t.stringValue("token_type") }
func (t TokenResponse) Scope() string        { return t.stringValue("scope") }

// ExpiresAt 正規化到期時間：優先使用 expires_at，其次 now + expires_in。
// 兩者皆無視為 provider 回應不完整。
func ExpiresAt(token TokenResponse, now time.Time) (int64, error) {
	if expiresAt, ok := numberField(token, "expires_at"); ok {
		return expiresAt, nil
	}
	if expiresIn, ok := numberField(token, "expires_in"); ok {
		return now.Unix() + expiresIn, nil
	}
	return 0, cErr.OAuth2Error("token response missing expires_at and expires_in")
}

func numberField(token TokenResponse, key string) (int64, bool) {
	switch value := token[key].(type) {
	case float64:
		return int64(math.Floor(value)), true
	case int64:
		return value, true
	case int:
		return int64(value), true
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0, false
		}
		return int64(math.Floor(parsed)), true
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return int64(math.Floor(parsed)), true
	default:
		return 0, false
	}
}
