package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrSchemeMismatch   = errors.New("credentials do not match security scheme")
	ErrUnexpectedFields = errors.New("no_auth credentials must be empty")
)

// Credentials 是封閉的 tagged union，只有本 package 的型別能實作
type Credentials interface {
	Scheme() Scheme
	sealed()
}

type APIKeyCredentials struct {
	SecretKey string `json:"secret_key" bson:"secret_key"`
}

func (APIKeyCredentials) Scheme() Scheme { return APIKey }
func (APIKeyCredentials) sealed()        {}

type OAuth2Credentials struct {
	ClientID     string `json:"client_id" bson:"client_id"`
	ClientSecret string `json:"client_secret" bson:"client_secret"`
	Scope        string `json:"scope" bson:"scope"`
	AccessToken  string `json:"access_token" bson:"access_token"`
	TokenType    string `json:"token_type,omitempty" bson:"token_type,omitempty"`
	// epoch 秒；nil 代表 provider 未提供期限
	ExpiresAt        *int64         `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	RefreshToken     string         `json:"refresh_token,omitempty" bson:"refresh_token,omitempty"`
	RawTokenResponse map[string]any `json:"raw_token_response,omitempty" bson:"raw_token_response,omitempty"`
}

func (OAuth2Credentials) Scheme() Scheme { return OAuth2 }
func (OAuth2Credentials) sealed()        {}

// Expired 只有在 expires_at 存在且早於 now 時為 true
func (c OAuth2Credentials) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && *c.ExpiresAt < now.Unix()
}

type NoAuthCredentials struct{}

func (NoAuthCredentials) Scheme() Scheme { return NoAuth }
func (NoAuthCredentials) sealed()        {}

// IsEmpty 判斷憑證是否等同未設定
func IsEmpty(credentials Credentials) bool {
	switch c := credentials.(type) {
	case nil:
		return true
	case APIKeyCredentials:
		return c.SecretKey == ""
	case *APIKeyCredentials:
		return c == nil || c.SecretKey == ""
	case OAuth2Credentials:
		return c.AccessToken == ""
	case *OAuth2Credentials:
		return c == nil || c.AccessToken == ""
	default:
		return false
	}
}

// Decode 依 scheme 把儲存的 bson 文件還原成對應的憑證型別。
// raw 為空時回傳 nil, nil（代表未設定）。
func Decode(scheme Scheme, raw bson.Raw) (Credentials, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	switch scheme {
	case APIKey:
		var credentials APIKeyCredentials
		if err := bson.Unmarshal(raw, &credentials); err != nil {
			return nil, fmt.Errorf("decode api_key credentials: %w", err)
		}
		return credentials, nil
	case OAuth2:
		var credentials OAuth2Credentials
		if err := bson.Unmarshal(raw, &credentials); err != nil {
			return nil, fmt.Errorf("decode oauth2 credentials: %w", err)
		}
		return credentials, nil
	case NoAuth:
		elements, err := raw.Elements()
		if err != nil {
			return nil, fmt.Errorf("decode no_auth credentials: %w", err)
		}
		if len(elements) > 0 {
			return nil, ErrUnexpectedFields
		}
		return NoAuthCredentials{}, nil
	default:
		return nil, fmt.Errorf("unknown security scheme %q", scheme)
	}
}

// Encode 把憑證序列化成 bson 文件，scheme 必須與憑證型別一致
func Encode(scheme Scheme, credentials Credentials) (bson.Raw, error) {
	if credentials == nil {
		return nil, nil
	}
	if credentials.Scheme() != scheme {
		return nil, fmt.Errorf("%w: %s vs %s", ErrSchemeMismatch, scheme, credentials.Scheme())
	}
	data, err := bson.Marshal(credentials)
	if err != nil {
		return nil, err
	}
	return bson.Raw(data), nil
}

// DecodeJSON 解析 API 送進來的憑證，未知欄位一律拒絕
func DecodeJSON(scheme Scheme, data []byte) (Credentials, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.DisallowUnknownFields()
	switch scheme {
	case APIKey:
		var credentials APIKeyCredentials
		if err := decoder.Decode(&credentials); err != nil {
			return nil, err
		}
		return credentials, nil
	case OAuth2:
		var credentials OAuth2Credentials
		if err := decoder.Decode(&credentials); err != nil {
			return nil, err
		}
		return credentials, nil
	case NoAuth:
		var credentials NoAuthCredentials
		if err := decoder.Decode(&credentials); err != nil {
			return nil, ErrUnexpectedFields
		}
		return credentials, nil
	default:
		return nil, fmt.Errorf("unknown security scheme %q", scheme)
	}
}
