// Package security holds the security scheme configurations an app can
// declare and the credential variants stored for each of them.
package security

import "fmt"

// Scheme 為 app 與 linked account 共用的驗證方式標籤
type Scheme string

const (
	APIKey Scheme = "api_key"
	OAuth2 Scheme = "oauth2"
	NoAuth Scheme = "no_auth"
)

func ParseScheme(value string) (Scheme, error) {
	switch Scheme(value) {
	case APIKey, OAuth2, NoAuth:
		return Scheme(value), nil
	default:
		return "", fmt.Errorf("unknown security scheme %q", value)
	}
}

// Location 指出憑證要注入到請求的哪個部位
type Location string

const (
	LocationHeader Location = "header"
	LocationQuery  Location = "query"
	LocationBody   Location = "body"
	LocationCookie Location = "cookie"
)

// token endpoint 的 client 驗證方式
const (
	AuthMethodClientSecretBasic = "client_secret_basic"
	AuthMethodClientSecretPost  = "client_secret_post"
	AuthMethodNone              = "none"
)

// SchemeConfig 是 app 對某個 scheme 的設定
type SchemeConfig interface {
	Type() Scheme
}

type APIKeyScheme struct {
	Location Location `json:"location" bson:"location" binding:"required,oneof=header query body cookie"`
	Name     string   `json:"name" bson:"name" binding:"required"`
	Prefix   string   `json:"prefix,omitempty" bson:"prefix,omitempty"`
	// 設定時覆寫 function 的 server_url
	APIHostURL string `json:"api_host_url,omitempty" bson:"api_host_url,omitempty"`
}

func (APIKeyScheme) Type() Scheme { return APIKey }

type OAuth2Scheme struct {
	Location                Location `json:"location" bson:"location" binding:"required,oneof=header query body cookie"`
	Name                    string   `json:"name" bson:"name" binding:"required"`
	Prefix                  string   `json:"prefix,omitempty" bson:"prefix,omitempty"`
	ClientID                string   `json:"client_id" bson:"client_id" binding:"required"`
	ClientSecret            string   `json:"client_secret" bson:"client_secret"`
	Scope                   string   `json:"scope" bson:"scope"`
	AuthorizeURL            string   `json:"authorize_url" bson:"authorize_url" binding:"required,url"`
	AccessTokenURL          string   `json:"access_token_url" bson:"access_token_url" binding:"required,url"`
	RefreshTokenURL         string   `json:"refresh_token_url" bson:"refresh_token_url" binding:"required,url"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty" bson:"token_endpoint_auth_method,omitempty"`
}

func (OAuth2Scheme) Type() Scheme { return OAuth2 }

type NoAuthScheme struct{}

func (NoAuthScheme) Type() Scheme { return NoAuth }

// SchemeConfigs 以 scheme 為 key 的設定集合，未宣告的 scheme 為 nil
type SchemeConfigs struct {
	APIKey *APIKeyScheme `json:"api_key,omitempty" bson:"api_key,omitempty"`
	OAuth2 *OAuth2Scheme `json:"oauth2,omitempty" bson:"oauth2,omitempty"`
	NoAuth *NoAuthScheme `json:"no_auth,omitempty" bson:"no_auth,omitempty"`
}

// Get 取出指定 scheme 的設定
func (c SchemeConfigs) Get(scheme Scheme) (SchemeConfig, bool) {
	switch scheme {
	case APIKey:
		if c.APIKey != nil {
			return *c.APIKey, true
		}
	case OAuth2:
		if c.OAuth2 != nil {
			return *c.OAuth2, true
		}
	case NoAuth:
		if c.NoAuth != nil {
			return *c.NoAuth, true
		}
	}
	return nil, false
}

// Schemes 依固定順序列出已宣告的 scheme
func (c SchemeConfigs) Schemes() []Scheme {
	var out []Scheme
	if c.APIKey != nil {
		out = append(out, APIKey)
	}
	if c.OAuth2 != nil {
		out = append(out, OAuth2)
	}
	if c.NoAuth != nil {
		out = append(out, NoAuth)
	}
	return out
}
