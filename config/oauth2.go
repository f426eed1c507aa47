package config

import "time"

type OAuth2 struct {
	// token endpoint 呼叫逾時（秒）
	TimeoutSeconds int `mapstructure:"TIMEOUT_SECONDS" json:"timeout_seconds" yaml:"timeout_seconds"`
	// state JWT 簽章金鑰，未設定時沿用 APP.SECRET_KEY
	StateSecret string `mapstructure:"STATE_SECRET" json:"state_secret" yaml:"state_secret"`
	// state 有效秒數
	StateTTLSeconds int `mapstructure:"STATE_TTL_SECONDS" json:"state_ttl_seconds" yaml:"state_ttl_seconds"`
	// 授權完成後 provider 導回的 callback URL
	RedirectURL string `mapstructure:"REDIRECT_URL" json:"redirect_url" yaml:"redirect_url"`
}

func (o OAuth2) Timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

func (o OAuth2) StateTTL() time.Duration {
	if o.StateTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(o.StateTTLSeconds) * time.Second
}
