package config

import "strings"

type MongoDB struct {
	URI string `mapstructure:"URI" json:"uri" yaml:"uri"`
	// 附加在 URI 後的連線參數，例如 retryWrites=true&w=majority
	Options string `mapstructure:"OPTIONS" json:"options" yaml:"options"`
}

// ConnectionURI 合併 URI 與 Options
func (m MongoDB) ConnectionURI() string {
	if m.Options == "" {
		return m.URI
	}
	if strings.Contains(m.URI, "?") {
		return m.URI + "&" + m.Options
	}
	return m.URI + "?" + m.Options
}
