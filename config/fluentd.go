package config

import "time"

type Fluentd struct {
	// 空值時停用 fluentd，改用 noop client
	Host      string `mapstructure:"HOST" json:"host" yaml:"host"`
	Port      int    `mapstructure:"PORT" json:"port" yaml:"port"`
	TagPrefix string `mapstructure:"TAG_PREFIX" json:"tagPrefix" yaml:"tagPrefix"`
	Timeout   int64  `mapstructure:"TIMEOUT" json:"timeout" yaml:"timeout"` // 毫秒
}

func (f Fluentd) Prefix() string {
	if f.TagPrefix == "" {
		return "toolhub"
	}
	return f.TagPrefix
}

func (f Fluentd) TimeoutDuration() time.Duration {
	if f.Timeout <= 0 {
		return 0
	}
	return time.Duration(f.Timeout) * time.Millisecond
}
