package config

import "time"

type Executor struct {
	TimeoutSeconds   int   `mapstructure:"TIMEOUT_SECONDS" json:"timeout_seconds" yaml:"timeout_seconds"`
	MaxResponseBytes int64 `mapstructure:"MAX_RESPONSE_BYTES" json:"max_response_bytes" yaml:"max_response_bytes"`
}

func (e Executor) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

func (e Executor) ResponseLimit() int64 {
	if e.MaxResponseBytes <= 0 {
		return 10 << 20
	}
	return e.MaxResponseBytes
}
