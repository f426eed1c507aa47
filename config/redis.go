package config

import (
	"fmt"
	"time"
)

type Redis struct {
	Host     string `mapstructure:"HOST" json:"host" yaml:"host"`
	Port     int    `mapstructure:"PORT" json:"port" yaml:"port"`
	Password string `mapstructure:"PASSWORD" json:"password" yaml:"password"`
	DB       int    `mapstructure:"DB" json:"db" yaml:"db"`
	// 額度 Lua script 與 OAuth2 state 的單次操作逾時（毫秒）
	OperationTimeout int64 `mapstructure:"OPERATION_TIMEOUT" json:"operationTimeout" yaml:"operationTimeout"`
}

func (r Redis) Addr() string {
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	port := r.Port
	if port == 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", host, port)
}

func (r Redis) Timeout() time.Duration {
	if r.OperationTimeout <= 0 {
		return 3 * time.Second
	}
	return time.Duration(r.OperationTimeout) * time.Millisecond
}
