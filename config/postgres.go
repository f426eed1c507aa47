package config

import "time"

type Postgres struct {
	DSN             string `mapstructure:"DSN" json:"dsn" yaml:"dsn"`
	MaxOpenConns    int    `mapstructure:"MAX_OPEN_CONNS" json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"MAX_IDLE_CONNS" json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"CONN_MAX_LIFETIME" json:"conn_max_lifetime" yaml:"conn_max_lifetime"` // 秒
}

// OpenConns 預設 50
func (p Postgres) OpenConns() int {
	if p.MaxOpenConns <= 0 {
		return 50
	}
	return p.MaxOpenConns
}

func (p Postgres) IdleConns() int {
	if p.MaxIdleConns <= 0 {
		return 25
	}
	return p.MaxIdleConns
}

func (p Postgres) ConnLifetime() time.Duration {
	if p.ConnMaxLifetime <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(p.ConnMaxLifetime) * time.Second
}
