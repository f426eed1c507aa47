package config

type Configuration struct {
	App       App             `mapstructure:"APP" json:"app" yaml:"app"`
	Redis     Redis           `mapstructure:"REDIS" json:"redis" yaml:"redis"`
	Log       Log             `mapstructure:"LOG" json:"log" yaml:"log"`
	MongoDB   MongoDB         `mapstructure:"MONGODB" json:"mongodb" yaml:"mongodb"`
	Postgres  Postgres        `mapstructure:"POSTGRES" json:"postgres" yaml:"postgres"`
	Quota     Quota           `mapstructure:"QUOTA" json:"quota" yaml:"quota"`
	OAuth2    OAuth2          `mapstructure:"OAUTH2" json:"oauth2" yaml:"oauth2"`
	Executor  Executor        `mapstructure:"EXECUTOR" json:"executor" yaml:"executor"`
	Telemetry TelemetryConfig `mapstructure:"TELEMETRY" yaml:"telemetry"`
	Fluentd   Fluentd         `mapstructure:"FLUENTD" yaml:"fluentd"`
}
