package config

type App struct {
	// 當前開發環境
	Env string `mapstructure:"ENV" json:"env" yaml:"env"`
	// 服務端口
	Port uint32 `mapstructure:"PORT" json:"port" yaml:"port"`
	// 服務名稱
	Name string `mapstructure:"NAME" json:"name" yaml:"name"`
	// 服務版本
	Version string `mapstructure:"VERSION" json:"version" yaml:"version"`
	// Secret Key 用於簽發專案 API Key
	SecretKey string `mapstructure:"SECRET_KEY" json:"secret_key" yaml:"secret_key"`
	// 管理後台 JWT 簽章用
	AdminJWTSecret string `mapstructure:"ADMIN_JWT_SECRET" json:"admin_jwt_secret" yaml:"admin_jwt_secret"`
	SwaggerEnabled bool   `mapstructure:"SWAGGER_ENABLED" json:"swagger_enabled" yaml:"swagger_enabled"`
	PprofEnabled   bool   `mapstructure:"PPROF_ENABLED" json:"pprof_enabled" yaml:"pprof_enabled"`
	// 逗號分隔，空值代表允許所有來源
	CorsAllowOrigins []string `mapstructure:"CORS_ALLOW_ORIGINS" json:"cors_allow_origins" yaml:"cors_allow_origins"`
}
