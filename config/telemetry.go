package config

type TelemetryConfig struct {
	Metric struct {
		Enabled bool      `yaml:"enabled" mapstructure:"ENABLED" json:"enabled"`
		Buckets []float64 `yaml:"buckets" mapstructure:"BUCKETS" json:"buckets"`
	} `yaml:"metric" mapstructure:"METRIC" json:"metric"`
	Trace struct {
		Enabled     bool   `yaml:"enabled" mapstructure:"ENABLED" json:"enabled"`
		EndpointUrl string `yaml:"endpointUrl" mapstructure:"ENDPOINT_URL" json:"endpointUrl"`
		// 0 或未設定視為全部取樣
		SampleRatio float64 `yaml:"sampleRatio" mapstructure:"SAMPLE_RATIO" json:"sampleRatio"`
		// collector 走 https 時設為 false
		Insecure *bool `yaml:"insecure" mapstructure:"INSECURE" json:"insecure"`
	} `yaml:"trace" mapstructure:"TRACE" json:"trace"`
}

func (t TelemetryConfig) TraceSampleRatio() float64 {
	if t.Trace.SampleRatio <= 0 || t.Trace.SampleRatio > 1 {
		return 1
	}
	return t.Trace.SampleRatio
}

func (t TelemetryConfig) TraceInsecure() bool {
	return t.Trace.Insecure == nil || *t.Trace.Insecure
}
