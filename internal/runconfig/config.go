// Package runconfig loads YAML run specifications for the analyze command and API.
package runconfig

// DefaultCacheDays is used when cache_days is omitted
const DefaultCacheDays = 3

// Config is one analysis run described in YAML
type Config struct {
	Name           string   `yaml:"name" json:"name"`
	Portfolio      Side     `yaml:"portfolio" json:"portfolio"`
	Benchmark      Side     `yaml:"benchmark" json:"benchmark"`
	Extras         []string `yaml:"extras" json:"extras"`
	Range          Range    `yaml:"range" json:"range"`
	CacheDays      *int     `yaml:"cache_days" json:"cache_days"` // nil → DefaultCacheDays
	InitialCapital float64  `yaml:"initial_capital" json:"initial_capital"`
	Metrics        Metrics  `yaml:"metrics" json:"metrics"`
	Output         Output   `yaml:"output" json:"output"`
}

// Side is either a ticker basket or a CSV file, never both
type Side struct {
	Tickers []string   `yaml:"tickers" json:"tickers,omitempty"`
	Weights string     `yaml:"weights" json:"weights,omitempty"` // "SPY=0.6,TLT=0.4" | "0.6,0.4"
	CSV     *CSVSource `yaml:"csv" json:"csv,omitempty"`
}

type CSVSource struct {
	Path   string `yaml:"path" json:"path"`
	Format string `yaml:"format" json:"format"` // returns (default) | prices
}

// Range is YYYY-MM-DD bounds, empty means open
type Range struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Metrics overrides the engine options, zero keeps the default
type Metrics struct {
	Window         int     `yaml:"window" json:"window"`
	PeriodsPerYear int     `yaml:"periods_per_year" json:"periods_per_year"`
	RiskFreeRate   float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
	VaRConfidence  float64 `yaml:"var_confidence" json:"var_confidence"`
}

type Output struct {
	Dir    string   `yaml:"dir" json:"dir"`
	Export []string `yaml:"export" json:"export"`
}

// EffectiveCacheDays returns cache_days or the default
func (c *Config) EffectiveCacheDays() int {
	if c.CacheDays == nil {
		return DefaultCacheDays
	}
	return *c.CacheDays
}
