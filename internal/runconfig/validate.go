package runconfig

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the run spec shape. Weights are checked by the runner before any I/O.
func Validate(cfg *Config) error {
	// === Sides ===
	if err := validateSide("portfolio", cfg.Portfolio); err != nil {
		return err
	}
	if err := validateSide("benchmark", cfg.Benchmark); err != nil {
		return err
	}

	// === Range ===
	if cfg.Range.Start != "" {
		if _, err := contracts.ParseDate(cfg.Range.Start); err != nil {
			return ValidationError{"range.start", "must be YYYY-MM-DD"}
		}
	}
	if cfg.Range.End != "" {
		if _, err := contracts.ParseDate(cfg.Range.End); err != nil {
			return ValidationError{"range.end", "must be YYYY-MM-DD"}
		}
	}
	if _, err := contracts.ParseDateRange(cfg.Range.Start, cfg.Range.End); err != nil {
		return ValidationError{"range", err.Error()}
	}

	// === Run ===
	if cfg.CacheDays != nil && *cfg.CacheDays < 0 {
		return ValidationError{"cache_days", "must be >= 0"}
	}
	if cfg.InitialCapital < 0 || math.IsNaN(cfg.InitialCapital) || math.IsInf(cfg.InitialCapital, 0) {
		return ValidationError{"initial_capital", "must be > 0"}
	}

	// === Metrics ===
	if cfg.Metrics.Window != 0 && cfg.Metrics.Window < 2 {
		return ValidationError{"metrics.window", "must be >= 2"}
	}
	if cfg.Metrics.PeriodsPerYear < 0 {
		return ValidationError{"metrics.periods_per_year", "must be >= 1"}
	}
	if cfg.Metrics.VaRConfidence < 0 || cfg.Metrics.VaRConfidence >= 1 {
		return ValidationError{"metrics.var_confidence", "must be in (0, 1)"}
	}
	if math.IsNaN(cfg.Metrics.RiskFreeRate) || math.IsInf(cfg.Metrics.RiskFreeRate, 0) {
		return ValidationError{"metrics.risk_free_rate", "must be finite"}
	}

	return nil
}

func validateSide(field string, s Side) error {
	hasTickers := len(s.Tickers) > 0
	hasCSV := s.CSV != nil

	switch {
	case hasTickers && hasCSV:
		return ValidationError{field, "tickers and csv are mutually exclusive"}
	case !hasTickers && !hasCSV:
		return ValidationError{field, "one of tickers or csv is required"}
	case hasCSV:
		if s.CSV.Path == "" {
			return ValidationError{field + ".csv.path", "required"}
		}
		if _, err := s.CSV.format(); err != nil {
			return ValidationError{field + ".csv.format", "must be returns or prices"}
		}
		if s.Weights != "" {
			return ValidationError{field + ".weights", "only valid with tickers"}
		}
	}
	return nil
}
