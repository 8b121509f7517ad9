package runconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/aegis-analytics/internal/analysis"
	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/metrics"
)

// Load reads a YAML run spec and returns the Config with raw bytes
// ⭐ KnownFields(true): 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read run spec: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, data, nil
}

// Parse decodes and validates YAML bytes
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Hash generates the SHA256 of the canonical JSON form
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// ToRequest converts a validated Config into an analysis request
func (c *Config) ToRequest() (analysis.Request, error) {
	rng, err := contracts.ParseDateRange(c.Range.Start, c.Range.End)
	if err != nil {
		return analysis.Request{}, ValidationError{"range", err.Error()}
	}

	port, err := c.Portfolio.input()
	if err != nil {
		return analysis.Request{}, err
	}
	bench, err := c.Benchmark.input()
	if err != nil {
		return analysis.Request{}, err
	}

	return analysis.Request{
		Portfolio:      port,
		Benchmark:      bench,
		Extras:         c.Extras,
		Range:          rng,
		CacheDays:      c.EffectiveCacheDays(),
		InitialCapital: c.InitialCapital,
		Options: metrics.Options{
			Window:         c.Metrics.Window,
			PeriodsPerYear: c.Metrics.PeriodsPerYear,
			RiskFreeRate:   c.Metrics.RiskFreeRate,
			VaRConfidence:  c.Metrics.VaRConfidence,
		},
	}, nil
}

func (s Side) input() (analysis.Input, error) {
	if s.CSV != nil {
		format, err := s.CSV.format()
		if err != nil {
			return nil, err
		}
		return analysis.CSVInput{Path: s.CSV.Path, Format: format}, nil
	}
	tickers := make([]string, 0, len(s.Tickers))
	for _, t := range s.Tickers {
		tickers = append(tickers, strings.TrimSpace(t))
	}
	return analysis.TickerInput{Tickers: tickers, Weights: s.Weights}, nil
}

// format defaults to returns when omitted
func (c *CSVSource) format() (contracts.ValueFormat, error) {
	if strings.TrimSpace(c.Format) == "" {
		return contracts.FormatReturns, nil
	}
	return contracts.ParseValueFormat(c.Format)
}
