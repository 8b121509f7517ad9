package portfolio

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// WeightTolerance is the absolute tolerance on the weight sum
const WeightTolerance = 1e-6

// ParseTickers splits "AAPL, spy" into ["AAPL", "SPY"], dropping empty items
func ParseTickers(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.ToUpper(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

type rawWeight struct {
	ticker string
	value  string
}

// Resolve validates a weight specification against the ticker list.
//
// spec is empty (equal weight), keyed ("SPY=0.6,TLT=0.4") or positional
// ("0.6,0.4", aligned with tickers). Checks run in order: unknown ticker,
// missing/duplicate weight, invalid weight, sum. Nothing is renormalized.
// ⭐ SSOT: 포트폴리오 비중 검증은 여기서만 (I/O 이전에 호출)
func Resolve(tickers []string, spec string) (contracts.WeightVector, error) {
	list, err := normalizeTickers(tickers)
	if err != nil {
		return nil, err
	}

	spec = strings.TrimSpace(spec)
	if spec == "" {
		w := 1.0 / float64(len(list))
		out := make(contracts.WeightVector, len(list))
		for i, t := range list {
			out[i] = contracts.Weight{Ticker: t, Value: w}
		}
		return out, nil
	}

	raws, err := parseWeightSpec(spec, list)
	if err != nil {
		return nil, err
	}

	// (a) 알 수 없는 종목
	member := make(map[string]bool, len(list))
	for _, t := range list {
		member[t] = true
	}
	for _, r := range raws {
		if !member[r.ticker] {
			return nil, &contracts.WeightValidationError{
				Kind: contracts.UnknownTicker, Ticker: r.ticker,
				Detail: fmt.Sprintf("not in ticker list %v", list),
			}
		}
	}

	// (b) 종목당 정확히 하나의 비중
	byTicker := make(map[string][]string, len(raws))
	for _, r := range raws {
		byTicker[r.ticker] = append(byTicker[r.ticker], r.value)
	}
	for _, t := range list {
		switch n := len(byTicker[t]); {
		case n == 0:
			return nil, &contracts.WeightValidationError{
				Kind: contracts.MissingWeight, Ticker: t, Detail: "no weight given",
			}
		case n > 1:
			return nil, &contracts.WeightValidationError{
				Kind: contracts.DuplicateWeight, Ticker: t, Detail: fmt.Sprintf("%d weights given", n),
			}
		}
	}

	// (c) 유한하고 0 이상
	out := make(contracts.WeightVector, len(list))
	for i, t := range list {
		raw := byTicker[t][0]
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, &contracts.WeightValidationError{
				Kind: contracts.InvalidWeight, Ticker: t,
				Detail: fmt.Sprintf("weight %q must be a finite number >= 0", raw),
			}
		}
		out[i] = contracts.Weight{Ticker: t, Value: v}
	}

	// (d) 합계 1.0
	if sum := out.Sum(); math.Abs(sum-1.0) > WeightTolerance {
		return nil, &contracts.WeightValidationError{
			Kind:   contracts.WeightSumError,
			Detail: fmt.Sprintf("weights sum to %.6g, expected 1.0", sum),
		}
	}

	return out, nil
}

func normalizeTickers(tickers []string) ([]string, error) {
	var list []string
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if seen[t] {
			return nil, &contracts.WeightValidationError{
				Kind: contracts.DuplicateTicker, Ticker: t, Detail: "ticker listed more than once",
			}
		}
		seen[t] = true
		list = append(list, t)
	}

	if len(list) == 0 {
		return nil, &contracts.WeightValidationError{Kind: contracts.EmptyTickers, Detail: "no tickers given"}
	}
	return list, nil
}

// parseWeightSpec splits the spec into (ticker, raw value) pairs.
// Positional tokens keep their slot: "0.5,,0.5" leaves the second ticker without a weight.
func parseWeightSpec(spec string, tickers []string) ([]rawWeight, error) {
	tokens := strings.Split(spec, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	// 끝의 쉼표 하나는 허용
	if n := len(tokens); n > 1 && tokens[n-1] == "" {
		tokens = tokens[:n-1]
	}

	keyed, filled := 0, 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		filled++
		if strings.Contains(tok, "=") {
			keyed++
		}
	}
	if keyed > 0 && keyed < filled {
		return nil, &contracts.WeightValidationError{
			Kind: contracts.MixedSyntax, Detail: "use either TICKER=weight pairs or a positional list, not both",
		}
	}

	raws := make([]rawWeight, 0, len(tokens))
	if keyed > 0 {
		for _, tok := range tokens {
			if tok == "" {
				continue
			}
			k, v, _ := strings.Cut(tok, "=")
			raws = append(raws, rawWeight{
				ticker: strings.ToUpper(strings.TrimSpace(k)),
				value:  strings.TrimSpace(v),
			})
		}
		return raws, nil
	}

	if len(tokens) > len(tickers) {
		return nil, &contracts.WeightValidationError{
			Kind:   contracts.UnknownTicker,
			Detail: fmt.Sprintf("%d positional weights for %d tickers", len(tokens), len(tickers)),
		}
	}
	for i, tok := range tokens {
		if tok == "" {
			continue // 빈 자리는 MissingWeight
		}
		raws = append(raws, rawWeight{ticker: tickers[i], value: tok})
	}
	return raws, nil
}
