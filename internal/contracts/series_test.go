package contracts

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNormalizeDate(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	in := time.Date(2024, 3, 5, 23, 59, 0, 0, kst)

	got := NormalizeDate(in)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
		openEnd bool
	}{
		{"both bounds", "2022-01-01", "2022-12-31", false, false},
		{"open end", "2022-01-01", "", false, true},
		{"fully open", "", "", false, true},
		{"bad start", "01/01/2022", "", true, false},
		{"end before start", "2022-02-01", "2022-01-01", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ParseDateRange(tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.openEnd, rng.OpenEnd())
		})
	}
}

func TestDateRange_Contains(t *testing.T) {
	rng := DateRange{Start: day("2022-01-03"), End: day("2022-01-05")}

	assert.False(t, rng.Contains(day("2022-01-02")))
	assert.True(t, rng.Contains(day("2022-01-03")))
	assert.True(t, rng.Contains(day("2022-01-05")))
	assert.False(t, rng.Contains(day("2022-01-06")))

	open := DateRange{Start: day("2022-01-03")}
	assert.True(t, open.Contains(day("2030-01-01")))
	assert.Equal(t, "2022-01-03..latest", open.String())
}

func TestParseValueFormat(t *testing.T) {
	f, err := ParseValueFormat("Prices")
	require.NoError(t, err)
	assert.Equal(t, FormatPrices, f)

	f, err = ParseValueFormat("returns")
	require.NoError(t, err)
	assert.Equal(t, FormatReturns, f)

	_, err = ParseValueFormat("levels")
	assert.Error(t, err)
}

func TestPoint_JSONRoundTrip(t *testing.T) {
	in := []Point{
		{Date: day("2022-01-03"), Value: 0.01},
		{Date: day("2022-01-04"), Value: math.NaN()},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"date":"2022-01-03","value":0.01},{"date":"2022-01-04","value":null}]`, string(data))

	var out []Point
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 2)
	assert.Equal(t, in[0], out[0])
	assert.True(t, math.IsNaN(out[1].Value))
}

func TestWeightVector(t *testing.T) {
	w := WeightVector{{Ticker: "SPY", Value: 0.6}, {Ticker: "TLT", Value: 0.4}}

	assert.InDelta(t, 1.0, w.Sum(), 1e-12)
	assert.Equal(t, []string{"SPY", "TLT"}, w.Tickers())

	v, ok := w.Get("TLT")
	assert.True(t, ok)
	assert.Equal(t, 0.4, v)

	_, ok = w.Get("GLD")
	assert.False(t, ok)
}
