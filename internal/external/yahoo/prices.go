package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// chartResponse is the subset of the v8 chart payload we read
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchPrices downloads daily adjusted closes for ticker within rng.
// An empty result, API error or transport failure is a DataUnavailableError.
func (c *Client) FetchPrices(ctx context.Context, ticker string, rng contracts.DateRange) (contracts.PriceSeries, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	unavailable := func(err error) error {
		return &contracts.DataUnavailableError{Ticker: ticker, Range: rng, Err: err}
	}

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(c.period1(rng), 10))
	params.Set("period2", strconv.FormatInt(c.period2(rng), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,split")
	params.Set("includeAdjustedClose", "true")

	body, status, err := c.fetchJSON(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), params)
	if err != nil {
		return contracts.PriceSeries{}, unavailable(err)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		if status != http.StatusOK {
			return contracts.PriceSeries{}, unavailable(fmt.Errorf("unexpected status code: %d", status))
		}
		return contracts.PriceSeries{}, unavailable(fmt.Errorf("decode chart: %w", err))
	}
	if chart.Chart.Error != nil {
		return contracts.PriceSeries{}, unavailable(fmt.Errorf("api error %s: %s",
			chart.Chart.Error.Code, chart.Chart.Error.Description))
	}
	if status != http.StatusOK {
		return contracts.PriceSeries{}, unavailable(fmt.Errorf("unexpected status code: %d", status))
	}
	if len(chart.Chart.Result) == 0 {
		return contracts.PriceSeries{}, unavailable(fmt.Errorf("empty chart result"))
	}

	points := parseAdjClose(chart.Chart.Result[0])
	if len(points) == 0 {
		return contracts.PriceSeries{}, unavailable(fmt.Errorf("no adjusted close rows"))
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"rows":   len(points),
		"range":  rng.String(),
	}).Debug("Fetched prices from Yahoo")

	return contracts.PriceSeries{Ticker: ticker, Points: points}, nil
}

// parseAdjClose converts a chart result into ascending unique daily points.
// Null, non-positive and non-finite rows are skipped, a repeated day keeps the last row.
func parseAdjClose(r chartResult) []contracts.Point {
	if len(r.Indicators.AdjClose) == 0 {
		return nil
	}
	closes := r.Indicators.AdjClose[0].AdjClose
	offset := time.Duration(r.Meta.GMTOffset) * time.Second

	byDay := make(map[time.Time]float64, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		v := *closes[i]
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		// 거래소 현지 날짜 기준
		d := contracts.NormalizeDate(time.Unix(ts, 0).UTC().Add(offset))
		byDay[d] = v
	}

	points := make([]contracts.Point, 0, len(byDay))
	for d, v := range byDay {
		points = append(points, contracts.Point{Date: d, Value: v})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

func (c *Client) period1(rng contracts.DateRange) int64 {
	if rng.Start.IsZero() {
		return 0
	}
	return rng.Start.Unix()
}

// period2 is exclusive on the API side, so the end day is included by adding a day
func (c *Client) period2(rng contracts.DateRange) int64 {
	if rng.End.IsZero() {
		return c.now().Unix()
	}
	return rng.End.AddDate(0, 0, 1).Unix()
}
