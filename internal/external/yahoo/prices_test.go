package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/pkg/config"
	"github.com/wonny/aegis-analytics/pkg/httputil"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

// 2024-01-02 14:30 UTC, 2024-01-03 14:30 UTC, 2024-01-03 20:00 UTC (same day, later row), 2024-01-04 14:30 UTC
const chartOK = `{"chart":{"result":[{
	"meta":{"symbol":"SPY","gmtoffset":-18000},
	"timestamp":[1704205800,1704292200,1704312000,1704378600],
	"indicators":{"adjclose":[{"adjclose":[470.5,null,472.25,468.0]}]}
}],"error":null}}`

const chartNotFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{Feed: config.FeedConfig{Timeout: 5 * time.Second}}
	c := NewClient(httputil.New(cfg, logger.Nop()), logger.Nop(), server.URL)
	c.now = func() time.Time { return time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC) }
	return c, &calls
}

func TestFetchPrices(t *testing.T) {
	var gotPath, gotPeriod1, gotPeriod2 string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPeriod1 = r.URL.Query().Get("period1")
		gotPeriod2 = r.URL.Query().Get("period2")
		w.Write([]byte(chartOK))
	})

	rng, err := contracts.ParseDateRange("2024-01-01", "2024-01-04")
	require.NoError(t, err)

	series, err := c.FetchPrices(context.Background(), "spy", rng)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/SPY", gotPath)
	assert.Equal(t, "1704067200", gotPeriod1)
	assert.Equal(t, "1704412800", gotPeriod2) // end + 1 day
	assert.Equal(t, "SPY", series.Ticker)

	require.Len(t, series.Points, 3)
	assert.Equal(t, "2024-01-02", series.Points[0].Date.Format(contracts.DateLayout))
	assert.Equal(t, 470.5, series.Points[0].Value)
	assert.Equal(t, "2024-01-03", series.Points[1].Date.Format(contracts.DateLayout))
	assert.Equal(t, 472.25, series.Points[1].Value)
	assert.Equal(t, 468.0, series.Points[2].Value)
}

func TestFetchPrices_OpenEndUsesNow(t *testing.T) {
	var gotPeriod2 string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPeriod2 = r.URL.Query().Get("period2")
		w.Write([]byte(chartOK))
	})

	_, err := c.FetchPrices(context.Background(), "SPY", contracts.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "1704412800", gotPeriod2)
}

func TestFetchPrices_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error object", http.StatusNotFound, chartNotFound},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`},
		{"all nulls", http.StatusOK, `{"chart":{"result":[{"meta":{},"timestamp":[1704205800],"indicators":{"adjclose":[{"adjclose":[null]}]}}]}}`},
		{"server error", http.StatusInternalServerError, ""},
		{"garbage", http.StatusOK, "<html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.FetchPrices(context.Background(), "XXXX", contracts.DateRange{})
			require.Error(t, err)
			assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
			assert.Equal(t, 1, *calls, "single attempt, no retry")
		})
	}
}
