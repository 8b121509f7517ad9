package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-analytics/internal/analysis"
	"github.com/wonny/aegis-analytics/internal/api/handlers"
	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/pricecache"
	"github.com/wonny/aegis-analytics/pkg/config"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

type stubFetcher struct{ calls int }

func (f *stubFetcher) FetchPrices(ctx context.Context, ticker string, rng contracts.DateRange) (contracts.PriceSeries, error) {
	f.calls++
	if ticker == "ZZZZ" {
		return contracts.PriceSeries{}, &contracts.DataUnavailableError{Ticker: ticker, Range: rng, Err: errors.New("no data")}
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]contracts.Point, 0, 40)
	price := 100.0 + float64(len(ticker))
	for i := 0; i < 40; i++ {
		if i%3 == 0 {
			price *= 1.01
		} else {
			price *= 0.997
		}
		pts = append(pts, contracts.Point{Date: start.AddDate(0, 0, i), Value: price})
	}
	return contracts.PriceSeries{Ticker: ticker, Points: pts}, nil
}

func newTestRouter() (http.Handler, *stubFetcher, *pricecache.MemoryStore) {
	return newTestRouterWithData("")
}

func newTestRouterWithData(dataDir string) (http.Handler, *stubFetcher, *pricecache.MemoryStore) {
	f := &stubFetcher{}
	store := pricecache.NewMemoryStore()
	log := logger.Nop()
	runner := analysis.NewRunner(f, store, log)
	return NewRouter(
		handlers.NewAnalyzeHandler(runner, dataDir, log),
		handlers.NewCacheHandler(store, 3, log),
		log,
	), f, store
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func analyzeBody(weights string) map[string]interface{} {
	return map[string]interface{}{
		"portfolio": map[string]interface{}{"tickers": []string{"AAPL", "MSFT"}, "weights": weights},
		"benchmark": map[string]interface{}{"tickers": []string{"SPY"}},
		"range":     map[string]string{"start": "2024-01-01"},
		"metrics":   map[string]int{"window": 10},
	}
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestRouter()
	rec := do(t, h, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAnalyze(t *testing.T) {
	h, f, _ := newTestRouter()
	rec := do(t, h, "POST", "/api/analyze", analyzeBody("AAPL=0.5,MSFT=0.5"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ConfigHash string `json:"config_hash"`
		RunID      string `json:"run_id"`
		Report     struct {
			Observations int                 `json:"observations"`
			Point        map[string]*float64 `json:"point"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.ConfigHash, 64)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 39, resp.Report.Observations)
	require.NotNil(t, resp.Report.Point["beta"])
	assert.Equal(t, 3, f.calls)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		status int
		calls  int
	}{
		{"bad json", "{", http.StatusBadRequest, 0},
		{"unknown field", `{"portfolio":{"tickers":["SPY"]},"benchmark":{"tickers":["SPY"]},"windw":3}`, http.StatusBadRequest, 0},
		{"missing benchmark", `{"portfolio":{"tickers":["SPY"]}}`, http.StatusBadRequest, 0},
		{"bad weights", analyzeBody("AAPL=0.5,MSFT=0.6"), http.StatusBadRequest, 0},
		{"unknown weight ticker", analyzeBody("AAPL=0.5,GOOG=0.5"), http.StatusBadRequest, 0},
		{"unavailable", `{"portfolio":{"tickers":["ZZZZ"]},"benchmark":{"tickers":["SPY"]}}`, http.StatusNotFound, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, f, _ := newTestRouter()
			rec := do(t, h, "POST", "/api/analyze", tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
			assert.Equal(t, tt.calls, f.calls)
		})
	}
}

func csvBody(path string) map[string]interface{} {
	return map[string]interface{}{
		"portfolio": map[string]interface{}{"csv": map[string]string{"path": path, "format": "returns"}},
		"benchmark": map[string]interface{}{"tickers": []string{"SPY"}},
	}
}

func TestAnalyze_CSVDisabledWithoutDataDir(t *testing.T) {
	secret := filepath.Join(t.TempDir(), "secrets.env")
	require.NoError(t, os.WriteFile(secret, []byte("DB_PASSWORD=hunter2,x\nAPI_KEY=sk-live-123,y\n"), 0o600))

	h, f, _ := newTestRouter()
	rec := do(t, h, "POST", "/api/analyze", csvBody(secret))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "csv inputs are not enabled")
	assert.NotContains(t, rec.Body.String(), "sk-live-123")
	assert.Equal(t, 0, f.calls)
}

func TestAnalyze_CSVConfinedToDataDir(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secrets.env"),
		[]byte("DB_PASSWORD=hunter2,x\nAPI_KEY=sk-live-123,y\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "broken.csv"),
		[]byte("date,value\n2024-01-02,0.01\nAPI_KEY=sk-live-123,y\n"), 0o600))

	var rows strings.Builder
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&rows, "%s,0.001\n", day.AddDate(0, 0, i).Format("2006-01-02"))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "port.csv"), []byte(rows.String()), 0o600))

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{"absolute path", filepath.Join(root, "secrets.env"), http.StatusBadRequest, "must be relative"},
		{"parent escape", "../secrets.env", http.StatusBadRequest, "must be relative"},
		{"nested escape", "sub/../../secrets.env", http.StatusBadRequest, "must be relative"},
		{"bad cell is not echoed", "broken.csv", http.StatusBadRequest, "broken.csv line 3"},
		{"inside data dir", "port.csv", http.StatusOK, "run_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestRouterWithData(dataDir)
			rec := do(t, h, "POST", "/api/analyze", csvBody(tt.path))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.contains)
			assert.NotContains(t, rec.Body.String(), "sk-live-123")
			assert.NotContains(t, rec.Body.String(), dataDir)
		})
	}
}

func TestCache_ListAndClear(t *testing.T) {
	h, _, store := newTestRouter()

	rec := do(t, h, "POST", "/api/analyze", analyzeBody(""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, "GET", "/api/cache", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count   int `json:"count"`
		Entries []struct {
			Key   pricecache.Key `json:"key"`
			Rows  int            `json:"rows"`
			Fresh bool           `json:"fresh"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Count)
	for _, e := range list.Entries {
		assert.Equal(t, 40, e.Rows)
		assert.True(t, e.Fresh)
		assert.Empty(t, e.Key.End, "open end")
	}

	rec = do(t, h, "DELETE", "/api/cache", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":3}`, rec.Body.String())

	infos, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/analyze"},
		{"PUT", "/api/cache"},
		{"POST", "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			h, _, _ := newTestRouter()
			rec := do(t, h, tt.method, tt.path, nil)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestNotFound(t *testing.T) {
	h, _, _ := newTestRouter()
	rec := do(t, h, "GET", "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	r.Use(recoveryMiddleware(logger.Nop()))

	rec := do(t, r, "GET", "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestServer_Shutdown(t *testing.T) {
	h, _, _ := newTestRouter()
	srv := New(&config.Config{Port: "0"}, logger.Nop(), h)
	assert.NotNil(t, srv.Handler())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}
