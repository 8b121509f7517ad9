package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/aegis-analytics/pkg/httputil"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

// DefaultBaseURL is the public Yahoo Finance query host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client handles communication with the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new Yahoo Finance client.
// Retries are disabled: one attempt per fetch, retry policy belongs to the caller.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient.DisableRetry(),
		logger:     log,
		baseURL:    baseURL,
		now:        time.Now,
	}
}

// fetchJSON fetches a JSON document from the API
func (c *Client) fetchJSON(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	// 404 등도 chart.error 본문을 포함하므로 body를 함께 반환
	if resp.StatusCode != http.StatusOK && len(body) == 0 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, resp.StatusCode, nil
}
