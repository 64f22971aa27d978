package analyzecli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/dxrating/internal/adapters/feed"
	service "github.com/okian/dxrating/internal/app"
	"github.com/okian/dxrating/internal/domain/chart"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// analyzeRequest is the wire body of POST /analyze.
type analyzeRequest struct {
	PlayerName              string        `json:"player_name,omitempty"`
	Version                 string        `json:"version,omitempty"`
	Region                  string        `json:"region,omitempty"`
	Records                 []feed.Record `json:"records"`
	ExcludeUnknownSongs     bool          `json:"exclude_unknown_songs,omitempty"`
	RecommendMinAchievement float64       `json:"recommend_min_achievement,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// analyzeRemote posts records to a running server.
func analyzeRemote(ctx context.Context, cfg *Config, records []chart.Record) (service.Analysis, error) {
	body := analyzeRequest{
		PlayerName:              cfg.PlayerName,
		Version:                 cfg.Version,
		Region:                  cfg.Region,
		Records:                 make([]feed.Record, 0, len(records)),
		ExcludeUnknownSongs:     cfg.ExcludeUnknownSongs,
		RecommendMinAchievement: cfg.RecommendMinAchievement,
	}
	for _, r := range records {
		body.Records = append(body.Records, feed.FromRecord(r))
	}

	client := newHTTPClient(cfg.Timeout)
	resp, err := client.Post(ctx, strings.TrimRight(cfg.BaseURL, "/")+"/analyze", body)
	if err != nil {
		return service.Analysis{}, fmt.Errorf("%w: %w", ErrRemote, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return service.Analysis{}, fmt.Errorf("%w: read response: %w", ErrRemote, err)
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return service.Analysis{}, fmt.Errorf("%w: %d %s: %s", ErrRemote, resp.StatusCode, e.Code, e.Message)
		}
		return service.Analysis{}, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}

	var out service.Analysis
	if err := json.Unmarshal(data, &out); err != nil {
		return service.Analysis{}, fmt.Errorf("%w: decode response: %w", ErrRemote, err)
	}
	return out, nil
}
