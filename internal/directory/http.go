package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/me/capsched/pkg/model"
)

// ClientConfig holds Employment Directory endpoint configuration.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultClientConfig returns configuration with a 5s request timeout.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{BaseURL: baseURL, Timeout: 5 * time.Second}
}

// HTTPDirectory implements Directory against a remote JSON API:
//
//	GET {base}/agents/{agentID}/allocation  -> {"allocation_percentage": 50}
//	GET {base}/employments/{employmentID}   -> {"tier": "primary"}
//
// A 404 from either endpoint is not an error: it means "unknown", which maps
// to zero allocation and secondary tier respectively.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPDirectory creates a directory client for the configured endpoint.
func NewHTTPDirectory(cfg ClientConfig, logger *slog.Logger) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With("component", "directory"),
	}
}

// TotalAllocation implements Directory.
func (d *HTTPDirectory) TotalAllocation(ctx context.Context, agentID string) (float64, error) {
	var body struct {
		AllocationPct float64 `json:"allocation_percentage"`
	}
	found, err := d.getJSON(ctx, "/agents/"+url.PathEscape(agentID)+"/allocation", &body)
	if err != nil {
		return 0, fmt.Errorf("allocation for agent %s: %w", agentID, err)
	}
	if !found {
		return 0, nil
	}
	return body.AllocationPct, nil
}

// EmploymentTier implements Directory.
func (d *HTTPDirectory) EmploymentTier(ctx context.Context, employmentID string) (model.EmploymentTier, error) {
	var body struct {
		Tier model.EmploymentTier `json:"tier"`
	}
	found, err := d.getJSON(ctx, "/employments/"+url.PathEscape(employmentID), &body)
	if err != nil {
		return model.TierSecondary, fmt.Errorf("tier for employment %s: %w", employmentID, err)
	}
	if !found || body.Tier == "" {
		return model.TierSecondary, nil
	}
	return body.Tier, nil
}

// getJSON performs a GET and decodes the response. Returns found=false on 404.
func (d *HTTPDirectory) getJSON(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	d.logger.Debug("directory request", "url", req.URL.String())

	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}
