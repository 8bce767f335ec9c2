package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ClientConfig holds Activity Registry endpoint configuration.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultClientConfig returns configuration with a 5s request timeout.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{BaseURL: baseURL, Timeout: 5 * time.Second}
}

// HTTPRegistry implements Registry by POSTing activities as JSON:
//
//	POST {base}/activities
type HTTPRegistry struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPRegistry creates a registry client for the configured endpoint.
func NewHTTPRegistry(cfg ClientConfig, logger *slog.Logger) *HTTPRegistry {
	return &HTTPRegistry{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With("component", "activity"),
	}
}

// RecordActivity implements Registry.
func (r *HTTPRegistry) RecordActivity(ctx context.Context, act Activity) error {
	data, err := json.Marshal(act)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/activities", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	r.logger.Debug("record activity", "agent_id", act.AgentID, "type", act.ActivityType)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
	return nil
}
