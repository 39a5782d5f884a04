package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"feedbird/internal/models"
)

// GatewayDriver talks to the social gateway service that holds the actual
// provider integrations. Actions map to POST {base}/{platform}/{action}.
type GatewayDriver struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewGatewayDriver returns a driver for the given gateway base URL.
func NewGatewayDriver(baseURL, token string) *GatewayDriver {
	return &GatewayDriver{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Call executes one gateway action and decodes the JSON response.
func (d *GatewayDriver) Call(ctx context.Context, platform models.Platform, action string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode gateway payload: %w", err)
	}
	url := fmt.Sprintf("%s/%s/%s", d.baseURL, platform, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, models.NewUpstreamError(string(platform)+" "+action, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, models.NewUpstreamError(string(platform)+" "+action,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(data)))
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, models.NewUpstreamError(string(platform)+" "+action, fmt.Errorf("decode response: %w", err))
	}
	return out, nil
}
