// Package readiness calls the external readiness scoring service that gates
// enabling autosend for a tenant.
package readiness

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client implements policy.ReadinessScorer over HTTP.
type Client struct {
	httpClient *resty.Client
}

// NewClient constructs the readiness client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

type readinessResponse struct {
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// Ready reports whether the tenant may enable autosend. Transport and server
// errors return a non-nil error so the caller fails closed.
func (c *Client) Ready(ctx context.Context, tenantID string) (bool, string, error) {
	var result readinessResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/v1/tenants/%s/readiness", tenantID))
	if err != nil {
		return false, "", fmt.Errorf("readiness check: %w", err)
	}
	if resp.IsError() {
		return false, "", fmt.Errorf("readiness check: %s", resp.Status())
	}
	return result.Ready, result.Detail, nil
}
