// Package anomalydetector is the HTTP client for the external
// anomaly-detection service that supplies per-source anomaly status.
package anomalydetector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/seadonggyun4/truthound-dashboard-sub010/lineage"
)

// Client queries the anomaly-detection service over HTTP. It implements
// lineage.AnomalyDetector.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given service base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// StatusForSource fetches the most recent anomaly status for a data source.
// A 404 from the service means no detection has run yet and yields
// (nil, nil) so callers degrade to unknown status.
func (c *Client) StatusForSource(ctx context.Context, sourceID string) (*lineage.AnomalyStatus, error) {
	url := fmt.Sprintf("%s/sources/%s/anomaly-status", c.baseURL, sourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create anomaly status request for source %s: %w", sourceID, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anomaly status request failed for source %s: %w", sourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("anomaly detector returned HTTP %s for source %s", resp.Status, sourceID)
		return nil, nil
	}

	var status lineage.AnomalyStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode anomaly status for source %s: %w", sourceID, err)
	}
	if status.Status == "" {
		status.Status = lineage.AnomalyStatusUnknown
	}
	return &status, nil
}
