// Package webhook delivers exported OpenLineage event batches to registered
// external receivers (Marquez/DataHub-style catalogs).
package webhook

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/seadonggyun4/truthound-dashboard-sub010/lineage"
)

// Dispatcher POSTs event batches to each configured receiver URL. Delivery
// is fire-and-forget: export must never fail because a catalog is down, so
// errors and non-2xx responses are logged and dropped.
type Dispatcher struct {
	receivers  []string
	headers    map[string]string
	httpClient *http.Client
}

// NewDispatcher creates a dispatcher for the given receiver URLs.
func NewDispatcher(receivers []string, headers map[string]string) *Dispatcher {
	return &Dispatcher{
		receivers:  receivers,
		headers:    headers,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish sends the batch to every receiver asynchronously.
func (d *Dispatcher) Publish(batch lineage.EventBatch) {
	if len(d.receivers) == 0 {
		return
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		log.Printf("failed to marshal event batch for webhook delivery: %v", err)
		return
	}
	for _, url := range d.receivers {
		go d.deliver(url, payload)
	}
}

func (d *Dispatcher) deliver(url string, payload []byte) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		log.Printf("failed to create webhook request for %s: %v", url, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range d.headers {
		req.Header.Set(key, value)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		log.Printf("webhook delivery to %s failed: %v", url, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		log.Printf("webhook receiver %s returned HTTP %s: %s", url, resp.Status, string(body))
		return
	}
	log.Printf("delivered event batch to %s (HTTP %s)", url, resp.Status)
}
