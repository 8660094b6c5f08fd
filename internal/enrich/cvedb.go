// internal/enrich/cvedb.go
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// OverviewUnavailable is returned when the CVE database has no summary.
	OverviewUnavailable = "No overview available for this CVE."
	// OverviewError is returned when the lookup itself fails.
	OverviewError = "Error fetching CVE overview."
)

// CVEClient fetches one-line vulnerability overviews from a CVE database API.
type CVEClient struct {
	BaseURL string
	Client  *http.Client
	logger  *slog.Logger
}

// NewCVEClient creates a new CVEClient.
func NewCVEClient(baseURL string, logger *slog.Logger) *CVEClient {
	return &CVEClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// Overview returns the summary text for cveID. It never fails: any error is
// logged and replaced with a fixed placeholder so one bad lookup cannot abort
// a notification batch.
func (c *CVEClient) Overview(ctx context.Context, cveID string) string {
	url := fmt.Sprintf("%s/api/cve/%s", strings.TrimRight(c.BaseURL, "/"), cveID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("Failed to build CVE overview request", "cve_id", cveID, "error", err)
		return OverviewError
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch CVE overview", "cve_id", cveID, "error", err)
		return OverviewError
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("CVE overview request failed", "cve_id", cveID, "status", resp.Status)
		return OverviewError
	}

	var payload struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("Failed to decode CVE overview response", "cve_id", cveID, "error", err)
		return OverviewError
	}
	if payload.Summary == "" {
		return OverviewUnavailable
	}
	return payload.Summary
}
