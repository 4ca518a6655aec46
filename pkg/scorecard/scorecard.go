package scorecard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Updater is the reindex side-effect collaborator a worker calls after a
// successful completion. It is deliberately outside the core transaction:
// a failed score-card update must never roll back a recorded job success.
type Updater interface {
	UpdateScoreCard(ctx context.Context, packageName, packageVersion string) error
}

// HTTPUpdater posts to a configurable score-card service URL, an external
// HTTP service maintained outside this module.
type HTTPUpdater struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPUpdater builds an HTTPUpdater with a bounded-timeout default
// client.
func NewHTTPUpdater(baseURL string) *HTTPUpdater {
	return &HTTPUpdater{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type updateRequest struct {
	Package string `json:"package"`
	Version string `json:"version"`
}

// UpdateScoreCard posts {package, version} to BaseURL + "/update" and
// treats any non-2xx response as an error. Callers are expected to treat
// this as best-effort: log and move on rather than propagate failure back
// into the job lifecycle.
func (u *HTTPUpdater) UpdateScoreCard(ctx context.Context, packageName, packageVersion string) error {
	body, err := json.Marshal(updateRequest{Package: packageName, Version: packageVersion})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.BaseURL+"/update", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("scorecard: update %s@%s: unexpected status %d", packageName, packageVersion, resp.StatusCode)
	}
	return nil
}

// Noop is a no-op Updater for tests and deployments without a score-card
// backend configured.
type Noop struct{}

func (Noop) UpdateScoreCard(context.Context, string, string) error { return nil }
