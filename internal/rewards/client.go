// Package rewards submits a finalized receipt summary to the upstream reward
// service. Submission is fire-and-report: the ledger is the source of truth
// regardless of the upstream outcome, and no failure here ever mutates or
// rolls back ledger state.
package rewards

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FallbackCode is returned when the upstream reply carries no reward code.
const FallbackCode = "849201773402"

const defaultTimeout = 10 * time.Second

// ItemDetail is one line item in the submitted receipt snapshot.
type ItemDetail struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Category  string    `json:"category"`
	Payers    []string  `json:"payers"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission is the wire payload for the reward endpoint. Amount is a
// 2-decimal-place string; Timestamp is RFC 3339.
type Submission struct {
	Amount     string       `json:"amount"`
	InviteCode string       `json:"inviteCode"`
	Timestamp  string       `json:"timestamp"`
	Details    []ItemDetail `json:"details"`
}

// Result is the outcome of a successful submission.
type Result struct {
	Code string `json:"code"`
}

// Client posts receipt summaries to a fixed reward endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a reward client for the given endpoint. A non-positive
// timeout falls back to the default.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Submit posts the receipt summary and returns the reward code. A reply
// without a code yields FallbackCode; timeouts, non-2xx statuses, and
// malformed payloads are returned as errors for the caller to report.
func (c *Client) Submit(ctx context.Context, sub Submission) (Result, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("submission request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("reward service returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("failed to decode reward response: %w", err)
	}
	if result.Code == "" {
		result.Code = FallbackCode
	}
	return result, nil
}
