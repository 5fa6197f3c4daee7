package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/veltapay/velta-wallet/pkg/logger"
)

var ErrSubmitRejected = errors.New("settlement network rejected the transfer")

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusUnknown   Status = "unknown"
)

type SubmitParams struct {
	PendingRef  string `json:"pending_ref"`
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Asset       string `json:"asset"`
	Amount      int64  `json:"amount"`
}

type StatusResult struct {
	Status            Status `json:"status"`
	ExternalReference string `json:"external_reference"`
	FailureReason     string `json:"failure_reason"`
}

type Balance struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

// Client is the boundary to the settlement network (chain / asset issuer).
// Submit is asynchronous: the network later reports the outcome through the
// settlement webhook, keyed by PendingRef.
type Client interface {
	Submit(ctx context.Context, params SubmitParams) (string, error)
	Status(ctx context.Context, pendingRef string) (StatusResult, error)
	Balances(ctx context.Context, address string) ([]Balance, error)
}

type httpClient struct {
	baseURL string
	secret  string
	client  *http.Client
	retries int
}

func NewHTTPClient(baseURL, secret string) Client {
	return &httpClient{
		baseURL: baseURL,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
		retries: 3,
	}
}

func (c *httpClient) Submit(ctx context.Context, params SubmitParams) (string, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return "", err
	}

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			PendingRef string `json:"pending_ref"`
		} `json:"data"`
	}

	if err := c.doWithRetry(ctx, "POST", "/v1/transfers", payload, &resp); err != nil {
		return "", err
	}
	if !resp.Status {
		return "", fmt.Errorf("%w: %s", ErrSubmitRejected, resp.Message)
	}
	return resp.Data.PendingRef, nil
}

func (c *httpClient) Status(ctx context.Context, pendingRef string) (StatusResult, error) {
	var resp struct {
		Status  bool         `json:"status"`
		Message string       `json:"message"`
		Data    StatusResult `json:"data"`
	}

	if err := c.doWithRetry(ctx, "GET", "/v1/transfers/"+pendingRef, nil, &resp); err != nil {
		return StatusResult{}, err
	}
	if !resp.Status {
		return StatusResult{Status: StatusUnknown}, nil
	}
	return resp.Data, nil
}

func (c *httpClient) Balances(ctx context.Context, address string) ([]Balance, error) {
	var resp struct {
		Status  bool      `json:"status"`
		Message string    `json:"message"`
		Data    []Balance `json:"data"`
	}

	if err := c.doWithRetry(ctx, "GET", "/v1/accounts/"+address+"/balances", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("balance query failed: %s", resp.Message)
	}
	return resp.Data, nil
}

// doWithRetry retries transport errors and 5xx responses with linear
// backoff. 4xx responses are terminal: the request will not get better.
func (c *httpClient) doWithRetry(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.secret)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			logger.Warn("Settlement request failed, retrying", logger.Fields{
				"path":    path,
				"attempt": attempt + 1,
				"error":   err.Error(),
			})
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("settlement network returned status %d", resp.StatusCode)
			logger.Warn("Settlement network error, retrying", logger.Fields{
				"path":        path,
				"status_code": resp.StatusCode,
				"attempt":     attempt + 1,
			})
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("settlement network returned status %d: %s", resp.StatusCode, string(respBody))
		}

		return json.Unmarshal(respBody, out)
	}
	return lastErr
}
