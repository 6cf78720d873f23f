package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
)

const (
	// maxErrorBodySize bounds how much of a failed response is kept on HTTPStatusError
	maxErrorBodySize = 1024

	// DEFAULT_MAX_BODY_SIZE bounds a successful response body
	DEFAULT_MAX_BODY_SIZE int64 = 10 << 20
)

// ErrResponseTooLarge is returned when a response body exceeds the configured limit
var ErrResponseTooLarge = errors.New("response body too large")

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// GetBytes performs a GET request and returns the raw response body
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// HTTPStatusError is returned when the server answers with a non-retryable status code
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client      *http.Client
	backoff     func() backoff.BackOff
	maxBodySize int64
}

// NewHTTPClient creates a new real HTTP client. Bodies larger than maxBodySize are rejected.
func NewHTTPClient(timeout time.Duration, maxBodySize int64) HTTPClient {
	if maxBodySize <= 0 {
		maxBodySize = DEFAULT_MAX_BODY_SIZE
	}

	return &RealHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		backoff:     defaultBackOff,
		maxBodySize: maxBodySize,
	}
}

// defaultBackOff retries rate-limited requests for up to a minute
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 1 * time.Minute
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5
	return b
}

// doRequestWithRetry executes an HTTP request with exponential backoff retry for rate limiting
func (c *RealHTTPClient) doRequestWithRetry(ctx context.Context, req *http.Request) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		resp, err := c.client.Do(req)
		if err != nil {
			// Network errors are retryable
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Warn("failed to close response body", zap.Error(err), zap.String("url", req.URL.String()))
			}
		}()

		if resp.StatusCode == http.StatusTooManyRequests {
			logger.Warn("rate limited, retrying with backoff", zap.String("url", req.URL.String()))
			return fmt.Errorf("rate limited (429), retrying")
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			return backoff.Permanent(&HTTPStatusError{
				StatusCode: resp.StatusCode,
				Body:       string(body),
			})
		}

		// one extra byte tells an exact fit apart from a truncated body
		respBody, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}
		if int64(len(respBody)) > c.maxBodySize {
			respBody = nil
			return backoff.Permanent(fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, c.maxBodySize))
		}

		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.backoff(), ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}

	return respBody, nil
}

// GetBytes performs a GET request and returns the raw response body
// Implements exponential backoff retry for rate limiting (429) and transport errors
func (c *RealHTTPClient) GetBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequestWithRetry(ctx, req)
}
