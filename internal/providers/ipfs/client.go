package ipfs

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/uri"
)

// ErrContentNotFound is returned when every gateway reports the content as missing
var ErrContentNotFound = errors.New("content not found")

// Config holds configuration for the IPFS client
type Config struct {
	// Gateways are tried in order
	Gateways []string
}

// Client fetches documents from IPFS by content hash
//
//go:generate mockgen -source=client.go -destination=../../mocks/ipfs_client.go -package=mocks -mock_names=Client=MockIPFSClient
type Client interface {
	// Fetch returns the raw bytes of the content, or ErrContentNotFound
	Fetch(ctx context.Context, hash string) ([]byte, error)
}

type client struct {
	httpClient adapter.HTTPClient
	config     Config
}

// NewClient creates a new IPFS gateway client
func NewClient(httpClient adapter.HTTPClient, config Config) Client {
	return &client{
		httpClient: httpClient,
		config:     config,
	}
}

// Fetch tries every configured gateway in order and returns the first successful body.
// A 404 from every gateway is reported as ErrContentNotFound; otherwise the last error is returned.
func (c *client) Fetch(ctx context.Context, hash string) ([]byte, error) {
	if len(c.config.Gateways) == 0 {
		return nil, fmt.Errorf("no IPFS gateways configured")
	}

	var lastErr error
	notFound := 0
	for _, gateway := range c.config.Gateways {
		url := uri.IPFSGatewayURL(gateway, hash)

		body, err := c.httpClient.GetBytes(ctx, url)
		if err == nil {
			logger.DebugCtx(ctx, "Fetched IPFS content", zap.String("url", url), zap.Int("size", len(body)))
			return body, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var statusErr *adapter.HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			notFound++
		}

		logger.WarnCtx(ctx, "IPFS gateway failed", zap.String("url", url), zap.Error(err))
		lastErr = err
	}

	if notFound == len(c.config.Gateways) {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, hash)
	}

	return nil, fmt.Errorf("failed to fetch %s from IPFS gateways: %w", hash, lastErr)
}
