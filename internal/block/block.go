package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
)

const (
	DEFAULT_PREFETCH_CONCURRENCY = 8
	DEFAULT_TIMESTAMP_CACHE_SIZE = 50000
)

// BlockInfo represents cached block information
type BlockInfo struct {
	Number    uint64
	Timestamp time.Time
}

// BlockProvider provides cached access to the latest block number
// and to block timestamps for any block number.
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=BlockProvider=MockBlockProvider,BlockFetcher=MockBlockFetcher
type BlockProvider interface {
	// GetLatestBlock returns the latest block number, potentially from cache
	GetLatestBlock(ctx context.Context) (uint64, error)

	// GetBlockTimestamp returns the timestamp for a given block number, potentially from cache
	GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)

	// PrefetchTimestamps loads the timestamps of the given blocks into the cache concurrently
	PrefetchTimestamps(ctx context.Context, blockNumbers []uint64) error
}

// BlockFetcher is the interface for fetching block information from the blockchain
type BlockFetcher interface {
	// FetchLatestBlock fetches the latest block from the blockchain
	FetchLatestBlock(ctx context.Context) (uint64, error)

	// FetchBlockTimestamp fetches the timestamp for a given block number
	FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Config holds configuration for the BlockProvider
type Config struct {
	// TTL is how long to cache the latest block number
	TTL time.Duration

	// StaleWindow is how long to use a stale block number if fetching fails
	StaleWindow time.Duration

	// PrefetchConcurrency bounds the number of concurrent timestamp fetches
	PrefetchConcurrency int

	// TimestampCacheSize bounds the number of cached block timestamps; the oldest entries are evicted first
	TimestampCacheSize int
}

// blockProvider implements BlockProvider with TTL-based caching
type blockProvider struct {
	fetcher BlockFetcher
	config  Config
	clock   adapter.Clock

	mu              sync.RWMutex
	blockInfo       *BlockInfo
	blockTimestamps map[uint64]time.Time
	insertOrder     []uint64
}

// NewBlockProvider creates a new BlockProvider with caching
func NewBlockProvider(fetcher BlockFetcher, config Config, clock adapter.Clock) BlockProvider {
	if config.PrefetchConcurrency <= 0 {
		config.PrefetchConcurrency = DEFAULT_PREFETCH_CONCURRENCY
	}
	if config.TimestampCacheSize <= 0 {
		config.TimestampCacheSize = DEFAULT_TIMESTAMP_CACHE_SIZE
	}

	return &blockProvider{
		fetcher:         fetcher,
		config:          config,
		clock:           clock,
		blockTimestamps: make(map[uint64]time.Time),
	}
}

// GetLatestBlock returns the latest block number, using cache if valid
func (p *blockProvider) GetLatestBlock(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.blockInfo
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && now.Sub(cached.Timestamp) < p.config.TTL {
		logger.DebugCtx(ctx, "Using cached block number", zap.Uint64("block_number", cached.Number))
		return cached.Number, nil
	}

	logger.DebugCtx(ctx, "Fetching latest block number from blockchain provider")
	blockNumber, err := p.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		if cached != nil && now.Sub(cached.Timestamp) < p.config.StaleWindow {
			logger.DebugCtx(ctx, "Using stale block number", zap.Uint64("block_number", cached.Number))
			return cached.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	p.mu.Lock()
	p.blockInfo = &BlockInfo{
		Number:    blockNumber,
		Timestamp: now,
	}
	p.mu.Unlock()

	return blockNumber, nil
}

// GetBlockTimestamp returns the timestamp for a given block number.
// Timestamps of mined blocks never change, so cached entries do not expire.
func (p *blockProvider) GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	if timestamp, ok := p.cachedTimestamp(blockNumber); ok {
		return timestamp, nil
	}

	logger.DebugCtx(ctx, "Fetching block timestamp from blockchain provider",
		zap.Uint64("block_number", blockNumber))
	timestamp, err := p.fetcher.FetchBlockTimestamp(ctx, blockNumber)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch block timestamp for block %d: %w", blockNumber, err)
	}

	p.cacheTimestamp(blockNumber, timestamp)
	return timestamp, nil
}

// PrefetchTimestamps fetches every uncached block timestamp on a bounded worker pool
func (p *blockProvider) PrefetchTimestamps(ctx context.Context, blockNumbers []uint64) error {
	missing := make([]uint64, 0, len(blockNumbers))
	seen := make(map[uint64]struct{}, len(blockNumbers))
	for _, n := range blockNumbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		if _, ok := p.cachedTimestamp(n); !ok {
			missing = append(missing, n)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	logger.DebugCtx(ctx, "Prefetching block timestamps",
		zap.Int("blocks", len(missing)),
		zap.Int("concurrency", p.config.PrefetchConcurrency))

	pool := pond.NewResultPool[time.Time](p.config.PrefetchConcurrency, pond.WithContext(ctx))
	defer pool.StopAndWait()

	tasks := make([]pond.Result[time.Time], len(missing))
	for i, n := range missing {
		blockNumber := n
		tasks[i] = pool.SubmitErr(func() (time.Time, error) {
			return p.fetcher.FetchBlockTimestamp(ctx, blockNumber)
		})
	}

	var firstErr error
	for i, task := range tasks {
		timestamp, err := task.Wait()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to prefetch block timestamp for block %d: %w", missing[i], err)
			}
			continue
		}
		p.cacheTimestamp(missing[i], timestamp)
	}

	return firstErr
}

func (p *blockProvider) cachedTimestamp(blockNumber uint64) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	timestamp, ok := p.blockTimestamps[blockNumber]
	return timestamp, ok
}

func (p *blockProvider) cacheTimestamp(blockNumber uint64, timestamp time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.blockTimestamps[blockNumber]; ok {
		return
	}

	p.blockTimestamps[blockNumber] = timestamp
	p.insertOrder = append(p.insertOrder, blockNumber)

	for len(p.insertOrder) > p.config.TimestampCacheSize {
		delete(p.blockTimestamps, p.insertOrder[0])
		p.insertOrder = p.insertOrder[1:]
	}
}
