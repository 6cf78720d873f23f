package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/block"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/messaging"
)

const (
	DEFAULT_LOG_BATCH_SIZE = 10000

	// liveLogBufferSize is the number of live logs buffered while the backfill runs
	liveLogBufferSize = 1024
)

// Config holds the configuration for Ethereum subscription
type Config struct {
	ChainID         domain.Chain // e.g., "eip155:1" for Ethereum mainnet
	ContractAddress string       // marketplace contract
	LogBatchSize    uint64       // blocks per FilterLogs request during backfill
}

type ethSubscriber struct {
	client        EthereumClient
	blockProvider block.BlockProvider
	config        Config
}

// NewSubscriber creates a new marketplace event subscriber
func NewSubscriber(cfg Config, ethereumClient EthereumClient, blockProvider block.BlockProvider) messaging.Subscriber {
	if cfg.LogBatchSize == 0 {
		cfg.LogBatchSize = DEFAULT_LOG_BATCH_SIZE
	}

	return &ethSubscriber{
		client:        ethereumClient,
		blockProvider: blockProvider,
		config:        cfg,
	}
}

func (s *ethSubscriber) query() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(s.config.ContractAddress)},
		Topics:    [][]common.Hash{MarketplaceEventSignatures()},
	}
}

// SubscribeEvents backfills from fromBlock to the current head, then follows the live log stream.
// The live subscription is opened once the remaining gap is under one batch, so it never
// buffers logs for a long backfill. The gap is closed after subscribing so no block is missed.
func (s *ethSubscriber) SubscribeEvents(ctx context.Context, fromBlock uint64, handler messaging.EventHandler) error {
	next, err := s.catchUp(ctx, fromBlock, handler)
	if err != nil {
		return err
	}

	logs := make(chan types.Log, liveLogBufferSize)
	sub, err := s.client.SubscribeFilterLogs(ctx, s.query(), logs)
	if err != nil {
		return fmt.Errorf("%w: failed to subscribe to filter logs: %v", domain.ErrSubscriptionFailed, err)
	}
	defer func() {
		logger.InfoCtx(ctx, "Unsubscribing from marketplace event logs")
		sub.Unsubscribe()
	}()

	head, err := s.blockProvider.GetLatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest block: %w", err)
	}
	if next <= head {
		if err := s.backfill(ctx, next, head, handler); err != nil {
			return err
		}
		next = head + 1
	}

	// Blocks before next were delivered by the backfill; live logs for them are duplicates
	logger.InfoCtx(ctx, "Following live marketplace events",
		zap.String("chain", string(s.config.ChainID)),
		zap.Uint64("from_block", next))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("%w: %v", domain.ErrSubscriptionFailed, err)
		case vLog := <-logs:
			if vLog.BlockNumber < next {
				continue
			}
			if err := s.dispatch(ctx, vLog, handler); err != nil {
				return err
			}
		}
	}
}

// catchUp backfills until the head is less than one batch ahead and returns the next block to read
func (s *ethSubscriber) catchUp(ctx context.Context, fromBlock uint64, handler messaging.EventHandler) (uint64, error) {
	next := fromBlock
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		head, err := s.blockProvider.GetLatestBlock(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to get latest block: %w", err)
		}
		if next > head || head-next < s.config.LogBatchSize {
			return next, nil
		}

		if err := s.backfill(ctx, next, head, handler); err != nil {
			return 0, err
		}
		next = head + 1
	}
}

// backfill replays the closed range [from, to] in batches of LogBatchSize blocks
func (s *ethSubscriber) backfill(ctx context.Context, from uint64, to uint64, handler messaging.EventHandler) error {
	logger.InfoCtx(ctx, "Backfilling marketplace events",
		zap.String("chain", string(s.config.ChainID)),
		zap.Uint64("from_block", from),
		zap.Uint64("to_block", to))

	for start := from; start <= to; start += s.config.LogBatchSize {
		end := min(start+s.config.LogBatchSize-1, to)

		query := s.query()
		query.FromBlock = new(big.Int).SetUint64(start)
		query.ToBlock = new(big.Int).SetUint64(end)

		batch, err := s.client.FilterLogs(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to filter logs %d-%d: %w", start, end, err)
		}

		sort.SliceStable(batch, func(i, j int) bool {
			if batch[i].BlockNumber != batch[j].BlockNumber {
				return batch[i].BlockNumber < batch[j].BlockNumber
			}
			return batch[i].Index < batch[j].Index
		})

		blockNumbers := make([]uint64, 0, len(batch))
		for _, vLog := range batch {
			blockNumbers = append(blockNumbers, vLog.BlockNumber)
		}
		if err := s.blockProvider.PrefetchTimestamps(ctx, blockNumbers); err != nil {
			// ParseEventLog fetches whatever is still missing
			logger.WarnCtx(ctx, "Failed to prefetch block timestamps", zap.Error(err))
		}

		for _, vLog := range batch {
			if err := s.dispatch(ctx, vLog, handler); err != nil {
				return err
			}
		}

		logger.DebugCtx(ctx, "Backfilled block range",
			zap.Uint64("from_block", start),
			zap.Uint64("to_block", end),
			zap.Int("logs", len(batch)))

		if end == to {
			break
		}
	}

	return nil
}

// dispatch parses one log and hands it to the handler
func (s *ethSubscriber) dispatch(ctx context.Context, vLog types.Log, handler messaging.EventHandler) error {
	if vLog.Removed {
		logger.WarnCtx(ctx, "Skipping removed log",
			zap.String("txHash", vLog.TxHash.Hex()),
			zap.Uint64("block", vLog.BlockNumber),
			zap.Uint("logIndex", vLog.Index))
		return nil
	}

	event, err := s.client.ParseEventLog(ctx, vLog)
	if err != nil {
		// Malformed or unknown logs will never parse; anything else must stop the
		// subscription so the emitter resumes from its stored cursor.
		if !errors.Is(err, domain.ErrMalformedLog) && !errors.Is(err, domain.ErrUnsupportedEvent) {
			return fmt.Errorf("failed to parse log %s:%d: %w", vLog.TxHash.Hex(), vLog.Index, err)
		}
		logger.WarnCtx(ctx, "Skipping undecodable log",
			zap.Error(err),
			zap.String("txHash", vLog.TxHash.Hex()),
			zap.Uint64("block", vLog.BlockNumber),
			zap.Uint("logIndex", vLog.Index))
		return nil
	}

	if err := handler(event); err != nil {
		return fmt.Errorf("failed to handle event %s: %w", event.ID(), err)
	}

	return nil
}

// GetLatestBlock returns the latest block number
func (s *ethSubscriber) GetLatestBlock(ctx context.Context) (uint64, error) {
	return s.blockProvider.GetLatestBlock(ctx)
}

// Close closes the connection
func (s *ethSubscriber) Close() {
	if s.client == nil {
		return
	}

	s.client.Close()
	logger.Info("Ethereum WebSocket connection closed")
}
