package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/block"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
)

// FILTER_LOGS_TIMEOUT bounds a single paginated FilterLogs call
const FILTER_LOGS_TIMEOUT = 5 * time.Minute

// EthereumClient reads the marketplace contract
//
//go:generate mockgen -source=client.go -destination=../../mocks/ethereum_client.go -package=mocks -mock_names=EthereumClient=MockEthereumClient
type EthereumClient interface {
	// ParseEventLog parses a marketplace log into a normalized event
	ParseEventLog(ctx context.Context, vLog types.Log) (*domain.MarketplaceEvent, error)

	// SubscribeFilterLogs subscribes to filter logs
	SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// FilterLogs returns the logs between query.FromBlock and query.ToBlock,
	// splitting the range when the provider reports too many results
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// ERC721TokenURI reads tokenURI(tokenId) at the given block.
	// Returns domain.ErrContractCallReverted when the call reverts.
	ERC721TokenURI(ctx context.Context, contractAddress string, tokenNumber string, blockNumber uint64) (string, error)

	// Close closes the connection
	Close()
}

type ethereumClient struct {
	chainID       domain.Chain
	client        adapter.EthClient
	blockProvider block.BlockProvider
}

func NewClient(chainID domain.Chain, client adapter.EthClient, blockProvider block.BlockProvider) EthereumClient {
	return &ethereumClient{chainID: chainID, client: client, blockProvider: blockProvider}
}

// SubscribeFilterLogs subscribes to filter logs
func (c *ethereumClient) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.client.SubscribeFilterLogs(ctx, query, ch)
}

// FilterLogs fetches the logs of a closed block range
func (c *ethereumClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	if query.BlockHash != nil {
		return c.client.FilterLogs(ctx, query)
	}
	if query.FromBlock == nil || query.ToBlock == nil {
		return nil, fmt.Errorf("FilterLogs requires both FromBlock and ToBlock")
	}
	if query.FromBlock.Cmp(query.ToBlock) > 0 {
		return nil, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, FILTER_LOGS_TIMEOUT)
	defer cancel()

	stepSize := new(big.Int).Sub(query.ToBlock, query.FromBlock).Uint64() + 1
	return c.getLogsWithRetry(timeoutCtx, query, stepSize)
}

// getLogsWithRetry walks the range in chunks, halving the chunk whenever the provider rejects it as too large
func (c *ethereumClient) getLogsWithRetry(ctx context.Context, query ethereum.FilterQuery, stepSize uint64) ([]types.Log, error) {
	currentStepSize := stepSize

	var allLogs []types.Log
	currentFrom := new(big.Int).Set(query.FromBlock)

	for currentFrom.Cmp(query.ToBlock) <= 0 {
		currentTo := new(big.Int).Add(currentFrom, new(big.Int).SetUint64(currentStepSize-1))
		if currentTo.Cmp(query.ToBlock) > 0 {
			currentTo.Set(query.ToBlock)
		}

		queryCopy := query
		queryCopy.FromBlock = new(big.Int).Set(currentFrom)
		queryCopy.ToBlock = new(big.Int).Set(currentTo)

		logs, err := c.client.FilterLogs(ctx, queryCopy)
		if err == nil {
			allLogs = append(allLogs, logs...)
			currentFrom.SetUint64(currentTo.Uint64() + 1)
			continue
		}

		if !isTooManyResultsError(err) || currentStepSize == 1 {
			return nil, fmt.Errorf("failed to get logs for range %d-%d: %w", currentFrom.Uint64(), currentTo.Uint64(), err)
		}

		currentStepSize = currentStepSize / 2

		logger.WarnCtx(ctx, "Too many results, reducing step size",
			zap.Uint64("oldStepSize", currentStepSize*2),
			zap.Uint64("newStepSize", currentStepSize),
			zap.Uint64("fromBlock", currentFrom.Uint64()),
			zap.Uint64("toBlock", currentTo.Uint64()))
	}

	return allLogs, nil
}

// isTooManyResultsError checks if the error is related to too many results
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum")
}

// isRevertError reports whether a contract call failed because the EVM reverted.
// Providers return the revert as a JSON-RPC error, so the sentinel cannot be matched with errors.Is.
func isRevertError(err error) bool {
	return err != nil && strings.Contains(err.Error(), vm.ErrExecutionReverted.Error())
}

// ERC721TokenURI fetches the tokenURI of a token as of the given block
func (c *ethereumClient) ERC721TokenURI(ctx context.Context, contractAddress string, tokenNumber string, blockNumber uint64) (string, error) {
	tokenID, ok := new(big.Int).SetString(tokenNumber, 10)
	if !ok {
		return "", fmt.Errorf("invalid token number: %s", tokenNumber)
	}

	data, err := marketplaceABI.Pack("tokenURI", tokenID)
	if err != nil {
		return "", fmt.Errorf("failed to pack data: %w", err)
	}

	contractAddr := common.HexToAddress(contractAddress)
	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contractAddr,
		Data: data,
	}, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		if isRevertError(err) {
			return "", fmt.Errorf("%w: tokenURI(%s): %v", domain.ErrContractCallReverted, tokenNumber, err)
		}
		return "", fmt.Errorf("failed to call contract: %w", err)
	}

	// old contracts revert without a reason and some nodes report that as an empty result
	if len(result) == 0 {
		return "", fmt.Errorf("%w: tokenURI(%s) returned no data", domain.ErrContractCallReverted, tokenNumber)
	}

	var uri string
	if err := marketplaceABI.UnpackIntoInterface(&uri, "tokenURI", result); err != nil {
		return "", fmt.Errorf("failed to unpack result: %w", err)
	}

	return uri, nil
}

// ParseEventLog parses a marketplace log into a normalized event
func (c *ethereumClient) ParseEventLog(ctx context.Context, vLog types.Log) (*domain.MarketplaceEvent, error) {
	if len(vLog.Topics) == 0 {
		return nil, fmt.Errorf("%w: no topics", domain.ErrMalformedLog)
	}

	eventType, ok := eventTypes[vLog.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event signature %s", domain.ErrUnsupportedEvent, vLog.Topics[0].Hex())
	}

	fields, err := decodeLogFields(vLog)
	if err != nil {
		return nil, err
	}

	timestamp, err := c.blockProvider.GetBlockTimestamp(ctx, vLog.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get block timestamp: %w", err)
	}

	blockHash := vLog.BlockHash.Hex()
	event := &domain.MarketplaceEvent{
		Chain:           c.chainID,
		ContractAddress: vLog.Address.Hex(),
		EventType:       eventType,
		TxHash:          vLog.TxHash.Hex(),
		BlockNumber:     vLog.BlockNumber,
		BlockHash:       &blockHash,
		LogIndex:        vLog.Index,
		Timestamp:       timestamp,
	}

	if event.TokenID, err = uintField(fields, "_tokenId"); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedLog, eventType, err)
	}

	switch eventType {
	case domain.EventTypeTransfer:
		event.FromAddress, err = addressField(fields, "_from")
		if err == nil {
			event.ToAddress, err = addressField(fields, "_to")
		}

	case domain.EventTypeBid, domain.EventTypeCancelBid:
		event.Bidder, err = addressField(fields, "_bidder")
		if err == nil {
			event.Amount, err = amountField(fields, "_amount")
		}

	case domain.EventTypeAcceptBid:
		event.Bidder, err = addressField(fields, "_bidder")
		if err == nil {
			event.Seller, err = addressField(fields, "_seller")
		}
		if err == nil {
			event.Amount, err = amountField(fields, "_amount")
		}

	case domain.EventTypeSold:
		event.Buyer, err = addressField(fields, "_buyer")
		if err == nil {
			event.Seller, err = addressField(fields, "_seller")
		}
		if err == nil {
			event.Amount, err = amountField(fields, "_amount")
		}

	case domain.EventTypeSalePriceSet:
		event.Amount, err = amountField(fields, "_price")
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedLog, eventType, err)
	}

	return event, nil
}

func amountField(fields map[string]interface{}, name string) (*string, error) {
	amount, err := uintField(fields, name)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}

// Close closes the connection
func (c *ethereumClient) Close() {
	c.client.Close()
}
