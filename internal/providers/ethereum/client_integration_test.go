package ethereum

import (
	"context"
	"errors"
	"math/big"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/block"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/uri"
)

// TestMarketplaceLogs_Integration decodes a real block range of the marketplace contract.
// ETHEREUM_TEST_FROM_BLOCK overrides the start of the 5000-block window.
func TestMarketplaceLogs_Integration(t *testing.T) {
	rpcURL := os.Getenv("ETHEREUM_RPC_URL")
	if rpcURL == "" {
		t.Skip("Skipping integration test: ETHEREUM_RPC_URL not set")
	}

	fromBlock := uint64(5_400_000)
	if v := os.Getenv("ETHEREUM_TEST_FROM_BLOCK"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		require.NoError(t, err)
		fromBlock = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, rpcURL)
	require.NoError(t, err)
	t.Cleanup(func() { ethClient.Close() })

	blockProvider := block.NewBlockProvider(
		NewEthereumBlockFetcher(ethClient),
		block.Config{TTL: 5 * time.Second, StaleWindow: 30 * time.Second},
		adapter.NewClock(),
	)
	client := NewClient(domain.ChainEthereumMainnet, ethClient, blockProvider)

	logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(contractAddress)},
		Topics:    [][]common.Hash{MarketplaceEventSignatures()},
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(fromBlock + 5000),
	})
	require.NoError(t, err)
	t.Logf("log count: %d", len(logs))

	mints := 0
	for _, vLog := range logs {
		event, err := client.ParseEventLog(ctx, vLog)
		require.NoError(t, err)
		assert.True(t, event.Valid(), event.ID())

		if event.EventType != domain.EventTypeTransfer || !domain.IsZeroAddress(*event.FromAddress) || mints >= 3 {
			continue
		}
		mints++

		tokenURI, err := client.ERC721TokenURI(ctx, contractAddress, event.TokenID, event.BlockNumber)
		if errors.Is(err, domain.ErrContractCallReverted) {
			t.Logf("tokenURI(%s) reverted at block %d", event.TokenID, event.BlockNumber)
			continue
		}
		require.NoError(t, err)

		hash, ok := uri.ExtractContentHash(tokenURI)
		t.Logf("tokenURI(%s) = %s (hash %q, ok %v)", event.TokenID, tokenURI, hash, ok)
	}
}
