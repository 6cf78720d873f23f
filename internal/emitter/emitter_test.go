package emitter_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/emitter"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/messaging"
	"github.com/feral-file/ff-marketplace-indexer/internal/mocks"
)

const contractAddress = "0x41A322b28D0fF354040e2CbC676F0320d8c8850d"

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testEmitterMocks contains all the mocks needed for testing the emitter
type testEmitterMocks struct {
	ctrl       *gomock.Controller
	subscriber *mocks.MockSubscriber
	publisher  *mocks.MockPublisher
	store      *mocks.MockStore
	clock      *mocks.MockClock
}

// setupTestEmitter creates all the mocks for testing
func setupTestEmitter(t *testing.T) *testEmitterMocks {
	ctrl := gomock.NewController(t)

	return &testEmitterMocks{
		ctrl:       ctrl,
		subscriber: mocks.NewMockSubscriber(ctrl),
		publisher:  mocks.NewMockPublisher(ctrl),
		store:      mocks.NewMockStore(ctrl),
		clock:      mocks.NewMockClock(ctrl),
	}
}

// newEmitter builds an emitter backed by the test mocks
func (tm *testEmitterMocks) newEmitter(startBlock uint64, saveFreq uint64) emitter.Emitter {
	return emitter.NewEmitter(
		tm.subscriber,
		tm.publisher,
		tm.store,
		emitter.Config{
			ChainID:         domain.ChainEthereumMainnet,
			StartBlock:      startBlock,
			CursorSaveFreq:  saveFreq,
			CursorSaveDelay: 5 * time.Second,
		},
		tm.clock,
	)
}

// tearDownTestEmitter cleans up the test mocks
func tearDownTestEmitter(mocks *testEmitterMocks) {
	mocks.ctrl.Finish()
}

func stringPtr(s string) *string {
	return &s
}

// mintEvent returns a mint transfer at the given block
func mintEvent(blockNumber uint64) *domain.MarketplaceEvent {
	return &domain.MarketplaceEvent{
		Chain:           domain.ChainEthereumMainnet,
		ContractAddress: contractAddress,
		EventType:       domain.EventTypeTransfer,
		TokenID:         "1",
		FromAddress:     stringPtr(domain.ETHEREUM_ZERO_ADDRESS),
		ToAddress:       stringPtr("0x5f3c5E2d0B0f8C7bD1c3b6A2E9f1d4C7a8B9e0F1"),
		TxHash:          "0xtx",
		BlockNumber:     blockNumber,
		LogIndex:        0,
		Timestamp:       time.Unix(1522000000, 0).UTC(),
	}
}

func TestEmitter_Run_WithStartBlock(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitterInstance := mocks.newEmitter(1000, 10)

	now := time.Now()
	mocks.clock.EXPECT().Now().Return(now).MinTimes(1)
	mocks.clock.EXPECT().Since(gomock.Any()).Return(time.Duration(0)).AnyTimes()

	// No cursor stored yet, so the configured start block is used
	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(0), nil)

	event := mintEvent(1001)
	mocks.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1000), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler interface{}) error {
			handlerFunc := handler.(messaging.EventHandler)
			_ = handlerFunc(event)

			// Cancel context to stop the emitter
			cancel()
			return nil
		})

	mocks.publisher.
		EXPECT().
		PublishEvent(gomock.Any(), event).
		Return(nil)

	// 1001 - 0 >= 10, so the cursor is saved at the first event
	mocks.store.
		EXPECT().
		SetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet), uint64(1001)).
		Return(nil)

	err := emitterInstance.Run(ctx)

	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestEmitter_Run_WithLastBlockCursor(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The stored cursor wins over the configured start block
	emitterInstance := mocks.newEmitter(100, 10)

	now := time.Now()
	mocks.clock.EXPECT().Now().Return(now).AnyTimes()
	mocks.clock.EXPECT().Since(gomock.Any()).Return(time.Duration(0)).AnyTimes()

	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(500), nil)

	// The cursor block is read again since it may not have been fully published
	mocks.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(500), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler interface{}) error {
			cancel()
			return nil
		})

	err := emitterInstance.Run(ctx)

	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestEmitter_Run_WithNoLastBlockCursor(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitterInstance := mocks.newEmitter(0, 10)

	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(0), nil)

	now := time.Now()
	mocks.clock.EXPECT().Now().Return(now).AnyTimes()
	mocks.clock.EXPECT().Since(gomock.Any()).Return(time.Duration(0)).AnyTimes()

	mocks.subscriber.
		EXPECT().
		GetLatestBlock(gomock.Any()).
		Return(uint64(1000), nil)

	mocks.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1000), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler interface{}) error {
			cancel()
			return nil
		})

	err := emitterInstance.Run(ctx)

	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestEmitter_Run_CursorSaveByBlockFrequency(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitterInstance := mocks.newEmitter(1000, 5)

	now := time.Now()
	mocks.clock.EXPECT().Now().Return(now).AnyTimes()
	mocks.clock.EXPECT().Since(gomock.Any()).Return(time.Duration(0)).AnyTimes()

	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(0), nil)

	mocks.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1000), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler interface{}) error {
			handlerFunc := handler.(messaging.EventHandler)

			for _, blockNum := range []uint64{1000, 1002, 1005, 1010} {
				event := mintEvent(blockNum)

				mocks.publisher.
					EXPECT().
					PublishEvent(gomock.Any(), event).
					Return(nil)

				// Block 1002 is within 5 blocks of 1000 and is not saved
				if blockNum != 1002 {
					mocks.store.
						EXPECT().
						SetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet), blockNum).
						Return(nil)
				}

				if err := handlerFunc(event); err != nil {
					return err
				}
			}

			cancel()
			return nil
		})

	err := emitterInstance.Run(ctx)

	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestEmitter_Run_CursorSaveByDelay(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitterInstance := mocks.newEmitter(1000, 100)

	now := time.Now()
	mocks.clock.EXPECT().Now().Return(now).AnyTimes()
	mocks.clock.EXPECT().Since(now).Return(10 * time.Second)

	// The first event saves on block distance, the second on elapsed time
	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(0), nil)
	mocks.publisher.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	mocks.store.
		EXPECT().
		SetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet), uint64(1000)).
		Return(nil)
	mocks.store.
		EXPECT().
		SetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet), uint64(1001)).
		Return(nil)

	mocks.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1000), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler interface{}) error {
			handlerFunc := handler.(messaging.EventHandler)
			assert.NoError(t, handlerFunc(mintEvent(1000)))
			assert.NoError(t, handlerFunc(mintEvent(1001)))
			cancel()
			return nil
		})

	err := emitterInstance.Run(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestEmitter_Run_CursorSaveErrorIsNotFatal(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitterInstance := mocks.newEmitter(1000, 1)

	now := time.Now()
	mocks.clock.EXPECT().Now().Return(now).AnyTimes()
	mocks.clock.EXPECT().Since(gomock.Any()).Return(time.Duration(0)).AnyTimes()

	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(0), nil)
	mocks.publisher.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).Return(nil)
	mocks.store.
		EXPECT().
		SetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet), uint64(1000)).
		Return(errors.New("database unavailable"))

	mocks.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1000), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler interface{}) error {
			handlerFunc := handler.(messaging.EventHandler)
			assert.NoError(t, handlerFunc(mintEvent(1000)))
			cancel()
			return nil
		})

	err := emitterInstance.Run(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestEmitter_Run_GetBlockCursorError(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	emitterInstance := mocks.newEmitter(0, 10)

	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(0), errors.New("database error"))

	err := emitterInstance.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get block cursor")
}

func TestEmitter_Run_GetLatestBlockError(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	emitterInstance := mocks.newEmitter(0, 10)

	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(0), nil)

	mocks.subscriber.
		EXPECT().
		GetLatestBlock(gomock.Any()).
		Return(uint64(0), errors.New("rpc error"))

	err := emitterInstance.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get latest block number")
}

func TestEmitter_Run_SubscribeEventsError(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	emitterInstance := mocks.newEmitter(1000, 10)

	mocks.clock.EXPECT().Now().Return(time.Now()).AnyTimes()
	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(0), nil)

	subscriptionErr := errors.New("subscription failed")
	mocks.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1000), gomock.Any()).
		Return(subscriptionErr)

	err := emitterInstance.Run(context.Background())

	assert.ErrorIs(t, err, subscriptionErr)
}

func TestEmitter_Run_SubscriptionEndsWithoutError(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	emitterInstance := mocks.newEmitter(1000, 10)

	mocks.clock.EXPECT().Now().Return(time.Now()).AnyTimes()
	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(0), nil)
	mocks.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1000), gomock.Any()).
		Return(nil)

	err := emitterInstance.Run(context.Background())

	assert.ErrorIs(t, err, domain.ErrSubscriptionFailed)
}

func TestEmitter_Run_PublishEventError(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	emitterInstance := mocks.newEmitter(1000, 10)

	mocks.clock.EXPECT().Now().Return(time.Now()).AnyTimes()
	mocks.clock.EXPECT().Since(gomock.Any()).Return(time.Duration(0)).AnyTimes()
	mocks.store.
		EXPECT().
		GetBlockCursor(gomock.Any(), string(domain.ChainEthereumMainnet)).
		Return(uint64(0), nil)

	publishErr := errors.New("nats unavailable")
	event := mintEvent(1001)
	mocks.publisher.
		EXPECT().
		PublishEvent(gomock.Any(), event).
		Return(publishErr)

	// A publish failure aborts the subscription without saving the cursor
	mocks.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1000), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler interface{}) error {
			handlerFunc := handler.(messaging.EventHandler)
			return handlerFunc(event)
		})

	err := emitterInstance.Run(context.Background())

	assert.ErrorIs(t, err, publishErr)
	assert.Contains(t, err.Error(), "failed to publish event")
}

func TestEmitter_Close(t *testing.T) {
	mocks := setupTestEmitter(t)
	defer tearDownTestEmitter(mocks)

	mocks.subscriber.EXPECT().Close()

	mocks.newEmitter(0, 10).Close()
}
