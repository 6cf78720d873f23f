package indexer

import (
	"context"
	"fmt"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

// BuildAccount returns the account for an address without touching the store
func BuildAccount(address string) *schema.Account {
	return &schema.Account{
		ID:      domain.AccountID(address),
		Address: domain.NormalizeAddress(address),
	}
}

func (i *indexer) commitAccount(ctx context.Context, account *schema.Account) error {
	if err := i.store.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	return nil
}

// resolveAccount loads the account for an address, creating it on first sight
func (i *indexer) resolveAccount(ctx context.Context, address string) (*schema.Account, error) {
	id := domain.AccountID(address)

	account, err := i.store.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	if account != nil {
		return account, nil
	}

	account = BuildAccount(address)
	if err := i.commitAccount(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}
