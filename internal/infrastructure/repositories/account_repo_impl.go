package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/domain/repositories"
	"chamado.backend/pkg/logger"
)

// AccountRepository is the append-only signup list stored under AccountsKey
type AccountRepository struct {
	kv repositories.KeyValueStore
	mu sync.Mutex
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(kv repositories.KeyValueStore) *AccountRepository {
	return &AccountRepository{kv: kv}
}

// Append adds an account to the end of the list
func (r *AccountRepository) Append(ctx context.Context, account *entities.Account) error {
	if account == nil || account.ID == "" {
		return domainerrors.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := atomically(ctx, r.kv, func(ctx context.Context) error {
		list, err := r.list(ctx)
		if err != nil {
			return err
		}
		cp := *account
		list = append(list, &cp)

		payload, err := json.Marshal(list)
		if err != nil {
			return err
		}
		if err := r.kv.Set(ctx, repositories.AccountsKey, string(payload)); err != nil {
			return fmt.Errorf("write %s: %w", repositories.AccountsKey, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "Account appended", zap.String("id", account.ID))
	return nil
}

// List returns all accounts in signup order
func (r *AccountRepository) List(ctx context.Context) ([]*entities.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(ctx)
}

// FindByEmail returns the most recent account with the given email
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entities.Account, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	for i := len(list) - 1; i >= 0; i-- {
		if strings.EqualFold(list[i].Email, email) {
			return list[i], nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (r *AccountRepository) list(ctx context.Context) ([]*entities.Account, error) {
	raw, found, err := r.kv.Get(ctx, repositories.AccountsKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", repositories.AccountsKey, err)
	}
	if !found {
		return []*entities.Account{}, nil
	}
	var list []*entities.Account
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", repositories.AccountsKey, err)
	}
	return list, nil
}
