package accounts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryRepo holds the account list in process memory, guarded by a mutex
// since handlers run on real OS threads. Mutations are lost on restart.
type MemoryRepo struct {
	mutex    sync.RWMutex
	accounts map[int]*Account
}

func NewMemoryRepo(accounts []Account) *MemoryRepo {
	byID := make(map[int]*Account, len(accounts))
	for i := range accounts {
		a := accounts[i]
		byID[a.ID] = &a
	}
	return &MemoryRepo{accounts: byID}
}

// NewMemoryRepoFromEnv seeds the repo from a base64-encoded JSON account
// list, the format emitted by cmd/accounts_gen.
func NewMemoryRepoFromEnv(encodedAccounts string) (*MemoryRepo, error) {
	decoded, err := base64.StdEncoding.DecodeString(encodedAccounts)
	if err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	var accounts []Account
	if err := json.Unmarshal(decoded, &accounts); err != nil {
		return nil, fmt.Errorf("unmarshal accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts provided")
	}

	return NewMemoryRepo(accounts), nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id int) (*Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	accountCopy := *account
	return &accountCopy, nil
}

func (r *MemoryRepo) GetByEmail(_ context.Context, email string) (*Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	// case-sensitive exact match
	for _, account := range r.accounts {
		if account.Email == email {
			accountCopy := *account
			return &accountCopy, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (r *MemoryRepo) UpdatePasswordHash(_ context.Context, id int, passwordHash string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}

	account.PasswordHash = passwordHash
	return nil
}

func (r *MemoryRepo) UpdateProfile(_ context.Context, id int, update ProfileUpdate) (*Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	if update.Name != nil {
		account.Name = *update.Name
	}
	if update.Email != nil {
		account.Email = *update.Email
	}
	if update.Phone != nil {
		account.Phone = *update.Phone
	}

	accountCopy := *account
	return &accountCopy, nil
}
