package accounts

import (
	"context"
	"errors"
)

var ErrAccountNotFound = errors.New("account not found")

var _ Repo = (*MemoryRepo)(nil)
var _ Repo = (*PsqlRepo)(nil)

// Repo is the account lookup/update surface used by the auth service.
//
// The memory repo (env-seeded, mutations lost on restart, as the first
// dashboard revisions behaved) is the default; the psql repo makes
// password and profile changes survive restarts.
type Repo interface {
	GetByID(ctx context.Context, id int) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error
	UpdateProfile(ctx context.Context, id int, update ProfileUpdate) (*Account, error)
}
