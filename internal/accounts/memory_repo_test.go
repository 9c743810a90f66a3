package accounts

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccounts() []Account {
	return []Account{
		{
			ID:           1,
			Email:        "admin@x.com",
			Name:         "Administrator",
			PasswordHash: "hash-1",
			Role:         RoleAdmin,
		},
		{
			ID:           2,
			Email:        "manager@x.com",
			Name:         "Manager",
			PasswordHash: "hash-2",
			Role:         RoleManager,
			Phone:        "+49123456",
		},
	}
}

func TestMemoryRepo_Get(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo(testAccounts())

	account, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "admin@x.com", account.Email)
	assert.Equal(t, RoleAdmin, account.Role)

	account, err = repo.GetByEmail(ctx, "manager@x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, account.ID)

	_, err = repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// email match is case-sensitive
	_, err = repo.GetByEmail(ctx, "Admin@x.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryRepo_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo(testAccounts())

	account, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	account.Name = "mutated"

	again, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Administrator", again.Name)
}

func TestMemoryRepo_UpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo(testAccounts())

	require.NoError(t, repo.UpdatePasswordHash(ctx, 1, "new-hash"))

	account, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", account.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, 42, "x"), ErrAccountNotFound)
}

func TestMemoryRepo_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo(testAccounts())

	newName := "New Name"
	newPhone := "+111"
	updated, err := repo.UpdateProfile(ctx, 2, ProfileUpdate{
		Name:  &newName,
		Phone: &newPhone,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "+111", updated.Phone)
	// email untouched
	assert.Equal(t, "manager@x.com", updated.Email)

	_, err = repo.UpdateProfile(ctx, 42, ProfileUpdate{Name: &newName})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestNewMemoryRepoFromEnv(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(
		`[{"id":1,"email":"admin@x.com","name":"Admin","password":"h","role":"admin"}]`,
	))

	repo, err := NewMemoryRepoFromEnv(encoded)
	require.NoError(t, err)

	account, err := repo.GetByEmail(context.Background(), "admin@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, account.ID)
	assert.Equal(t, "h", account.PasswordHash)
}

func TestNewMemoryRepoFromEnv_Invalid(t *testing.T) {
	_, err := NewMemoryRepoFromEnv("not-base64!!")
	assert.Error(t, err)

	_, err = NewMemoryRepoFromEnv(base64.StdEncoding.EncodeToString([]byte(`[]`)))
	assert.Error(t, err)

	_, err = NewMemoryRepoFromEnv(base64.StdEncoding.EncodeToString([]byte(`{"nope`)))
	assert.Error(t, err)
}
