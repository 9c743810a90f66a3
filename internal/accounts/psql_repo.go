package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PsqlRepo keeps accounts in postgres, so password and profile changes
// survive restarts. Schema:
//
//	CREATE TABLE account (
//	    id            SERIAL PRIMARY KEY,
//	    email         TEXT NOT NULL UNIQUE,
//	    name          TEXT NOT NULL,
//	    password_hash TEXT NOT NULL,
//	    role          TEXT NOT NULL,
//	    phone         TEXT NOT NULL DEFAULT ''
//	);
type PsqlRepo struct {
	db *pgxpool.Pool
}

func NewPsqlRepo(db *pgxpool.Pool) *PsqlRepo {
	return &PsqlRepo{db: db}
}

func (r *PsqlRepo) GetByID(ctx context.Context, id int) (*Account, error) {
	return r.getOne(
		ctx,
		`SELECT id, email, name, password_hash, role, phone FROM account WHERE id = $1;`,
		id,
	)
}

func (r *PsqlRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.getOne(
		ctx,
		`SELECT id, email, name, password_hash, role, phone FROM account WHERE email = $1;`,
		email,
	)
}

func (r *PsqlRepo) getOne(ctx context.Context, query string, arg any) (*Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

func (r *PsqlRepo) UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE account SET password_hash = $1 WHERE id = $2;`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PsqlRepo) UpdateProfile(ctx context.Context, id int, update ProfileUpdate) (*Account, error) {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE account SET
			name  = COALESCE($1, name),
			email = COALESCE($2, email),
			phone = COALESCE($3, phone)
		WHERE id = $4;`,
		update.Name, update.Email, update.Phone, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAccountNotFound
	}
	return r.GetByID(ctx, id)
}
