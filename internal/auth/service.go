package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"

	"github.com/busfleet/opsproxy/internal/accounts"
	"github.com/busfleet/opsproxy/pkg"
)

const passwordSymbols = "@$!%*?&"

// Service issues and verifies session tokens and manages account
// credentials on top of an accounts.Repo.
type Service struct {
	repo   accounts.Repo
	tokens *TokenIssuer
	// injectable for unit tests, bcrypt at real cost is slow
	HashFunc func(password string) (string, error)
}

func NewService(repo accounts.Repo, signingSecret string) *Service {
	return &Service{
		repo:     repo,
		tokens:   NewTokenIssuer(signingSecret, TokenTTL),
		HashFunc: pkg.HashPassword,
	}
}

type ChangePasswordConfirmation struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Service) Login(ctx context.Context, email, password string) (string, accounts.Summary, error) {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		// same error shape as for a wrong password
		return "", accounts.Summary{}, ErrInvalidCredentials
	}

	if !pkg.CheckPasswordHash(password, account.PasswordHash) {
		log.Tracef("failed login attempt for account %d", account.ID)
		return "", accounts.Summary{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(account)
	if err != nil {
		return "", accounts.Summary{}, fmt.Errorf("generate token: %w", err)
	}

	return token, account.Summary(), nil
}

func (s *Service) VerifyToken(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}

func (s *Service) ChangePassword(
	ctx context.Context,
	accountID int,
	currentPassword, newPassword string,
) (ChangePasswordConfirmation, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return ChangePasswordConfirmation{}, err
	}

	if !pkg.CheckPasswordHash(currentPassword, account.PasswordHash) {
		return ChangePasswordConfirmation{}, ErrInvalidCredentials
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return ChangePasswordConfirmation{}, err
	}

	if pkg.CheckPasswordHash(newPassword, account.PasswordHash) {
		return ChangePasswordConfirmation{}, ErrPasswordReused
	}

	newHash, err := s.HashFunc(newPassword)
	if err != nil {
		return ChangePasswordConfirmation{}, fmt.Errorf("hash new password: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, accountID, newHash); err != nil {
		return ChangePasswordConfirmation{}, err
	}

	log.Debugf("password changed for account %d", accountID)

	return ChangePasswordConfirmation{
		Success:   true,
		Message:   "password changed successfully",
		Timestamp: time.Now(),
	}, nil
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	accountID int,
	update accounts.ProfileUpdate,
) (accounts.Summary, error) {
	account, err := s.repo.UpdateProfile(ctx, accountID, update)
	if err != nil {
		return accounts.Summary{}, err
	}
	return account.Summary(), nil
}

func (s *Service) GetAccountSummary(ctx context.Context, accountID int) (accounts.Summary, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return accounts.Summary{}, err
	}
	return account.Summary(), nil
}

func validatePasswordStrength(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		return ErrWeakPassword
	}
	return nil
}
