package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hotwellkz/course-api/internal/domain"
	"github.com/hotwellkz/course-api/internal/pkg/id"
	"github.com/hotwellkz/course-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// Passwords shorter than this are rejected with CodeWeakPassword.
const minPasswordLen = 6

// GooglePayload carries the verified claims needed to upsert a
// federated account.
type GooglePayload struct {
	Sub           string
	Email         string
	EmailVerified bool
}

// Store is the credential-store collaborator: it owns identity,
// password hashes and the email-verification flag. All failures are
// coded (*Error); callers classify codes, never match message strings.
type Store interface {
	CreateAccount(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Account, error)
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	UpsertGoogleAccount(ctx context.Context, p GooglePayload) (*domain.Account, error)
	ChangePassword(ctx context.Context, accountID, newPassword string) error
	IsAccountVerified(ctx context.Context, accountID string) (bool, error)
	MarkVerified(ctx context.Context, accountID string) error
}

type accountStore interface {
	Put(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByGoogleSub(ctx context.Context, sub string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
}

type store struct {
	accounts accountStore
}

func NewStore(accounts accountStore) Store {
	return &store{accounts: accounts}
}

// CreateAccount registers a new email/password credential. Emails are
// compared case-insensitively by lowercasing before storage and lookup.
func (s *store) CreateAccount(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", newError(CodeInvalidEmail, err)
	}
	if len(password) < minPasswordLen {
		return "", newError(CodeWeakPassword, nil)
	}
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return "", newError(CodeEmailAlreadyInUse, nil)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", newError(CodeInternal, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", newError(CodeInternal, err)
	}
	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:    id.New(),
		Email:        email,
		PasswordHash: string(hash),
		AuthProvider: domain.ProviderPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Put(ctx, a); err != nil {
		return "", newError(CodeInternal, err)
	}
	return a.AccountID, nil
}

// Authenticate validates an email/password pair. A missing account and
// a wrong password both yield CodeInvalidCredentials so the caller
// cannot tell which field was wrong.
func (s *store) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	a, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, newError(CodeInvalidCredentials, nil)
		}
		return nil, newError(CodeInternal, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, newError(CodeInvalidCredentials, nil)
	}
	return a, nil
}

func (s *store) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, newError(CodeAccountNotFound, err)
		}
		return nil, newError(CodeInternal, err)
	}
	return a, nil
}

// UpsertGoogleAccount finds or creates the account for a verified
// Google identity. Lookup is by Google subject first, then by email so
// an existing password account gains the federated link instead of
// being duplicated.
func (s *store) UpsertGoogleAccount(ctx context.Context, p GooglePayload) (*domain.Account, error) {
	email := normalizeEmail(p.Email)

	if a, err := s.accounts.GetByGoogleSub(ctx, p.Sub); err == nil {
		return a, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, newError(CodeInternal, err)
	}

	if a, err := s.accounts.GetByEmail(ctx, email); err == nil {
		updates := map[string]interface{}{"google_sub": p.Sub}
		if p.EmailVerified && !a.EmailVerified {
			updates["email_verified"] = true
		}
		if err := s.accounts.Update(ctx, a.AccountID, updates); err != nil {
			return nil, newError(CodeInternal, err)
		}
		a.GoogleSub = p.Sub
		a.EmailVerified = a.EmailVerified || p.EmailVerified
		return a, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, newError(CodeInternal, err)
	}

	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:     id.New(),
		Email:         email,
		EmailVerified: p.EmailVerified,
		AuthProvider:  domain.ProviderGoogle,
		GoogleSub:     p.Sub,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.accounts.Put(ctx, a); err != nil {
		return nil, newError(CodeInternal, err)
	}
	return a, nil
}

func (s *store) ChangePassword(ctx context.Context, accountID, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return newError(CodeWeakPassword, nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return newError(CodeInternal, err)
	}
	if err := s.accounts.Update(ctx, accountID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return newError(CodeInternal, err)
	}
	return nil
}

// IsAccountVerified reads the live credential record. The flag is never
// cached because verification can complete out-of-band in another tab.
func (s *store) IsAccountVerified(ctx context.Context, accountID string) (bool, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, newError(CodeAccountNotFound, err)
		}
		return false, newError(CodeInternal, err)
	}
	return a.EmailVerified, nil
}

func (s *store) MarkVerified(ctx context.Context, accountID string) error {
	if err := s.accounts.Update(ctx, accountID, map[string]interface{}{"email_verified": true}); err != nil {
		return newError(CodeInternal, err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
