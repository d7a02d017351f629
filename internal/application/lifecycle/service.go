package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hotwellkz/course-api/internal/application/verification"
	"github.com/hotwellkz/course-api/internal/domain"
	"github.com/hotwellkz/course-api/internal/infrastructure/google"
	"github.com/hotwellkz/course-api/internal/infrastructure/identity"
	"github.com/hotwellkz/course-api/internal/pkg/id"
	"github.com/hotwellkz/course-api/internal/pkg/token"
)

// AuthResult is the response to any operation that establishes or
// renews an authenticated session.
type AuthResult struct {
	AccountID     string `json:"account_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	SessionID     string `json:"session_id"`
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
}

// Service drives the account state machine: registration, both sign-in
// paths, verification resend, password change, sign-out and refresh.
// Every failure it returns belongs to the domain error taxonomy.
type Service interface {
	Register(ctx context.Context, email, password string) (*domain.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	FederatedSignIn(ctx context.Context, idToken string) (*AuthResult, error)
	ResendVerification(ctx context.Context, accountID string) error
	ChangePassword(ctx context.Context, accountID, newPassword string) error
	SignOut(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
}

type profileStore interface {
	CreateIfAbsent(ctx context.Context, p *domain.Profile) error
	UpsertMerge(ctx context.Context, p *domain.Profile) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
}

type tokenSigner interface {
	Sign(accountID, sessionID string) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, idToken string) (*google.Payload, error)
}

type service struct {
	ids          identity.Store
	profiles     profileStore
	sessions     sessionStore
	signer       tokenSigner
	google       googleVerifier
	verification verification.Service

	startingTokens int
	refreshTTL     time.Duration
}

func NewService(
	ids identity.Store,
	profiles profileStore,
	sessions sessionStore,
	signer tokenSigner,
	gv googleVerifier,
	vs verification.Service,
	startingTokens int,
	refreshTTL time.Duration,
) Service {
	return &service{
		ids:            ids,
		profiles:       profiles,
		sessions:       sessions,
		signer:         signer,
		google:         gv,
		verification:   vs,
		startingTokens: startingTokens,
		refreshTTL:     refreshTTL,
	}
}

// Register runs the three registration steps strictly in order:
// credential, verification send, profile seed. A send failure is
// reported without rolling back the credential; the stranded account
// is repaired on its first successful login.
func (s *service) Register(ctx context.Context, email, password string) (*domain.RegisterResult, error) {
	accountID, err := s.ids.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, mapIdentityErr(err)
	}

	if err := s.verification.Send(ctx, accountID); err != nil {
		slog.Warn("registration verification send failed",
			slog.String("account_id", accountID), slog.Any("error", err))
		if errors.Is(err, domain.ErrTooManyRequests) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", domain.ErrVerificationSendFailed)
	}

	if err := s.seedProfile(ctx, accountID, email); err != nil {
		slog.Warn("registration profile seed failed",
			slog.String("account_id", accountID), slog.Any("error", err))
		return nil, fmt.Errorf("register: %w", domain.ErrUnknown)
	}

	return &domain.RegisterResult{AccountID: accountID, RequiresVerification: true}, nil
}

// Login authenticates and issues a session. The profile is ensured via
// a create-if-absent seed, which doubles as the repair path for
// accounts whose registration died after the credential step.
func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.ids.Authenticate(ctx, email, password)
	if err != nil {
		return nil, mapIdentityErr(err)
	}

	if err := s.seedProfile(ctx, account.AccountID, account.Email); err != nil {
		return nil, fmt.Errorf("login: %w", domain.ErrUnknown)
	}

	return s.issueSession(ctx, account)
}

// FederatedSignIn verifies a Google ID token, upserts the credential
// and merge-upserts the profile. The merge writes tokens and
// created_at only when absent, so a returning account keeps its
// balance across repeated sign-ins.
func (s *service) FederatedSignIn(ctx context.Context, idToken string) (*AuthResult, error) {
	payload, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	account, err := s.ids.UpsertGoogleAccount(ctx, identity.GooglePayload{
		Sub:           payload.Sub,
		Email:         payload.Email,
		EmailVerified: payload.EmailVerified,
	})
	if err != nil {
		slog.Warn("google account upsert failed", slog.Any("error", err))
		return nil, fmt.Errorf("federated sign-in: %w", domain.ErrProviderSignInFailed)
	}

	if err := s.profiles.UpsertMerge(ctx, &domain.Profile{
		AccountID: account.AccountID,
		Email:     account.Email,
		Tokens:    s.startingTokens,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("federated sign-in: %w", domain.ErrUnknown)
	}

	return s.issueSession(ctx, account)
}

func (s *service) ResendVerification(ctx context.Context, accountID string) error {
	if accountID == "" {
		return domain.ErrNotAuthenticated
	}
	return s.verification.Send(ctx, accountID)
}

func (s *service) ChangePassword(ctx context.Context, accountID, newPassword string) error {
	if accountID == "" {
		return domain.ErrNotAuthenticated
	}
	if err := s.ids.ChangePassword(ctx, accountID, newPassword); err != nil {
		return mapIdentityErr(err)
	}
	return nil
}

// SignOut disables the session. From the caller's point of view it
// always succeeds; a store failure is logged and swallowed so the
// client can discard its credentials either way.
func (s *service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Disable(ctx, sessionID); err != nil {
		slog.Warn("sign-out session disable failed",
			slog.String("session_id", sessionID), slog.Any("error", err))
	}
	return nil
}

// Refresh rotates the refresh token and issues a fresh bearer for the
// same session.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNotAuthenticated) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("refresh: %w", domain.ErrUnknown)
	}
	if time.Now().UTC().Unix() > sess.RefreshExpiresAt {
		return nil, domain.ErrNotAuthenticated
	}

	account, err := s.ids.Get(ctx, sess.AccountID)
	if err != nil {
		return nil, mapIdentityErr(err)
	}

	newRefresh, err := token.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", domain.ErrUnknown)
	}
	newExpiry := time.Now().UTC().Add(s.refreshTTL).Unix()
	if err := s.sessions.RotateRefreshToken(ctx, sess.SessionID, newRefresh, newExpiry); err != nil {
		return nil, fmt.Errorf("refresh: %w", domain.ErrUnknown)
	}

	bearer, err := s.signer.Sign(account.AccountID, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", domain.ErrUnknown)
	}

	return &AuthResult{
		AccountID:     account.AccountID,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		SessionID:     sess.SessionID,
		AccessToken:   bearer,
		RefreshToken:  newRefresh,
	}, nil
}

func (s *service) seedProfile(ctx context.Context, accountID, email string) error {
	return s.profiles.CreateIfAbsent(ctx, &domain.Profile{
		AccountID: accountID,
		Email:     email,
		Tokens:    s.startingTokens,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *service) issueSession(ctx context.Context, account *domain.Account) (*AuthResult, error) {
	refresh, err := token.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", domain.ErrUnknown)
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		AccountID:        account.AccountID,
		Enable:           true,
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(s.refreshTTL).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("issue session: %w", domain.ErrUnknown)
	}

	bearer, err := s.signer.Sign(account.AccountID, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", domain.ErrUnknown)
	}

	return &AuthResult{
		AccountID:     account.AccountID,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		SessionID:     sess.SessionID,
		AccessToken:   bearer,
		RefreshToken:  refresh,
	}, nil
}
