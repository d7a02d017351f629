package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hotwellkz/course-api/internal/domain"
	"github.com/hotwellkz/course-api/internal/infrastructure/identity"
	"github.com/hotwellkz/course-api/internal/pkg/token"
	"github.com/redis/go-redis/v9"
)

const (
	verTypeEmail = "email"
	tokenTTL     = 24 * time.Hour
)

// Service sends and confirms email-ownership verification and exposes
// the current verification state.
type Service interface {
	// Send emails a fresh confirmation token. Over the resend
	// threshold it returns domain.ErrTooManyRequests without touching
	// the mail transport; callers report this and back off, never
	// auto-retry.
	Send(ctx context.Context, accountID string) error
	// Confirm validates an emailed token and flips the verified flag.
	Confirm(ctx context.Context, accountID, code string) error
	// IsVerified reads the live credential record; the flag is never
	// cached because the user may complete verification in another tab.
	IsVerified(ctx context.Context, accountID string) (bool, error)
}

type tokenStore interface {
	Put(ctx context.Context, v *domain.VerificationToken) error
	Get(ctx context.Context, accountID, verType string) (*domain.VerificationToken, error)
	Delete(ctx context.Context, accountID, verType string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type service struct {
	identity      identity.Store
	tokens        tokenStore
	mailer        mailer
	limiter       *resendLimiter
	verifyBaseURL string
}

func NewService(idStore identity.Store, tokens tokenStore, m mailer, redisClient *redis.Client, maxSends int, window time.Duration, verifyBaseURL string) Service {
	return &service{
		identity:      idStore,
		tokens:        tokens,
		mailer:        m,
		limiter:       newResendLimiter(redisClient, maxSends, window),
		verifyBaseURL: verifyBaseURL,
	}
}

func (s *service) Send(ctx context.Context, accountID string) error {
	if err := s.limiter.Check(ctx, accountID); err != nil {
		if errors.Is(err, errResendRateLimited) {
			return fmt.Errorf("resend cool-down active: %w", domain.ErrTooManyRequests)
		}
		return fmt.Errorf("resend limiter: %w", domain.ErrUnknown)
	}

	a, err := s.identity.Get(ctx, accountID)
	if err != nil {
		if identity.CodeOf(err) == identity.CodeAccountNotFound {
			return fmt.Errorf("account missing: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("load account: %w", domain.ErrUnknown)
	}

	code, err := token.NewVerificationCode(32)
	if err != nil {
		return fmt.Errorf("generate code: %w", domain.ErrUnknown)
	}
	v := &domain.VerificationToken{
		AccountID: accountID,
		Type:      verTypeEmail,
		Code:      code,
		ExpiresAt: time.Now().Add(tokenTTL).Unix(),
	}
	if err := s.tokens.Put(ctx, v); err != nil {
		return fmt.Errorf("store verification token: %w", domain.ErrUnknown)
	}

	link := fmt.Sprintf("%s?account_id=%s&code=%s", s.verifyBaseURL, accountID, code)
	if err := s.mailer.SendEmail(a.Email, "Confirm your email", "Follow this link to confirm your email: "+link); err != nil {
		return fmt.Errorf("send verification email: %w", domain.ErrVerificationSendFailed)
	}
	return nil
}

func (s *service) Confirm(ctx context.Context, accountID, code string) error {
	v, err := s.tokens.Get(ctx, accountID, verTypeEmail)
	if err != nil {
		return fmt.Errorf("token not found: %w", domain.ErrNotFound)
	}
	if v.Code != code {
		return fmt.Errorf("token mismatch: %w", domain.ErrNotFound)
	}
	if v.ExpiresAt < time.Now().Unix() {
		return fmt.Errorf("token expired: %w", domain.ErrNotFound)
	}
	if err := s.tokens.Delete(ctx, accountID, verTypeEmail); err != nil {
		slog.Warn("failed to delete verification token", "account_id", accountID, "err", err)
	}
	if err := s.identity.MarkVerified(ctx, accountID); err != nil {
		return fmt.Errorf("mark verified: %w", domain.ErrUnknown)
	}
	return nil
}

func (s *service) IsVerified(ctx context.Context, accountID string) (bool, error) {
	verified, err := s.identity.IsAccountVerified(ctx, accountID)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		// A timed-out read is safe to retry exactly once.
		verified, err = s.identity.IsAccountVerified(ctx, accountID)
	}
	if err != nil {
		if identity.CodeOf(err) == identity.CodeAccountNotFound {
			return false, fmt.Errorf("account missing: %w", domain.ErrNotFound)
		}
		return false, fmt.Errorf("read verified flag: %w", domain.ErrUnknown)
	}
	return verified, nil
}
