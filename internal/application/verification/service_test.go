package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hotwellkz/course-api/internal/domain"
	"github.com/hotwellkz/course-api/internal/infrastructure/identity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockIdentity struct{ mock.Mock }

func (m *mockIdentity) CreateAccount(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}
func (m *mockIdentity) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	args := m.Called(ctx, email, password)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockIdentity) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockIdentity) UpsertGoogleAccount(ctx context.Context, p identity.GooglePayload) (*domain.Account, error) {
	args := m.Called(ctx, p)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockIdentity) ChangePassword(ctx context.Context, accountID, newPassword string) error {
	return m.Called(ctx, accountID, newPassword).Error(0)
}
func (m *mockIdentity) IsAccountVerified(ctx context.Context, accountID string) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}
func (m *mockIdentity) MarkVerified(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

type mockTokenStore struct{ mock.Mock }

func (m *mockTokenStore) Put(ctx context.Context, v *domain.VerificationToken) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockTokenStore) Get(ctx context.Context, accountID, verType string) (*domain.VerificationToken, error) {
	args := m.Called(ctx, accountID, verType)
	if v, _ := args.Get(0).(*domain.VerificationToken); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenStore) Delete(ctx context.Context, accountID, verType string) error {
	return m.Called(ctx, accountID, verType).Error(0)
}

// countingMailer records every transport call so tests can prove the
// cool-down stops network traffic, not just surfaces an error.
type countingMailer struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (m *countingMailer) SendEmail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.fail
}

func (m *countingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- helpers ---

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestService(t *testing.T, idStore identity.Store, tokens tokenStore, m mailer) (Service, *miniredis.Miniredis) {
	t.Helper()
	mr, client := newTestRedis(t)
	svc := NewService(idStore, tokens, m, client, 5, 15*time.Minute, "http://localhost/confirm")
	return svc, mr
}

// --- Send tests ---

func TestSend_HappyPath(t *testing.T) {
	id := &mockIdentity{}
	id.On("Get", mock.Anything, "acc-1").Return(&domain.Account{AccountID: "acc-1", Email: "a@b.com"}, nil)
	ts := &mockTokenStore{}
	ts.On("Put", mock.Anything, mock.MatchedBy(func(v *domain.VerificationToken) bool {
		return v.AccountID == "acc-1" && v.Type == "email" && len(v.Code) == 32 && v.ExpiresAt > time.Now().Unix()
	})).Return(nil)
	m := &countingMailer{}

	svc, _ := newTestService(t, id, ts, m)
	require.NoError(t, svc.Send(context.Background(), "acc-1"))
	assert.Equal(t, 1, m.count())
	ts.AssertExpectations(t)
}

func TestSend_MailerFailure(t *testing.T) {
	id := &mockIdentity{}
	id.On("Get", mock.Anything, "acc-1").Return(&domain.Account{AccountID: "acc-1", Email: "a@b.com"}, nil)
	ts := &mockTokenStore{}
	ts.On("Put", mock.Anything, mock.Anything).Return(nil)
	m := &countingMailer{fail: errors.New("smtp: connection refused")}

	svc, _ := newTestService(t, id, ts, m)
	err := svc.Send(context.Background(), "acc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVerificationSendFailed)
}

func TestSend_RapidResends_CoolDownStopsTransportCalls(t *testing.T) {
	id := &mockIdentity{}
	id.On("Get", mock.Anything, "acc-1").Return(&domain.Account{AccountID: "acc-1", Email: "a@b.com"}, nil)
	ts := &mockTokenStore{}
	ts.On("Put", mock.Anything, mock.Anything).Return(nil)
	m := &countingMailer{}

	svc, mr := newTestService(t, id, ts, m)

	var rateLimited int
	for i := 0; i < 10; i++ {
		err := svc.Send(context.Background(), "acc-1")
		if errors.Is(err, domain.ErrTooManyRequests) {
			rateLimited++
		} else {
			require.NoError(t, err)
		}
	}

	// Threshold is 5: the remaining 5 calls hit the cool-down and no
	// further transport calls occur.
	assert.Equal(t, 5, rateLimited)
	assert.Equal(t, 5, m.count())

	// Still inside the window: no sends, no transport.
	err := svc.Send(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrTooManyRequests)
	assert.Equal(t, 5, m.count())

	// After the window elapses the account may resend again.
	mr.FastForward(15*time.Minute + time.Second)
	require.NoError(t, svc.Send(context.Background(), "acc-1"))
	assert.Equal(t, 6, m.count())
}

func TestSend_CoolDownIsPerAccount(t *testing.T) {
	id := &mockIdentity{}
	id.On("Get", mock.Anything, mock.Anything).Return(&domain.Account{AccountID: "x", Email: "a@b.com"}, nil)
	ts := &mockTokenStore{}
	ts.On("Put", mock.Anything, mock.Anything).Return(nil)
	m := &countingMailer{}

	svc, _ := newTestService(t, id, ts, m)

	for i := 0; i < 6; i++ {
		_ = svc.Send(context.Background(), "acc-1")
	}
	// acc-2 is unaffected by acc-1's cool-down.
	require.NoError(t, svc.Send(context.Background(), "acc-2"))
}

// --- Confirm tests ---

func TestConfirm_HappyPath(t *testing.T) {
	id := &mockIdentity{}
	id.On("MarkVerified", mock.Anything, "acc-1").Return(nil)
	ts := &mockTokenStore{}
	ts.On("Get", mock.Anything, "acc-1", "email").Return(&domain.VerificationToken{
		AccountID: "acc-1", Type: "email", Code: "code123",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	ts.On("Delete", mock.Anything, "acc-1", "email").Return(nil)

	svc, _ := newTestService(t, id, ts, &countingMailer{})
	require.NoError(t, svc.Confirm(context.Background(), "acc-1", "code123"))
	id.AssertExpectations(t)
}

func TestConfirm_WrongCode(t *testing.T) {
	id := &mockIdentity{}
	ts := &mockTokenStore{}
	ts.On("Get", mock.Anything, "acc-1", "email").Return(&domain.VerificationToken{
		Code: "code123", ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)

	svc, _ := newTestService(t, id, ts, &countingMailer{})
	err := svc.Confirm(context.Background(), "acc-1", "wrong")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	id.AssertNotCalled(t, "MarkVerified")
}

func TestConfirm_ExpiredToken(t *testing.T) {
	id := &mockIdentity{}
	ts := &mockTokenStore{}
	ts.On("Get", mock.Anything, "acc-1", "email").Return(&domain.VerificationToken{
		Code: "code123", ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}, nil)

	svc, _ := newTestService(t, id, ts, &countingMailer{})
	err := svc.Confirm(context.Background(), "acc-1", "code123")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- IsVerified tests ---

func TestIsVerified_NotCached(t *testing.T) {
	id := &mockIdentity{}
	id.On("IsAccountVerified", mock.Anything, "acc-1").Return(false, nil).Once()
	id.On("IsAccountVerified", mock.Anything, "acc-1").Return(true, nil).Once()

	svc, _ := newTestService(t, id, &mockTokenStore{}, &countingMailer{})

	v, err := svc.IsVerified(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.False(t, v)

	v, err = svc.IsVerified(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, v)
	id.AssertExpectations(t)
}

func TestIsVerified_AccountMissing(t *testing.T) {
	id := &mockIdentity{}
	id.On("IsAccountVerified", mock.Anything, "acc-1").
		Return(false, &identity.Error{Code: identity.CodeAccountNotFound})

	svc, _ := newTestService(t, id, &mockTokenStore{}, &countingMailer{})
	_, err := svc.IsVerified(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
