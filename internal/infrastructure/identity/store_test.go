package identity

import (
	"context"
	"testing"

	"github.com/hotwellkz/course-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Put(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByGoogleSub(ctx context.Context, sub string) (*domain.Account, error) {
	args := m.Called(ctx, sub)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) Update(ctx context.Context, accountID string, updates map[string]interface{}) error {
	return m.Called(ctx, accountID, updates).Error(0)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestCreateAccount_InvalidEmail(t *testing.T) {
	s := NewStore(&mockAccountStore{})
	_, err := s.CreateAccount(context.Background(), "not-an-email", "secret1")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidEmail, CodeOf(err))
}

func TestCreateAccount_WeakPassword(t *testing.T) {
	s := NewStore(&mockAccountStore{})
	_, err := s.CreateAccount(context.Background(), "alice@example.com", "12345")
	require.Error(t, err)
	assert.Equal(t, CodeWeakPassword, CodeOf(err))
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.Account{}, nil)

	s := NewStore(as)
	_, err := s.CreateAccount(context.Background(), "Alice@Example.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, CodeEmailAlreadyInUse, CodeOf(err))
	as.AssertExpectations(t)
}

func TestCreateAccount_HappyPath_LowercasesEmail(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	as.On("Put", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
		return a.Email == "alice@example.com" &&
			a.AuthProvider == domain.ProviderPassword &&
			!a.EmailVerified &&
			a.PasswordHash != "" && a.PasswordHash != "secret1"
	})).Return(nil)

	s := NewStore(as)
	accountID, err := s.CreateAccount(context.Background(), " Alice@Example.com ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, accountID)
	as.AssertExpectations(t)
}

func TestAuthenticate_UnknownEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "missing@example.com").Return(nil, domain.ErrNotFound)
	as.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.Account{
		AccountID:    "acc-1",
		PasswordHash: hashOf(t, "correct-password"),
	}, nil)

	s := NewStore(as)

	_, errMissing := s.Authenticate(context.Background(), "missing@example.com", "whatever")
	_, errWrongPw := s.Authenticate(context.Background(), "alice@example.com", "wrong-password")

	require.Error(t, errMissing)
	require.Error(t, errWrongPw)
	assert.Equal(t, CodeInvalidCredentials, CodeOf(errMissing))
	assert.Equal(t, CodeInvalidCredentials, CodeOf(errWrongPw))
	assert.Equal(t, errMissing.Error(), errWrongPw.Error())
}

func TestAuthenticate_HappyPath(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.Account{
		AccountID:    "acc-1",
		Email:        "alice@example.com",
		PasswordHash: hashOf(t, "secret1"),
	}, nil)

	s := NewStore(as)
	a, err := s.Authenticate(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", a.AccountID)
}

func TestUpsertGoogleAccount_BySubShortCircuits(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByGoogleSub", mock.Anything, "sub-1").Return(&domain.Account{AccountID: "acc-1"}, nil)

	s := NewStore(as)
	a, err := s.UpsertGoogleAccount(context.Background(), GooglePayload{Sub: "sub-1", Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "acc-1", a.AccountID)
	as.AssertNotCalled(t, "Put")
}

func TestUpsertGoogleAccount_LinksExistingEmailAccount(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByGoogleSub", mock.Anything, "sub-1").Return(nil, domain.ErrNotFound)
	as.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.Account{
		AccountID:    "acc-1",
		Email:        "alice@example.com",
		AuthProvider: domain.ProviderPassword,
	}, nil)
	as.On("Update", mock.Anything, "acc-1", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["google_sub"] == "sub-1" && u["email_verified"] == true
	})).Return(nil)

	s := NewStore(as)
	a, err := s.UpsertGoogleAccount(context.Background(), GooglePayload{
		Sub: "sub-1", Email: "alice@example.com", EmailVerified: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "acc-1", a.AccountID)
	assert.True(t, a.EmailVerified)
	as.AssertExpectations(t)
}

func TestUpsertGoogleAccount_CreatesFreshAccount(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByGoogleSub", mock.Anything, "sub-1").Return(nil, domain.ErrNotFound)
	as.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	as.On("Put", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
		return a.AuthProvider == domain.ProviderGoogle && a.GoogleSub == "sub-1" && a.EmailVerified
	})).Return(nil)

	s := NewStore(as)
	a, err := s.UpsertGoogleAccount(context.Background(), GooglePayload{
		Sub: "sub-1", Email: "alice@example.com", EmailVerified: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.AccountID)
	as.AssertExpectations(t)
}

func TestChangePassword_Weak(t *testing.T) {
	s := NewStore(&mockAccountStore{})
	err := s.ChangePassword(context.Background(), "acc-1", "short")
	require.Error(t, err)
	assert.Equal(t, CodeWeakPassword, CodeOf(err))
}

func TestIsAccountVerified_ReadsLiveRecord(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "acc-1").Return(&domain.Account{AccountID: "acc-1", EmailVerified: false}, nil).Once()
	as.On("Get", mock.Anything, "acc-1").Return(&domain.Account{AccountID: "acc-1", EmailVerified: true}, nil).Once()

	s := NewStore(as)
	v1, err := s.IsAccountVerified(context.Background(), "acc-1")
	require.NoError(t, err)
	v2, err := s.IsAccountVerified(context.Background(), "acc-1")
	require.NoError(t, err)

	// Verification completed out-of-band between the two calls.
	assert.False(t, v1)
	assert.True(t, v2)
	as.AssertExpectations(t)
}
