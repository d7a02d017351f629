package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hotwellkz/course-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeCompletionStore emulates the composite-key constraint: a losing
// duplicate create is silently ignored, never overwriting completed_at.
type fakeCompletionStore struct {
	mu   sync.Mutex
	recs map[string]domain.CompletionRecord
}

func newFakeCompletionStore() *fakeCompletionStore {
	return &fakeCompletionStore{recs: make(map[string]domain.CompletionRecord)}
}

func key(accountID, lessonID string) string { return accountID + "/" + lessonID }

func (f *fakeCompletionStore) CreateIfAbsent(ctx context.Context, rec *domain.CompletionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(rec.AccountID, rec.LessonID)
	if _, exists := f.recs[k]; exists {
		return nil
	}
	f.recs[k] = *rec
	return nil
}

func (f *fakeCompletionStore) Exists(ctx context.Context, accountID, lessonID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.recs[key(accountID, lessonID)]
	return ok, nil
}

func (f *fakeCompletionStore) ListByAccount(ctx context.Context, accountID string) ([]domain.CompletionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CompletionRecord
	for _, r := range f.recs {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCompletionStore) get(accountID, lessonID string) (domain.CompletionRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recs[key(accountID, lessonID)]
	return r, ok
}

type mockCompletionStore struct{ mock.Mock }

func (m *mockCompletionStore) CreateIfAbsent(ctx context.Context, rec *domain.CompletionRecord) error {
	return m.Called(ctx, rec).Error(0)
}
func (m *mockCompletionStore) Exists(ctx context.Context, accountID, lessonID string) (bool, error) {
	args := m.Called(ctx, accountID, lessonID)
	return args.Bool(0), args.Error(1)
}
func (m *mockCompletionStore) ListByAccount(ctx context.Context, accountID string) ([]domain.CompletionRecord, error) {
	args := m.Called(ctx, accountID)
	recs, _ := args.Get(0).([]domain.CompletionRecord)
	return recs, args.Error(1)
}

func TestMarkComplete_ThenIsComplete(t *testing.T) {
	cs := newFakeCompletionStore()
	svc := NewService(cs)
	ctx := context.Background()

	done, err := svc.IsComplete(ctx, "acc-1", "lesson-1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, svc.MarkComplete(ctx, "acc-1", "lesson-1"))

	done, err = svc.IsComplete(ctx, "acc-1", "lesson-1")
	require.NoError(t, err)
	assert.True(t, done)

	// Other lesson ids are unaffected.
	done, err = svc.IsComplete(ctx, "acc-1", "lesson-2")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestMarkComplete_IdempotentKeepsFirstTimestamp(t *testing.T) {
	cs := newFakeCompletionStore()
	svc := NewService(cs)
	ctx := context.Background()

	require.NoError(t, svc.MarkComplete(ctx, "acc-1", "lesson-1"))
	first, ok := cs.get("acc-1", "lesson-1")
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.MarkComplete(ctx, "acc-1", "lesson-1"))

	second, ok := cs.get("acc-1", "lesson-1")
	require.True(t, ok)
	assert.Equal(t, first.CompletedAt, second.CompletedAt)

	recs, err := svc.ListCompleted(ctx, "acc-1")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestMarkComplete_ConcurrentDuplicatesYieldOneRecord(t *testing.T) {
	cs := newFakeCompletionStore()
	svc := NewService(cs)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.MarkComplete(context.Background(), "acc-1", "lesson-1")
		}()
	}
	wg.Wait()

	recs, err := svc.ListCompleted(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestMarkComplete_EmptyIDsRejected(t *testing.T) {
	svc := NewService(newFakeCompletionStore())
	assert.Error(t, svc.MarkComplete(context.Background(), "", "lesson-1"))
	assert.Error(t, svc.MarkComplete(context.Background(), "acc-1", ""))
}

func TestMarkComplete_TimeoutRetriedOnce(t *testing.T) {
	cs := &mockCompletionStore{}
	cs.On("CreateIfAbsent", mock.Anything, mock.Anything).
		Return(context.DeadlineExceeded).Once()
	cs.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(nil).Once()

	svc := NewService(cs)
	require.NoError(t, svc.MarkComplete(context.Background(), "acc-1", "lesson-1"))
	cs.AssertExpectations(t)
}

func TestMarkComplete_SecondTimeoutSurfacesUnknown(t *testing.T) {
	cs := &mockCompletionStore{}
	cs.On("CreateIfAbsent", mock.Anything, mock.Anything).
		Return(context.DeadlineExceeded).Times(2)

	svc := NewService(cs)
	err := svc.MarkComplete(context.Background(), "acc-1", "lesson-1")
	assert.ErrorIs(t, err, domain.ErrUnknown)
	cs.AssertNumberOfCalls(t, "CreateIfAbsent", 2)
}

func TestIsComplete_TimeoutRetriedOnce(t *testing.T) {
	cs := &mockCompletionStore{}
	cs.On("Exists", mock.Anything, "acc-1", "lesson-1").
		Return(false, context.DeadlineExceeded).Once()
	cs.On("Exists", mock.Anything, "acc-1", "lesson-1").Return(true, nil).Once()

	svc := NewService(cs)
	done, err := svc.IsComplete(context.Background(), "acc-1", "lesson-1")
	require.NoError(t, err)
	assert.True(t, done)
	cs.AssertExpectations(t)
}
