package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hotwellkz/course-api/internal/domain"
)

// Service records and reads lesson-completion facts. Marking is
// idempotent: lesson pages may signal completion more than once
// (navigation races, retries after a dropped connection), and a fact
// must never be corrupted or multiplied by repeated signaling.
type Service interface {
	MarkComplete(ctx context.Context, accountID, lessonID string) error
	IsComplete(ctx context.Context, accountID, lessonID string) (bool, error)
	ListCompleted(ctx context.Context, accountID string) ([]domain.CompletionRecord, error)
}

type completionStore interface {
	CreateIfAbsent(ctx context.Context, rec *domain.CompletionRecord) error
	Exists(ctx context.Context, accountID, lessonID string) (bool, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.CompletionRecord, error)
}

type service struct {
	completions completionStore
}

func NewService(completions completionStore) Service {
	return &service{completions: completions}
}

func (s *service) MarkComplete(ctx context.Context, accountID, lessonID string) error {
	if accountID == "" || lessonID == "" {
		return fmt.Errorf("account and lesson required: %w", domain.ErrNotFound)
	}
	rec := &domain.CompletionRecord{
		AccountID:   accountID,
		LessonID:    lessonID,
		CompletedAt: time.Now().UTC(),
	}
	err := s.completions.CreateIfAbsent(ctx, rec)
	if errors.Is(err, context.DeadlineExceeded) {
		// Idempotent, so one automatic retry after a timeout is safe:
		// a duplicate create is ignored by the store's key constraint.
		err = s.completions.CreateIfAbsent(ctx, rec)
	}
	if err != nil {
		return fmt.Errorf("record completion: %w", domain.ErrUnknown)
	}
	return nil
}

func (s *service) IsComplete(ctx context.Context, accountID, lessonID string) (bool, error) {
	ok, err := s.completions.Exists(ctx, accountID, lessonID)
	if errors.Is(err, context.DeadlineExceeded) {
		ok, err = s.completions.Exists(ctx, accountID, lessonID)
	}
	if err != nil {
		return false, fmt.Errorf("check completion: %w", domain.ErrUnknown)
	}
	return ok, nil
}

func (s *service) ListCompleted(ctx context.Context, accountID string) ([]domain.CompletionRecord, error) {
	recs, err := s.completions.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", domain.ErrUnknown)
	}
	return recs, nil
}
