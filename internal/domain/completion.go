package domain

import "time"

// CompletionRecord is the durable fact that an account finished a
// lesson. Keyed by (account_id, lesson_id); at most one record per
// pair. CompletedAt is the first-completion time and is never updated.
type CompletionRecord struct {
	AccountID   string    `json:"account_id" dynamodbav:"account_id"`
	LessonID    string    `json:"lesson_id" dynamodbav:"lesson_id"`
	CompletedAt time.Time `json:"completed_at" dynamodbav:"completed_at"`
}
