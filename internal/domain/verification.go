package domain

// VerificationToken stores emailed confirmation tokens.
// PK: account_id, SK: type ("email").
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type VerificationToken struct {
	AccountID string `json:"account_id" dynamodbav:"account_id"`
	Type      string `json:"type" dynamodbav:"type"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
