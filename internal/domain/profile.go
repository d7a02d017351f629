package domain

import "time"

// Profile is the durable per-account record of token balance and
// metadata. One per account. Tokens never goes negative; it is only
// mutated through the ledger's conditional debit, plus the one-time
// seed at creation.
type Profile struct {
	AccountID string    `json:"account_id" dynamodbav:"account_id"`
	Email     string    `json:"email" dynamodbav:"email"` // snapshot at creation
	Tokens    int       `json:"tokens" dynamodbav:"tokens"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type DebitRequest struct {
	Amount int `json:"amount" validate:"required"`
}
