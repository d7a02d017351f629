package domain

import "time"

// Auth providers recorded on an account.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Account is the credential record owned by the identity store.
// Email is stored lowercased; uniqueness is checked via the email GSI.
type Account struct {
	AccountID     string    `json:"id" dynamodbav:"account_id"`
	Email         string    `json:"email" dynamodbav:"email"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	EmailVerified bool      `json:"email_verified" dynamodbav:"email_verified"`
	AuthProvider  string    `json:"auth_provider" dynamodbav:"auth_provider"` // "password" | "google"
	GoogleSub     string    `json:"-" dynamodbav:"google_sub"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterResult is returned when all three registration steps
// (credential, verification send, profile seed) have succeeded.
type RegisterResult struct {
	AccountID            string `json:"account_id"`
	RequiresVerification bool   `json:"requires_verification"`
}
