package http

import (
	"github.com/hotwellkz/course-api/internal/infrastructure/dynamo"
	"github.com/hotwellkz/course-api/internal/infrastructure/google"
	jwtinfra "github.com/hotwellkz/course-api/internal/infrastructure/jwt"
	"github.com/hotwellkz/course-api/internal/infrastructure/smtp"
	"github.com/redis/go-redis/v9"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo      *dynamo.AccountRepo
	ProfileRepo      *dynamo.ProfileRepo
	CompletionRepo   *dynamo.CompletionRepo
	SessionRepo      *dynamo.SessionRepo
	VerificationRepo *dynamo.VerificationRepo
	Mailer           smtp.Mailer
	JWTProvider      *jwtinfra.Provider
	GoogleVerifier   *google.Verifier
	Redis            *redis.Client
}
