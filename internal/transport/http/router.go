package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hotwellkz/course-api/internal/application/ledger"
	"github.com/hotwellkz/course-api/internal/application/lifecycle"
	"github.com/hotwellkz/course-api/internal/application/progress"
	"github.com/hotwellkz/course-api/internal/application/verification"
	"github.com/hotwellkz/course-api/internal/config"
	"github.com/hotwellkz/course-api/internal/infrastructure/identity"
	"github.com/hotwellkz/course-api/internal/transport/http/handler"
	appmiddleware "github.com/hotwellkz/course-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, on the sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	idStore := identity.NewStore(deps.AccountRepo)
	verificationSvc := verification.NewService(idStore, deps.VerificationRepo,
		deps.Mailer, deps.Redis, cfg.ResendMaxSends, cfg.ResendWindow, cfg.VerifyBaseURL)
	lifecycleSvc := lifecycle.NewService(idStore, deps.ProfileRepo, deps.SessionRepo,
		deps.JWTProvider, deps.GoogleVerifier, verificationSvc,
		cfg.StartingTokens, time.Duration(cfg.RefreshTokenExpiryDays)*24*time.Hour)
	ledgerSvc := ledger.NewService(deps.ProfileRepo)
	progressSvc := progress.NewService(deps.CompletionRepo)

	healthH := handler.NewHealthHandler()
	accountH := handler.NewAccountHandler(lifecycleSvc)
	sessionH := handler.NewSessionHandler(lifecycleSvc)
	profileH := handler.NewProfileHandler(ledgerSvc, lifecycleSvc)
	lessonH := handler.NewLessonHandler(progressSvc)
	verificationH := handler.NewVerificationHandler(verificationSvc, lifecycleSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/accounts", accountH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/sessions/google", sessionH.GoogleSignIn)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/verification/confirm", verificationH.Confirm)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/sessions/logout", sessionH.Logout)
			r.Get("/profile", profileH.Get)
			r.Post("/profile/password", profileH.ChangePassword)
			r.Post("/tokens/debit", profileH.Debit)
			r.Get("/verification", verificationH.Status)
			r.Post("/verification/resend", verificationH.Resend)
			r.Post("/lessons/{lessonID}/complete", lessonH.MarkComplete)
			r.Get("/lessons/{lessonID}/status", lessonH.Status)
			r.Get("/lessons/completed", lessonH.ListCompleted)
		})
	})

	return r
}
