package http

import (
	"net/http"

	"github.com/go-accounts-api/internal/application/account"
	"github.com/go-accounts-api/internal/application/auth"
	"github.com/go-accounts-api/internal/config"
	"github.com/go-accounts-api/internal/infrastructure/google"
	"github.com/go-accounts-api/internal/infrastructure/postgres"
	redisinfra "github.com/go-accounts-api/internal/infrastructure/redis"
	"github.com/go-accounts-api/internal/infrastructure/smtp"
	"github.com/go-accounts-api/internal/transport/http/handler"
	appmiddleware "github.com/go-accounts-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router. The account
// service is built once in main and shared with the purge sweeper.
type Deps struct {
	IdentityRepo   *postgres.IdentityRepo
	ProfileRepo    *postgres.ProfileRepo
	OTPStore       *redisinfra.OTPStore
	SessionStore   *redisinfra.SessionStore
	ProfileCache   *redisinfra.ProfileCache
	Mailer         smtp.Mailer
	GoogleVerifier *google.Verifier
	AccountService account.Service
}

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
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, applied to credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		IdentityRepo:   deps.IdentityRepo,
		ProfileRepo:    deps.ProfileRepo,
		OTPStore:       deps.OTPStore,
		SessionStore:   deps.SessionStore,
		ProfileCache:   deps.ProfileCache,
		Mailer:         deps.Mailer,
		GoogleVerifier: deps.GoogleVerifier,
	})
	secureCookies := cfg.AppEnv == "production"
	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, secureCookies)
	accountH := handler.NewAccountHandler(deps.AccountService, deps.SessionStore, secureCookies)

	sessionAuth := appmiddleware.SessionAuth(deps.SessionStore)

	r.Route("/v1", func(r chi.Router) {
		// Public routes.
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/verify-otp", authH.VerifyOTP)
		r.With(sensitiveRL.Limit).Post("/auth/google", authH.GoogleLogin)
		r.With(sensitiveRL.Limit).Post("/auth/password-reset/request", authH.RequestPasswordReset)
		r.With(sensitiveRL.Limit).Post("/auth/password-reset", authH.ResetPassword)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(sessionAuth)

			r.Get("/auth/me", authH.Me)
			r.Post("/auth/logout", authH.Logout)

			r.Get("/accounts/profile", accountH.GetProfile)
			r.Put("/accounts/profile", accountH.UpdateProfile)
			r.Put("/accounts/profile/avatar", accountH.UpdateAvatar)
			r.Post("/accounts/deactivate", accountH.Deactivate)
			r.Post("/accounts/reactivate", accountH.Reactivate)
			r.Delete("/accounts", accountH.Delete)
		})
	})

	return r
}
