package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/loopmarket/treasury/internal/adapter/http/handler"
	"github.com/loopmarket/treasury/internal/adapter/http/middleware"
	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/infrastructure/auth"
	"github.com/loopmarket/treasury/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	OrderHandler       *handler.OrderHandler
	LoanHandler        *handler.LoanHandler
	ConsistencyHandler *handler.ConsistencyHandler
	HealthHandler      *handler.HealthHandler
	JWTManager         *auth.JWTManager
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	Logger             zerolog.Logger
	RateLimit          float64
	RateBurst          int
}

// NewRouter creates the HTTP router. Background goroutines it starts,
// such as the rate limiter eviction loop, stop when ctx is canceled.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)

	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
		r.Use(limiter.Limit)

		go limiter.StartCleanup(ctx, time.Hour)
	}

	// Health endpoints stay open
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWTManager))

		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/entries", cfg.AccountHandler.ListEntries)
			r.Post("/{id}/membership-fee", cfg.AccountHandler.MembershipFee)
			r.Post("/points/convert", cfg.AccountHandler.ConvertPoints)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Post("/", cfg.AccountHandler.Create)
				r.Get("/", cfg.AccountHandler.List)
				r.Post("/{id}/deposit", cfg.AccountHandler.Deposit)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", cfg.OrderHandler.Create)
			r.Get("/", cfg.OrderHandler.ListMine)
			r.Get("/{id}", cfg.OrderHandler.Get)
			r.Post("/{id}/confirm-payment", cfg.OrderHandler.ConfirmPayment)
			r.Post("/{id}/ready", cfg.OrderHandler.Ready)
			r.Post("/{id}/complete", cfg.OrderHandler.Complete)
			r.Post("/{id}/cancel", cfg.OrderHandler.Cancel)
			r.Post("/{id}/dispute", cfg.OrderHandler.Dispute)

			r.With(middleware.RequireRole(domain.RoleCourier)).
				Post("/{id}/delivery", cfg.OrderHandler.AdvanceDelivery)
			r.With(middleware.RequireRole(domain.RoleAdmin)).
				Post("/{id}/resolve", cfg.OrderHandler.ResolveDispute)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", cfg.LoanHandler.Request)
			r.Get("/", cfg.LoanHandler.ListMine)
			r.Get("/{id}", cfg.LoanHandler.Get)
			r.Get("/{id}/installments", cfg.LoanHandler.Installments)
			r.Post("/{id}/cancel", cfg.LoanHandler.Cancel)
			r.Post("/{id}/pay", cfg.LoanHandler.Pay)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Post("/{id}/approve", cfg.LoanHandler.Approve)
				r.Post("/{id}/reject", cfg.LoanHandler.Reject)
			})
		})

		r.With(middleware.RequireRole(domain.RoleAdmin)).
			Get("/consistency", cfg.ConsistencyHandler.Check)
	})

	return r
}
