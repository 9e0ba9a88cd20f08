// Package app assembles the HTTP router and its dependency graph. Both the
// api binary and the integration tests build the service through here so the
// wiring under test is the wiring in production.
package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/negoride/platform/internal/auth"
	"github.com/negoride/platform/internal/guard"
	"github.com/negoride/platform/internal/handler"
	"github.com/negoride/platform/internal/ledger"
	"github.com/negoride/platform/internal/policy"
	"github.com/negoride/platform/internal/projection"
	"github.com/negoride/platform/internal/provider"
	"github.com/negoride/platform/internal/reconcile"
	"github.com/negoride/platform/internal/repository"
	"github.com/negoride/platform/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	JWTMgr *auth.JWTManager
	Logger *slog.Logger
	Cache  projection.Store
	// External gateway config
	StripeSecretKey     string
	StripeWebhookSecret string
	// Payment policy
	ServiceFeePercent int64
	DefaultCurrency   string
	Policy            *policy.PaymentPolicy // nil = defaults
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	cache := deps.Cache
	if cache == nil {
		cache = projection.NewInMemoryStore()
	}

	// Repositories
	paymentRepo := repository.NewPaymentRepository()
	ledgerRepo := repository.NewLedgerRepository()
	walletRepo := repository.NewWalletRepository()
	outboxRepo := repository.NewOutboxRepository()
	negotiationRepo := repository.NewNegotiationRepository()

	// Ledger engine and reconciliation
	engine := ledger.NewEngine(paymentRepo, ledgerRepo, walletRepo, outboxRepo, negotiationRepo, logger)
	coordinator := reconcile.NewCoordinator(pool, paymentRepo, engine, logger)

	// External gateway
	stripeGateway := provider.NewStripeGateway(deps.StripeSecretKey, deps.StripeWebhookSecret)

	pol := policy.DefaultPaymentPolicy()
	if deps.Policy != nil {
		pol = *deps.Policy
	}

	// Services
	idemGuard := guard.NewIdempotencyGuard()
	paymentSvc := service.NewPaymentService(pool, stripeGateway, stripeGateway, paymentRepo, engine,
		coordinator, idemGuard, cache, pol, deps.ServiceFeePercent, deps.DefaultCurrency, logger)
	walletSvc := service.NewWalletService(pool, walletRepo, engine, cache, logger)

	// Handlers
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	walletHandler := handler.NewWalletHandler(walletSvc)
	webhookHandler := handler.NewWebhookHandler(paymentSvc, logger)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Webhooks (no auth, raw body required for signature verification)
	r.Post("/webhooks/stripe", webhookHandler.HandleStripeWebhook)

	// User-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateUser(jwtMgr))
		r.Use(handler.JSONContentType)

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", paymentHandler.InitiatePayment)
			r.Get("/", paymentHandler.ListPayments)
			r.Get("/{id}", paymentHandler.GetPayment)
			r.Post("/{id}/confirm", paymentHandler.ConfirmPayment)
			r.Post("/{id}/cancel", paymentHandler.CancelPayment)
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", walletHandler.GetWallet)
			r.Get("/ledger", walletHandler.GetLedger)
		})
	})

	// Ops-authenticated routes
	r.Route("/ops", func(r chi.Router) {
		r.Use(auth.AuthenticateOps(jwtMgr))
		r.Use(handler.JSONContentType)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole("operator", "admin"))
			r.Post("/payments/{id}/refund", paymentHandler.RequestRefund)
			r.Post("/wallets/{userID}/rebuild", walletHandler.RebuildWallet)
		})
	})

	return r
}
