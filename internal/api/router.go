package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "crediflow/docs"

	"crediflow/internal/api/handler"
	mw "crediflow/internal/api/middleware"
	"crediflow/internal/config"
	"crediflow/internal/domain/client"
	"crediflow/internal/domain/loan"
)

// Dependencies bundles everything the HTTP surface needs.
type Dependencies struct {
	LoanService     loan.Service
	ClientService   client.Service
	AdvisoryService handler.AdvisoryService
	Redis           *redis.Client
}

func SetupRouter(deps Dependencies, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, deps.Redis, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupClientRoutes(router, cfg, deps.ClientService, logger)
	setupLoanRoutes(router, deps.LoanService, cfg, logger)
	setupAdvisoryRoutes(router, deps, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, rdb *redis.Client, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, rdb, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(*cfg, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupLoanRoutes(router *chi.Mux, loanService loan.Service, cfg *config.Config, logger *slog.Logger) {
	loanHandler := handler.NewLoanHandler(loanService, logger)

	router.Route("/loans", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", loanHandler.CreateLoan)
		r.Get("/", loanHandler.ListLoans)
		r.Post("/preview", loanHandler.PreviewSchedule)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", loanHandler.GetLoan)
			r.Get("/schedule", loanHandler.GetSchedule)
			r.Get("/outstanding", loanHandler.GetOutstanding)
			r.Get("/progress", loanHandler.GetProgress)
			r.Post("/payments", loanHandler.RegisterPayment)
		})
	})
}

func setupClientRoutes(r chi.Router, cfg *config.Config, svc client.Service, logger *slog.Logger) {
	h := handler.NewClientHandler(svc, logger)

	r.Route("/clients", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateClient)
		r.Get("/", h.ListClients)
		r.Route("/{clientID}", func(r chi.Router) {
			r.Get("/", h.GetClient)
			r.Delete("/", h.DeactivateClient)
			r.Patch("/contact", h.UpdateContact)
			r.Put("/delinquency", h.UpdateDelinquency)
			r.Post("/reactivate", h.ReactivateClient)
		})
	})
}

func setupAdvisoryRoutes(router *chi.Mux, deps Dependencies, cfg *config.Config, logger *slog.Logger) {
	if deps.AdvisoryService == nil {
		logger.Warn("Advisory service not configured, skipping advisory routes")
		return
	}
	h := handler.NewAdvisoryHandler(deps.AdvisoryService, deps.ClientService, deps.LoanService, logger)

	router.Route("/advisory", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/risk", h.AnalyzeRisk)
		r.Post("/reminder", h.GenerateReminder)
	})
}
