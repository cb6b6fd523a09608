package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authhandler "github.com/rxreturn/rxreturn-backend/internal/auth/handler"
	"github.com/rxreturn/rxreturn-backend/internal/auth/jwt"
	authrepo "github.com/rxreturn/rxreturn-backend/internal/auth/repository"
	authservice "github.com/rxreturn/rxreturn-backend/internal/auth/service"
	cataloghandler "github.com/rxreturn/rxreturn-backend/internal/catalog/handler"
	catalogrepo "github.com/rxreturn/rxreturn-backend/internal/catalog/repository"
	catalogservice "github.com/rxreturn/rxreturn-backend/internal/catalog/service"
	"github.com/rxreturn/rxreturn-backend/internal/credits/estimator"
	creditshandler "github.com/rxreturn/rxreturn-backend/internal/credits/handler"
	creditsservice "github.com/rxreturn/rxreturn-backend/internal/credits/service"
	"github.com/rxreturn/rxreturn-backend/internal/events"
	invhandler "github.com/rxreturn/rxreturn-backend/internal/inventory/handler"
	invrepo "github.com/rxreturn/rxreturn-backend/internal/inventory/repository"
	invservice "github.com/rxreturn/rxreturn-backend/internal/inventory/service"
	opthandler "github.com/rxreturn/rxreturn-backend/internal/optimization/handler"
	optrepo "github.com/rxreturn/rxreturn-backend/internal/optimization/repository"
	optservice "github.com/rxreturn/rxreturn-backend/internal/optimization/service"
	returnshandler "github.com/rxreturn/rxreturn-backend/internal/returns/handler"
	returnsrepo "github.com/rxreturn/rxreturn-backend/internal/returns/repository"
	returnsservice "github.com/rxreturn/rxreturn-backend/internal/returns/service"
	"github.com/rxreturn/rxreturn-backend/pkg/config"
	"github.com/rxreturn/rxreturn-backend/pkg/database"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/messaging"
	"github.com/rxreturn/rxreturn-backend/pkg/metrics"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("api-server", cfg.Server.Environment)
	log.Info().Msg("starting RxReturn API server")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	pharmacyRepo := authrepo.NewPharmacyRepository(db)
	sessionRepo := authrepo.NewSessionRepository(db)
	productRepo := catalogrepo.NewProductRepository(db)
	distributorRepo := catalogrepo.NewDistributorRepository(db)
	reportRepo := catalogrepo.NewReportRepository(db)
	itemRepo := invrepo.NewItemRepository(db)
	returnRepo := returnsrepo.NewReturnRepository(db)
	packageRepo := optrepo.NewPackageRepository(db)

	// Initialize services
	jwtManager := jwt.NewManager(&cfg.JWT)
	est := estimator.New(cfg.Pricing)

	authSvc := authservice.NewAuthService(pharmacyRepo, sessionRepo, jwtManager, log)
	catalogSvc := catalogservice.NewCatalogService(productRepo, distributorRepo, reportRepo, publisher, log)
	inventorySvc := invservice.NewInventoryService(itemRepo, cfg.Pricing, publisher, log)
	returnsSvc := returnsservice.NewReturnsService(returnRepo, productRepo, est, publisher, log)
	creditsSvc := creditsservice.NewCreditsService(productRepo, est, log)
	optimizationSvc := optservice.NewOptimizationService(reportRepo, distributorRepo, packageRepo, itemRepo, est, publisher, log)

	// Initialize handlers
	authHandler := authhandler.NewAuthHandler(authSvc, log)
	adminHandler := authhandler.NewAdminHandler(pharmacyRepo, log)
	productHandler := cataloghandler.NewProductHandler(catalogSvc, log)
	distributorHandler := cataloghandler.NewDistributorHandler(catalogSvc, log)
	reportHandler := cataloghandler.NewReportHandler(catalogSvc, log)
	inventoryHandler := invhandler.NewInventoryHandler(inventorySvc, log)
	returnsHandler := returnshandler.NewReturnsHandler(returnsSvc, log)
	creditsHandler := creditshandler.NewCreditsHandler(creditsSvc, log)
	optimizationHandler := opthandler.NewOptimizationHandler(optimizationSvc, log)

	httpMetrics := metrics.NewHTTPMetrics("api-server")

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(httpMetrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "api-server",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// Prometheus metrics
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// Pharmacy routes
		r.Group(func(r chi.Router) {
			r.Use(authhandler.Authenticate(jwtManager))
			r.Use(authhandler.RequireActiveAccount(pharmacyRepo))

			r.Route("/inventory", func(r chi.Router) {
				r.Route("/items", func(r chi.Router) {
					r.Get("/", inventoryHandler.List)
					r.Post("/", inventoryHandler.Create)
					r.Get("/{id}", inventoryHandler.Get)
					r.Put("/{id}", inventoryHandler.Update)
					r.Delete("/{id}", inventoryHandler.Delete)
				})
				r.Get("/dashboard/stats", inventoryHandler.DashboardStats)
			})

			r.Route("/returns", func(r chi.Router) {
				r.Get("/", returnsHandler.List)
				r.Post("/", returnsHandler.Create)
				r.Get("/{id}", returnsHandler.Get)
				r.Put("/{id}", returnsHandler.UpdateItems)
				r.Put("/{id}/status", returnsHandler.UpdateStatus)
				r.Delete("/{id}", returnsHandler.Delete)
			})

			r.Route("/optimization", func(r chi.Router) {
				r.Get("/recommendations", optimizationHandler.Recommendations)
				r.Post("/suggestions", optimizationHandler.Suggestions)
				r.Post("/packages/suggestions", optimizationHandler.PackageSuggestions)
				r.Post("/packages/distributor-suggestion", optimizationHandler.DistributorSuggestion)
				r.Route("/custom-packages", func(r chi.Router) {
					r.Get("/", optimizationHandler.ListPackages)
					r.Post("/", optimizationHandler.CreatePackage)
					r.Get("/{id}", optimizationHandler.GetPackage)
					r.Put("/{id}/status", optimizationHandler.UpdatePackageStatus)
					r.Delete("/{id}", optimizationHandler.DeletePackage)
				})
			})

			r.Post("/credits/estimate", creditsHandler.Estimate)
			r.Get("/products/{ndc}", productHandler.Get)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(authhandler.Authenticate(jwtManager))
			r.Use(authhandler.RequireAdmin)

			r.Route("/distributors", func(r chi.Router) {
				r.Get("/", distributorHandler.List)
				r.Post("/", distributorHandler.Create)
				r.Get("/{id}", distributorHandler.Get)
				r.Put("/{id}", distributorHandler.Update)
				r.Get("/{id}/fee-schedule", distributorHandler.ListFeeSchedule)
				r.Post("/{id}/fee-schedule", distributorHandler.AddFeeEntry)
			})

			r.Post("/products", productHandler.Upsert)
			r.Post("/reports/records", reportHandler.Import)

			r.Route("/pharmacies", func(r chi.Router) {
				r.Get("/", adminHandler.ListPharmacies)
				r.Put("/{id}/status", adminHandler.UpdatePharmacyStatus)
			})
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
