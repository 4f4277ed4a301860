package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/internal/cache"
	"github.com/GTDGit/gtd_payments/internal/config"
	"github.com/GTDGit/gtd_payments/internal/database"
	"github.com/GTDGit/gtd_payments/internal/handler"
	"github.com/GTDGit/gtd_payments/internal/middleware"
	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/repository"
	"github.com/GTDGit/gtd_payments/internal/service"
	"github.com/GTDGit/gtd_payments/internal/worker"
)

// main is the entrypoint for the payments gateway API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Bool("sandbox", cfg.Gateways.Sandbox).Msg("starting gtd payments")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect database
	db, err := database.Connect(ctx, &cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := database.Migrate(db.DB, "migrations"); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Initialize repositories
	gatewayConfigRepo := repository.NewGatewayConfigRepository(db)
	gatewayTrxRepo := repository.NewGatewayTransactionRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 4a. Gateway config cache
	configCache := cache.NewGatewayConfigCache(redisClient, gatewayConfigRepo, cfg.Worker.ConfigCacheTTL)

	// 5. Initialize services
	payments := service.NewPaymentGateway(configCache, gatewayTrxRepo)
	registered, err := service.BuildRegistry(ctx, payments, gatewayConfigRepo, registryOptions(cfg))
	if err != nil {
		log.Error().Err(err).Msg("gateway registry failed")
		fmt.Fprintf(os.Stderr, "gateway registry failed: %v\n", err)
		os.Exit(1)
	}
	if len(registered) == 0 {
		log.Warn().Msg("No payment gateway has credentials; payments will fail until one is configured")
	}

	adminAuthSvc := service.NewAdminAuthService(adminRepo, cfg.JWTSecret, cfg.Admin.TokenTTL)
	if err := adminAuthSvc.EnsureAdmin(ctx, cfg.Admin.BootstrapEmail, cfg.Admin.BootstrapPassword, "Administrator"); err != nil {
		log.Warn().Err(err).Msg("Failed to create bootstrap admin")
	}

	// 6. Initialize handlers
	handlers := &Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": db,
			"redis":    handler.PingFunc(redisClient.Ping),
		}, payments.RegisteredGateways),
		Payment:       handler.NewPaymentHandler(payments),
		PaymentMethod: handler.NewPaymentMethodHandler(payments),
		AdminGateway:  handler.NewAdminGatewayHandler(gatewayConfigRepo, gatewayTrxRepo, configCache, payments),
		Auth:          handler.NewAuthHandler(adminAuthSvc),
	}

	// 7. Initialize middleware
	limiter := middleware.NewInvalidAuthRateLimiter(cfg.Admin.InvalidAuthLimit, cfg.Admin.InvalidAuthWindow)
	defer limiter.Stop()
	apiKeyMw := middleware.NewAPIKeyMiddleware(cfg.APIKeys, limiter)
	jwtMw := middleware.NewJWTMiddleware(cfg.JWTSecret)

	// 8. Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedHosts))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, apiKeyMw, jwtMw)

	// 9. Start workers
	go worker.NewConfigRefreshWorker(configCache, cfg.Worker.ConfigRefreshInterval).Start(ctx)

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Strs("gateways", gatewayNames(registered)).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Cancel context to stop workers
	cancel()

	// 13. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health        *handler.HealthHandler
	Payment       *handler.PaymentHandler
	PaymentMethod *handler.PaymentMethodHandler
	AdminGateway  *handler.AdminGatewayHandler
	Auth          *handler.AuthHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, apiKeyMiddleware *middleware.APIKeyMiddleware, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Payment routes (protected with API key)
	payments := router.Group("/v1/payments")
	payments.Use(apiKeyMiddleware.Handle())
	{
		payments.POST("", handlers.Payment.CreatePayment)
		payments.POST("/refund", handlers.Payment.RefundPayment)
		payments.POST("/:transactionId/void", handlers.Payment.VoidTransaction)
		payments.POST("/:transactionId/capture", handlers.Payment.CaptureAuthorization)
	}

	methods := router.Group("/v1/payment-methods")
	methods.Use(apiKeyMiddleware.Handle())
	{
		methods.POST("/tokenize", handlers.PaymentMethod.Tokenize)
		methods.POST("/verify", handlers.PaymentMethod.Verify)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.Use(jwtMiddleware.Handle())
	{
		admin.GET("/gateways", handlers.AdminGateway.ListGateways)
		admin.PUT("/gateways/:type/status", handlers.AdminGateway.UpdateGatewayStatus)
		admin.PUT("/gateways/:type/routing", handlers.AdminGateway.UpdateGatewayRouting)

		admin.GET("/transactions", handlers.AdminGateway.ListTransactions)
		admin.GET("/transactions/:transactionId", handlers.AdminGateway.GetTransaction)
	}
}

// registryOptions maps environment credentials onto gateway defaults.
func registryOptions(cfg *config.Config) service.RegistryOptions {
	gw := cfg.Gateways
	return service.RegistryOptions{
		Defaults: map[models.GatewayType]models.Credentials{
			models.GatewayStripe: {"secret_key": gw.Stripe.SecretKey},
			models.GatewayPayPal: {
				"client_id":     gw.PayPal.ClientID,
				"client_secret": gw.PayPal.ClientSecret,
			},
			models.GatewayAuthorizeNet: {
				"api_login_id":    gw.AuthorizeNet.LoginID,
				"transaction_key": gw.AuthorizeNet.TransactionKey,
			},
			models.GatewayCyberSource: {
				"merchant_id":   gw.CyberSource.MerchantID,
				"key_id":        gw.CyberSource.KeyID,
				"shared_secret": gw.CyberSource.SharedSecret,
			},
		},
		Adapter: service.AdapterOptions{
			Sandbox: gw.Sandbox,
			Timeout: gw.HTTPTimeout,
		},
		BaseURLs: map[models.GatewayType]string{
			models.GatewayStripe:       gw.Stripe.BaseURL,
			models.GatewayPayPal:       gw.PayPal.BaseURL,
			models.GatewayAuthorizeNet: gw.AuthorizeNet.URL,
			models.GatewayCyberSource:  gw.CyberSource.BaseURL,
		},
	}
}

func gatewayNames(types []models.GatewayType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
