package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/dafibh/gastify/gastify-backend/docs"
	"github.com/dafibh/gastify/gastify-backend/internal/amqp"
	"github.com/dafibh/gastify/gastify-backend/internal/config"
	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/extraction"
	"github.com/dafibh/gastify/gastify-backend/internal/handler"
	"github.com/dafibh/gastify/gastify-backend/internal/localstore"
	"github.com/dafibh/gastify/gastify-backend/internal/middleware"
	"github.com/dafibh/gastify/gastify-backend/internal/repository/postgres"
	"github.com/dafibh/gastify/gastify-backend/internal/repository/storage"
	"github.com/dafibh/gastify/gastify-backend/internal/service"
	"github.com/dafibh/gastify/gastify-backend/internal/supabase"
	"github.com/dafibh/gastify/gastify-backend/internal/validator"
	"github.com/dafibh/gastify/gastify-backend/internal/websocket"
)

// @title Gastify API
// @version 1.0
// @description Personal finance API: expenses, incomes, monthly budgets, categories and receipt extraction.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Supabase access token, prefixed with "Bearer "
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown LOG_LEVEL, using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	expenseRepo := postgres.NewExpenseRepository(pool)
	incomeRepo := postgres.NewIncomeRepository(pool)
	budgetRepo := postgres.NewBudgetRepository(pool)
	transactor := postgres.NewTransactor(pool)

	// Device-local storage for category lists
	var store localstore.Storage
	if cfg.LocalStorePath == "" {
		store = localstore.NewMemoryStorage()
		log.Info().Msg("Local store kept in memory")
	} else {
		sqliteStore, err := localstore.NewSQLiteStorage(cfg.LocalStorePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.LocalStorePath).Msg("Failed to open local store")
		}
		defer sqliteStore.Close()
		store = sqliteStore
		log.Info().Str("path", cfg.LocalStorePath).Msg("Local store opened")
	}

	// Receipt storage is optional. Leave the interface nil when disabled.
	var receiptRepo storage.ReceiptRepository
	if cfg.S3.Enabled {
		s3Repo, err := storage.NewS3ReceiptRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 receipt storage")
		}
		receiptRepo = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Str("region", cfg.S3.Region).Msg("S3 receipt storage initialized")
	} else {
		log.Info().Msg("S3 not configured, receipts are not stored")
	}

	var extractor domain.Extractor
	if cfg.Gemini.APIKey != "" {
		gemini, err := extraction.NewGeminiExtractor(context.Background(), cfg.Gemini)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize receipt extractor")
		}
		extractor = gemini
		log.Info().Str("model", cfg.Gemini.Model).Msg("Receipt extraction enabled")
	} else {
		log.Info().Msg("GEMINI_API_KEY not set, receipt extraction disabled")
	}

	// Initialize services
	categoryService := service.NewCategoryService(store, expenseRepo)
	expenseService := service.NewExpenseService(expenseRepo)
	incomeService := service.NewIncomeService(incomeRepo, budgetRepo, transactor)
	budgetService := service.NewBudgetService(budgetRepo, expenseRepo, categoryService)
	dashboardService := service.NewDashboardService(expenseRepo, budgetRepo, categoryService)
	authService := service.NewAuthService(supabase.NewAuthProvider(cfg.Supabase), categoryService, cfg.Supabase.PasswordRedirect)
	receiptService := service.NewReceiptService(extractor, receiptRepo)

	// Realtime events go to connected clients and, when configured, the broker
	hub := websocket.NewHub()
	publishers := websocket.MultiPublisher{hub}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to event broker")
		}
		defer amqpPublisher.Close()
		publishers = append(publishers, amqpPublisher)
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("Publishing events to AMQP")
	}
	categoryService.SetEventPublisher(publishers)
	expenseService.SetEventPublisher(publishers)
	incomeService.SetEventPublisher(publishers)
	budgetService.SetEventPublisher(publishers)
	authService.SetEventPublisher(publishers)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Supabase)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	receiptLimiter := middleware.NewRateLimiterWithConfig(cfg.ReceiptRateLimit, cfg.ReceiptRateLimit)
	defer receiptLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Expense:   handler.NewExpenseHandler(expenseService),
		Income:    handler.NewIncomeHandler(incomeService),
		Budget:    handler.NewBudgetHandler(budgetService),
		Category:  handler.NewCategoryHandler(categoryService, dashboardService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Receipt:   handler.NewReceiptHandler(receiptService),
		WebSocket: handler.NewWebSocketHandler(hub, authMiddleware, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like). The swagger UI needs inline scripts.
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/swagger")
		},
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Receipts are capped at 10MB, leave room for the multipart envelope
	e.Use(echomiddleware.BodyLimit("12M"))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", handler.ServeOpenAPI3Spec)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, receiptLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Int("ws_clients", hub.TotalClientCount()).Msg("Closing WebSocket clients")
	hub.Shutdown()

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
