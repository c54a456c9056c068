package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/config"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/database"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/handlers"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/logger"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/middleware"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/services"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/utils"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Warn().Msg(".env file not found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("✓ Connected to database successfully")

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}
	log.Info().Msg("✓ Schema up to date")

	repos := database.NewRepositories(pool)

	parser := services.NewStatementParser(services.ParserOptions{
		NumberFormat:      services.ParseNumberFormat(cfg.AmountFormat),
		Policy:            accountingPolicy(cfg),
		Lookup:            repos.Entities,
		LookupConcurrency: cfg.LookupConcurrency,
		LookupTimeout:     cfg.LookupTimeout,
		Logger:            log.With().Str("component", "parser").Logger(),
	})
	log.Info().Str("amount_format", cfg.AmountFormat).Msg("✓ Statement parser initialized successfully")

	mapper := services.NewAccountMapper(repos.Accounts, cfg.AccountCacheTTL)
	validator := services.NewFileValidator(cfg.MaxUploadBytes)

	var storage handlers.StorageService
	if cfg.S3Bucket != "" {
		s, err := services.NewStorageService(ctx, cfg.S3Bucket, cfg.S3Region, cfg.AWSEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize storage service")
		}
		storage = s
		log.Info().Str("bucket", cfg.S3Bucket).Msg("✓ Storage service initialized successfully")
	} else {
		log.Warn().Msg("S3_BUCKET not set, presigned uploads disabled")
	}

	statementHandler := handlers.NewStatementHandler(storage, parser, validator)
	entityHandler := handlers.NewEntityHandler(repos.Entities)
	accountHandler := handlers.NewAccountHandler(mapper, repos.Accounts)
	journalHandler := handlers.NewJournalHandler(repos.Journal)
	companyHandler := handlers.NewCompanyHandler(repos.Companies)

	app := fiber.New(fiber.Config{
		AppName:      "contapyme API v1.0",
		BodyLimit:    int(cfg.MaxUploadBytes) + 64*1024, // multipart overhead
		ErrorHandler: utils.NewErrorHandler(log, cfg.Environment != "production"),
	})

	// Apply global middleware
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check endpoint (public)
	app.Get("/health", healthHandler(pool.Ping, mapper))

	v1 := app.Group("/v1")

	// Public routes
	v1.Get("/ping", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})

	// Authenticated routes (Clerk session, no company yet)
	authed := v1.Group("", middleware.ClerkAuth(cfg.ClerkSecretKey))
	authed.Post("/companies", companyHandler.CreateCompany)
	authed.Get("/companies", companyHandler.ListCompanies)

	// Protected routes (Clerk session + company membership)
	protected := authed.Group("", middleware.RequireCompany(repos.Companies.IsMember))
	protected.Post("/companies/members", companyHandler.AddMember)

	// Statement routes
	if storage != nil {
		protected.Get("/statements/presigned-url", statementHandler.GetPresignedURL)
		protected.Post("/statements/process", statementHandler.ProcessUpload)
	}
	protected.Post("/statements/parse", statementHandler.ParseUpload)
	protected.Post("/statements/parse-text", statementHandler.ParseText)

	// RCV registry routes
	protected.Post("/entities", entityHandler.UpsertEntity)
	protected.Get("/entities/:rut", entityHandler.GetEntity)

	// Chart of accounts routes
	protected.Get("/accounts", accountHandler.ListAccounts)
	protected.Post("/accounts", accountHandler.SeedAccounts)
	protected.Get("/accounts/suggest", accountHandler.SuggestAccount)
	protected.Delete("/accounts/cache", accountHandler.InvalidateCache)

	// Journal routes
	protected.Post("/journal/drafts", journalHandler.CreateDrafts)
	protected.Get("/journal/drafts", journalHandler.ListDrafts)

	log.Info().Msg("✓ All routes configured successfully")

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Msg("🚀 contapyme API is running")
	if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

// healthHandler reports database reachability and how many company
// charts the account mapper holds
func healthHandler(ping func(ctx context.Context) error, mapper *services.AccountMapper) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "degraded",
				"database": "unreachable",
			})
		}
		return c.JSON(fiber.Map{
			"status":        "ok",
			"service":       "contapyme-api",
			"cached_charts": mapper.CacheSize(),
		})
	}
}

// accountingPolicy applies configured account codes over the Chilean defaults
func accountingPolicy(cfg *config.Config) services.AccountingPolicy {
	policy := services.DefaultAccountingPolicy()
	override := func(account *services.LedgerAccount, code string) {
		if code != "" {
			account.Code = code
		}
	}
	override(&policy.Bank, cfg.BankAccountCode)
	override(&policy.Customers, cfg.CustomersAccountCode)
	override(&policy.Suppliers, cfg.SuppliersAccountCode)
	override(&policy.Remunerations, cfg.RemunerationsAccountCode)
	if cfg.PayrollTaxIDThreshold > 0 {
		policy.PayrollTaxIDThreshold = cfg.PayrollTaxIDThreshold
	}
	return policy
}
