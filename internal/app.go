// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "estocks/internal/api"
	"estocks/internal/api/handler"
	"estocks/internal/auth"
	"estocks/internal/cache"
	"estocks/internal/config"
	"estocks/internal/metrics"
	"estocks/internal/quote"
	"estocks/internal/repository"
	"estocks/internal/repository/postgres"
	"estocks/internal/service"
	"estocks/internal/util"
	"estocks/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Cache  *cache.Client

	// Repositories
	UserRepository       repository.UserRepository
	WalletRepository     repository.WalletRepository
	FundRepository       repository.FundRepository
	InvestmentRepository repository.InvestmentRepository

	// Services
	InvestmentService service.InvestmentService
	AccountService    service.AccountService
	QuoteService      *quote.Service

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: slog.Default()}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel, cfg.LogFormat)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "env", cfg.Env)

	// 3. Connect to Database
	database, err := db.NewPostgresDB(ctx, cfg.DB, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	if cfg.MigrateDB {
		if err := db.Migrate(ctx, app.DB); err != nil {
			return err
		}
		app.Logger.Info("Database migrations applied.")
	}

	// 4. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository(app.DB)
	app.WalletRepository = postgres.NewWalletRepository(app.DB)
	app.FundRepository = postgres.NewFundRepository(app.DB)
	app.InvestmentRepository = postgres.NewInvestmentRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize Services
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	directory := auth.NewDirectory(tokens, app.DB, app.UserRepository, app.Logger)

	app.InvestmentService = service.NewInvestmentService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		directory,
		app.WalletRepository,
		app.FundRepository,
		app.InvestmentRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.AccountService = service.NewAccountService(
		app.DB,
		app.DB,
		app.UserRepository,
		app.WalletRepository,
		tokens,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)

	quoteService, err := app.newQuoteService(ctx)
	if err != nil {
		return err
	}
	app.QuoteService = quoteService
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	metrics.Init()
	app.HTTPHandler = router.NewRouter(
		router.RouterConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			CookieName:     cfg.Auth.CookieName,
			LoginURL:       cfg.Auth.LoginPath,
		},
		router.Handlers{
			Investments: handler.NewInvestmentHandler(app.InvestmentService, cfg.Currency, cfg.Auth.LoginPath, app.Logger),
			Wallets:     handler.NewWalletHandler(app.AccountService, cfg.Auth.CookieName, cfg.Env == "prod", cfg.Auth.LoginPath, app.Logger),
			Stocks:      handler.NewStockHandler(app.QuoteService, app.Logger),
		},
		directory,
	)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// newQuoteService builds the quote service, with a Redis cache in front of
// the provider when REDIS_ADDR is set. An unreachable Redis only disables
// caching.
func (app *Application) newQuoteService(ctx context.Context) (*quote.Service, error) {
	cfg := app.Config
	catalog, err := quote.LoadCatalog(cfg.Quote.SymbolsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock catalog: %w", err)
	}

	opts := quote.Options{
		Currency:    cfg.Currency,
		Concurrency: cfg.Quote.Concurrency,
	}
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			app.Logger.Warn("Quote cache disabled", "error", err)
		} else {
			app.Cache = client
			opts.QuoteCache = cache.NewViewCache[quote.Quote](client, "quote:", cfg.Quote.CacheTTL, app.Logger)
			opts.HistoryCache = cache.NewViewCache[quote.History](client, "history:", cfg.Quote.CacheTTL, app.Logger)
			app.Logger.Info("Quote cache connected.", "addr", cfg.Redis.Addr)
		}
	}

	return quote.NewService(catalog, quote.NewYahooClient(cfg.Quote.HTTPTimeout), opts, app.Logger), nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			app.Logger.Warn("Failed to close cache connection", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
