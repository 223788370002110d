// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"estocks/internal/api/handler"
	"estocks/internal/api/middleware"
	"estocks/internal/metrics"
)

// RouterConfig carries the HTTP-level settings of the router.
type RouterConfig struct {
	AllowedOrigins []string
	CookieName     string
	LoginURL       string
}

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Investments *handler.InvestmentHandler
	Wallets     *handler.WalletHandler
	Stocks      *handler.StockHandler
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(cfg RouterConfig, h Handlers, resolver middleware.Resolver) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(chimw.RequestID)                       // Add a request ID to the context
	r.Use(chimw.RealIP)                          // Use the real IP address
	r.Use(chimw.Logger)                          // Log HTTP requests
	r.Use(chimw.Recoverer)                       // Recover from panics and return 500
	r.Use(chimw.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests
	r.Use(middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Session(cfg.CookieName))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	requireUser := middleware.RequireUser(resolver, cfg.LoginURL)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Wallets.Register)
			r.Post("/login", h.Wallets.Login)
			r.Post("/logout", h.Wallets.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/wallet", h.Wallets.GetWallet)
			r.Post("/wallet/deposit", h.Wallets.Deposit)
		})

		r.Get("/funds", h.Investments.ListFunds)
		r.Get("/funds/{fundID}", h.Investments.GetFund)

		r.Route("/investments", func(r chi.Router) {
			// Invest resolves the caller itself so it can answer with its own 401.
			r.Post("/invest", h.Investments.Invest)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Get("/mine", h.Investments.ListMyPositions)
				r.Get("/", h.Investments.ListInvestments)
				r.Post("/", h.Investments.CreateInvestment)
				r.Get("/{investmentID}", h.Investments.GetInvestment)
				r.Put("/{investmentID}", h.Investments.UpdateInvestment)
				r.Delete("/{investmentID}", h.Investments.DeleteInvestment)
			})
		})

		r.Route("/stocks", func(r chi.Router) {
			r.Get("/", h.Stocks.ListStocks)
			r.Get("/quotes", h.Stocks.GetQuotes)
			r.Get("/{symbol}/quote", h.Stocks.GetQuote)
			r.Get("/{symbol}/history", h.Stocks.GetHistory)
		})
	})

	return r
}
