package server

import (
	"context"
	"gw-teller-ledger/internal/api/handlers"
	"gw-teller-ledger/internal/api/middlew"
	"gw-teller-ledger/internal/auth"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/pkg/response"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	httpServer *http.Server
	Router     *chi.Mux
	log        *slog.Logger
}

// Handlers обработчики API ledger'а
type Handlers struct {
	Registers    *handlers.RegisterHandler
	Transactions *handlers.TransactionHandler
	Rates        *handlers.RateHandler
}

// HealthCheck проверка зависимостей для /health
type HealthCheck func(ctx context.Context) error

func NewServer(port string, log *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlew.WithLogger(log))
	router.Use(middlew.AccessLog)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	serv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return &Server{
		httpServer: serv,
		Router:     router,
		log:        log,
	}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) RegisterSwagger() {
	s.Router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

func (s *Server) RegisterHealth(check HealthCheck) {
	s.Router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		log := middlew.GetLogger(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if check != nil {
			if err := check(ctx); err != nil {
				log.Error("health check failed", slog.String("error", err.Error()))
				response.WriteJSONError(w, log, http.StatusServiceUnavailable, "unavailable", "Dependency is unavailable")
				return
			}
		}
		response.WriteJSONSuccess(w, log, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// RegisterAPI маршруты /api/v1, все требуют токен оператора
func (s *Server) RegisterAPI(validator auth.TokenValidator, h Handlers) {
	s.Router.Route("/api/v1", func(r chi.Router) {
		r.Use(middlew.RequireOperator(validator))

		r.Route("/registers", func(r chi.Router) {
			r.Post("/", h.Registers.Open)
			r.Get("/current", h.Registers.GetCurrent)
			r.Get("/{sessionID}", h.Registers.Get)
			r.Get("/{sessionID}/operations", h.Registers.ListOperations)
			r.Post("/{sessionID}/deposit", h.Registers.Deposit)
			r.Post("/{sessionID}/withdraw", h.Registers.Withdraw)
			r.Post("/{sessionID}/reconcile", h.Registers.Reconcile)
			r.Post("/{sessionID}/close", h.Registers.Close)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.Transactions.Create)
			r.Get("/", h.Transactions.List)
			r.Get("/reference/{reference}", h.Transactions.GetByReference)
			r.Get("/{id}", h.Transactions.Get)
			r.Post("/{id}/advance", h.Transactions.Advance)
			r.Post("/{id}/cancel", h.Transactions.Cancel)
		})

		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.Rates.List)
			r.Get("/{base}/{target}", h.Rates.Get)
			r.With(middlew.RequireRole(models.RoleAdmin)).Post("/", h.Rates.Set)
		})
	})

	s.log.Info("маршруты /api/v1 зарегистрированы")
}
