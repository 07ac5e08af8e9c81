package handlers

import (
	"net/http"

	"rentfolio/internal/config"
	"rentfolio/internal/db"
	"rentfolio/internal/middleware"
	"rentfolio/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner    db.TxRunner
	cfg         config.Config
	users       UserStore
	properties  PropertyStore
	tenants     TenantStore
	connections ConnectionStore
	accounts    BankAccountStore
	bankTxns    BankTransactionStore
	syncLogs    SyncLogStore
	aggregator  AggregatorClient
	sync        SyncService
	flows       FlowService
	unified     UnifiedService
	hub         *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, properties PropertyStore, tenants TenantStore, connections ConnectionStore, accounts BankAccountStore, bankTxns BankTransactionStore, syncLogs SyncLogStore, aggregator AggregatorClient, sync SyncService, flows FlowService, unified UnifiedService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:    txRunner,
		cfg:         cfg,
		users:       users,
		properties:  properties,
		tenants:     tenants,
		connections: connections,
		accounts:    accounts,
		bankTxns:    bankTxns,
		syncLogs:    syncLogs,
		aggregator:  aggregator,
		sync:        sync,
		flows:       flows,
		unified:     unified,
		hub:         hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Post("/", h.CreateProperty)
			r.Put("/{id}", h.UpdateProperty)
			r.Delete("/{id}", h.DeleteProperty)
			r.Get("/{id}/tenants", h.ListPropertyTenants)
		})
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Delete("/{id}", h.DeleteTenant)
		})
		r.Route("/flows", func(r chi.Router) {
			r.Get("/", h.ListFlows)
			r.Post("/", h.CreateFlow)
			r.Get("/report", h.MonthlyReport)
			r.Get("/tax-summary", h.TaxSummary)
			r.Get("/{id}", h.GetFlow)
			r.Put("/{id}", h.UpdateFlow)
			r.Delete("/{id}", h.DeleteFlow)
		})
		r.Route("/banking", func(r chi.Router) {
			r.Get("/institutions", h.ListInstitutions)
			r.Get("/connections", h.ListConnections)
			r.Post("/connections", h.CreateConnection)
			r.Delete("/connections/{id}", h.DeleteConnection)
			r.Post("/connections/{id}/sync", h.SyncConnection)
			r.Get("/connections/{id}/logs", h.ListSyncLogs)
			r.Get("/accounts", h.ListBankAccounts)
			r.Get("/accounts/{id}/transactions", h.ListBankTransactions)
			r.Put("/transactions/{id}/category", h.RetagBankTransaction)
		})
		r.Get("/transactions", h.ListUnifiedTransactions)
	})

	router.Get("/ws/sync", h.WSSync)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
