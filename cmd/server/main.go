package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentfolio/internal/config"
	"rentfolio/internal/db"
	"rentfolio/internal/gocardless"
	"rentfolio/internal/handlers"
	"rentfolio/internal/logger"
	"rentfolio/internal/services"
	"rentfolio/internal/store"
	"rentfolio/internal/websocket"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer database.Close()

	users := store.NewUserStore(database)
	properties := store.NewPropertyStore(database)
	tenants := store.NewTenantStore(database)
	connections := store.NewConnectionStore(database)
	accounts := store.NewBankAccountStore(database)
	bankTxns := store.NewBankTransactionStore(database)
	flows := store.NewFlowStore(database)
	syncLogs := store.NewSyncLogStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	aggregator := gocardless.NewClient(cfg.AggregatorBaseURL, cfg.AggregatorToken, cfg.AggregatorRedirectURL, cfg.UserLanguage)
	syncService := services.NewSyncService(txRunner, aggregator, connections, accounts, bankTxns, properties, flows, syncLogs, hub, log)
	flowService := services.NewFlowService(txRunner, flows)
	unifiedService := services.NewUnifiedService(flows, bankTxns, log)

	if cfg.AutoSyncInterval > 0 {
		syncService.StartAutoSync(cfg.AutoSyncInterval)
		defer syncService.StopAutoSync()
	}

	handler := handlers.New(txRunner, cfg, users, properties, tenants, connections, accounts, bankTxns, syncLogs, aggregator, syncService, flowService, unifiedService, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("rentfolio API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("shutdown error")
	}
}
