package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"

	"github.com/veltapay/velta-wallet/cmd/routes"
	"github.com/veltapay/velta-wallet/internal/credential"
	"github.com/veltapay/velta-wallet/internal/settlement"
	"github.com/veltapay/velta-wallet/internal/transfer"
	"github.com/veltapay/velta-wallet/pkg/config"
	"github.com/veltapay/velta-wallet/pkg/database"
	"github.com/veltapay/velta-wallet/pkg/events"
	"github.com/veltapay/velta-wallet/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	db := database.Connect(cfg.DBUrl)
	redisClient := events.NewRedisClient(cfg)
	settlementClient := settlement.NewHTTPClient(cfg.SettlementBaseURL, cfg.SettlementSecret)
	challenges := credential.NewChallengeStore(redisClient.Client, 5*time.Minute)

	deps := routes.BuildDeps(cfg, db, redisClient, settlementClient, challenges)

	// start settlement event worker + reconciliation sweep
	worker := transfer.NewSettlementWorker(cfg, deps.Engine, redisClient)
	worker.Start()

	r := mux.NewRouter()
	handler := routes.RegisterRoutes(r, deps)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Server starting", logger.Fields{"port": cfg.Port, "env": cfg.Env})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Could not listen", logger.Fields{"port": cfg.Port, "error": err.Error()})
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	server.Shutdown(ctx)
	logger.Info("Server gracefully shut down")
}
