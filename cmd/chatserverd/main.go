package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/sentinelsec/teamsync/internal/config"
	"github.com/sentinelsec/teamsync/internal/history"
	"github.com/sentinelsec/teamsync/internal/server"
	"github.com/sentinelsec/teamsync/internal/util"
)

func main() {
	cfg := config.Load()
	logger := util.InitLogger(cfg.LogLevel)

	var hist history.Store
	if cfg.Chat.HistoryLimit > 0 {
		var err error
		hist, err = history.NewRedisStore(cfg.Redis, cfg.Chat.HistoryLimit)
		if err != nil {
			logger.Warn("redis unavailable, history replay disabled", "error", err)
		}
	}

	hub := server.NewHub(logger)
	go hub.Run()

	relay := server.NewRelay(hub, hist, logger)
	handler := server.NewHandler(hub, relay, logger)

	router := mux.NewRouter()
	router.HandleFunc("/ws/team-chat", handler.ServeWS)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("starting chat relay", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("http server forced to shut down", "error", err)
	}
	hub.Close()

	logger.Info("stopped")
}
