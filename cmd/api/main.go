package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/cmd/api/server"
	"github.com/Tsinling0525/scriptflow/infra"
	"github.com/Tsinling0525/scriptflow/nodes"
)

func main() {
	cfg := infra.LoadConfig()
	log, err := infra.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	reg, err := nodes.Registry()
	if err != nil {
		log.Fatal("node registry", zap.Error(err))
	}
	mgr := infra.NewInstanceManager(reg, cfg, log)
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go mgr.Run(ctx)

	r := server.NewRouter(mgr, infra.NewLocalGraphs(cfg.DataDir))
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.APIPort), Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()
	log.Info("scriptflow editor API listening",
		zap.Int("port", cfg.APIPort),
		zap.String("data", cfg.DataDir),
		zap.Int("nodeTypes", reg.Len()))

	// Graceful shutdown
	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		log.Warn("shutdown", zap.Error(err))
		os.Exit(1)
	}
}
