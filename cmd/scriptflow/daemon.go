package main

import (
	"context"
	"errors"
	"fmt"
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

func runServer() error {
	cfg := infra.LoadConfig()
	log, err := infra.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	reg, err := nodes.Registry()
	if err != nil {
		return err
	}
	mgr := infra.NewInstanceManager(reg, cfg, log)
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go mgr.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.APIPort),
		Handler: server.NewRouter(mgr, infra.NewLocalGraphs(cfg.DataDir)),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()
	log.Info("scriptflow server started", zap.Int("port", cfg.APIPort))
	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}

func startDaemon() error {
	bin, err := os.Executable()
	if err != nil {
		return err
	}
	d := infra.NewDaemon(infra.LoadConfig().DataDir)
	pid, err := d.Start(bin, "server")
	if err != nil {
		return err
	}
	fmt.Printf("scriptflow started in background (pid %d). Logs: %s\n", pid, d.LogPath())
	return nil
}

func stopDaemon() error {
	forced, err := infra.NewDaemon(infra.LoadConfig().DataDir).Stop(5 * time.Second)
	switch {
	case errors.Is(err, infra.ErrDaemonNotRunning):
		fmt.Println("scriptflow is not running")
		return nil
	case err != nil:
		return err
	case forced:
		fmt.Println("scriptflow force-stopped")
	default:
		fmt.Println("scriptflow stopped")
	}
	return nil
}

func statusDaemon() error {
	d := infra.NewDaemon(infra.LoadConfig().DataDir)
	if pid, ok := d.PID(); ok {
		fmt.Printf("scriptflow running (pid %d). Logs: %s\n", pid, d.LogPath())
	} else {
		fmt.Println("scriptflow not running")
	}
	return nil
}
