package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolpay/internal/account"
	"schoolpay/internal/apiclient"
	"schoolpay/internal/audit"
	"schoolpay/internal/config"
	"schoolpay/internal/console"
	"schoolpay/internal/guard"
	"schoolpay/internal/session"
	"schoolpay/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

const recentEventsKept = 200

func main() {
	envFile := pflag.String("env-file", "", "optional KEY=VALUE file loaded before reading the environment")
	pflag.Parse()

	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadEnvFile(*envFile); err != nil {
		slog.Error("env file load failed", "err", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConsole()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, "console")
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore, err := openStore(rootCtx, cfg)
	if err != nil {
		log.Error("session store init failed", "store", cfg.Session.Store, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	mgr := session.NewManager(
		session.WithStore(store),
		session.WithLogger(log),
		session.WithSaveTimeout(cfg.Session.SaveTimeout),
	)
	if err := mgr.Restore(rootCtx); err != nil {
		// a corrupt snapshot starts the console signed out
		log.Warn("session restore failed", "err", err)
	}

	events := audit.NewMemoryRepo(recentEventsKept)
	auditSvc := audit.NewService(events)

	client, err := apiclient.New(apiclient.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, mgr,
		apiclient.WithLogger(log),
		apiclient.WithSessionEndedHook(auditSvc.LogSessionEnded),
	)
	if err != nil {
		log.Error("api client init failed", "err", err)
		os.Exit(1)
	}

	h := &console.Handlers{
		Session:  mgr,
		Guard:    guard.New(mgr, guard.DefaultPaths()),
		Accounts: account.NewService(client, mgr, auditSvc),
		API:      client,
		Activity: events,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           console.NewRouter(h, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("console listening",
			"addr", srv.Addr,
			"env", cfg.App.Env,
			"api", cfg.API.BaseURL,
			"session_store", cfg.Session.Store,
			"signed_in", mgr.IsAuthenticated(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
