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

	"schoolpay/internal/auth"
	"schoolpay/internal/config"
	"schoolpay/internal/mockapi"
	"schoolpay/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	envFile := pflag.String("env-file", "", "optional KEY=VALUE file loaded before reading the environment")
	demoPassword := pflag.String("demo-password", mockapi.DefaultDemoPassword, "password given to every seeded account")
	pflag.Parse()

	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadEnvFile(*envFile); err != nil {
		slog.Error("env file load failed", "err", err)
		os.Exit(1)
	}
	cfg, err := config.LoadMockAPI()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, "mockapi")
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	accounts := mockapi.NewAccounts(bcrypt.DefaultCost)
	if err := mockapi.SeedAccounts(accounts, *demoPassword); err != nil {
		log.Error("seeding accounts failed", "err", err)
		os.Exit(1)
	}

	h := &mockapi.Handlers{
		Auth:      authManager,
		Accounts:  accounts,
		Directory: mockapi.SeedDirectory(),
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mockapi.NewRouter(h, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("demo api listening", "addr", srv.Addr, "env", cfg.App.Env, "accounts", len(accounts.Users()))
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
