package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skillverse/payments-gateway/internal/api"
	"github.com/skillverse/payments-gateway/internal/checkout"
	"github.com/skillverse/payments-gateway/internal/config"
	"github.com/skillverse/payments-gateway/internal/ledger"
	"github.com/skillverse/payments-gateway/internal/milestone"
	"github.com/skillverse/payments-gateway/internal/paystack"
	"github.com/skillverse/payments-gateway/internal/recon"
)

func main() {
	cfg, err := config.Load(os.Getenv("PAYMENTS_CONFIG"))
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	log := newLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := newStore(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatalf("store error: %v", err)
	}

	server := newServer(cfg, store, log)

	go func() {
		log.WithField("addr", cfg.Addr).Info("payments-gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("store close error")
	}
}

func newLogger(cfg *config.Logger) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func newStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (ledger.Store, error) {
	if cfg.Data.MongoURI == "" {
		log.Warn("no mongodb uri configured, using in-memory ledger store")
		return ledger.NewMemoryStore(), nil
	}
	return ledger.NewMongoStore(ctx, cfg.Data.MongoURI, cfg.Data.Database)
}

func newServer(cfg *config.Config, store ledger.Store, log *logrus.Logger) *http.Server {
	gateway := &paystack.Client{
		SecretKey: cfg.Paystack.SecretKey,
		BaseURL:   cfg.Paystack.BaseURL,
		HTTP:      &http.Client{Timeout: cfg.Paystack.Timeout},
		Log:       log,
	}

	checkoutService := &checkout.Service{
		Store:       store,
		Gateway:     gateway,
		CallbackURL: cfg.Frontend.CallbackURL(cfg.RunMode),
		Log:         log,
	}
	reconEngine := &recon.Engine{Store: store, Log: log}
	milestoneService := &milestone.Service{Store: store, Log: log}

	handler := api.NewHandler(checkoutService, reconEngine, milestoneService, store, cfg.Paystack.WebhookSecret, log)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(handler, cfg.Frontend.BaseURL(cfg.RunMode)),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
