package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"pantry/internal/api"
	"pantry/internal/catalog"
	"pantry/internal/config"
	"pantry/internal/logger"
	"pantry/internal/product"
	"pantry/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	if err := logger.Init(cfg.Log); err != nil {
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}
	log := logger.WithModule("main")

	srv := newServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("address", cfg.Address).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// newServer wires the catalog, the document store and the routes described
// by cfg.
func newServer(cfg *config.Config) *http.Server {
	gin.SetMode(cfg.GinMode)

	paths := cfg.Paths()
	resolver := catalog.NewResolver(paths.Domain)
	if err := resolver.Load(); err == nil {
		logger.WithModule("main").WithField("products", resolver.Len()).Info("catalog loaded")
	}

	fs := store.NewFileStore(paths, product.NewNormalizer(resolver))
	handler := api.NewHandler(fs, resolver, api.Options{
		ProductsView:   cfg.ProductsView,
		RequestTimeout: cfg.RequestTimeout,
	})

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           api.NewRouter(handler, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
