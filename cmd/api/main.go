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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"foodcost/internal/catalog"
	"foodcost/internal/config"
	"foodcost/internal/db"
	"foodcost/internal/logger"
	"foodcost/internal/metrics"
	"foodcost/internal/recipe"
	"foodcost/internal/router"
)

const ConfigPath = "config/api.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ───────────────────────── CONFIG ─────────────────────────
	cfgPath := ConfigPath
	if p := os.Getenv("FOODCOST_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync(log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ───────────────────────── DB ─────────────────────────
	pool, err := db.ConnectPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(ctx, cfg.Database.URL); err != nil {
			return err
		}
		log.Info("database migrations applied")
	}

	// ───────────────────────── ENGINE ─────────────────────────
	reg := metrics.NewRegistry()
	repo := catalog.NewPostgresRepository(pool)
	recipeService := recipe.NewService(repo, log, reg)

	r := router.NewRouter(router.Deps{
		Config:  cfg,
		Log:     log,
		Metrics: reg,
		Recipes: recipe.NewHandler(recipeService),
	})

	// ───────────────────────── START ─────────────────────────
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("api listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
