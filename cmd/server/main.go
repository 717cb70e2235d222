package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/csg33k/fuel-receipts/internal/adapters/filestore"
	"github.com/csg33k/fuel-receipts/internal/adapters/pdf"
	"github.com/csg33k/fuel-receipts/internal/adapters/refdata"
	sqliteadapter "github.com/csg33k/fuel-receipts/internal/adapters/sqlite"
	"github.com/csg33k/fuel-receipts/internal/adapters/textreceipt"
	"github.com/csg33k/fuel-receipts/internal/composer"
	"github.com/csg33k/fuel-receipts/internal/config"
	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/handlers"
	"github.com/csg33k/fuel-receipts/internal/ports"
	"github.com/csg33k/fuel-receipts/internal/rules"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var logHandler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	if cfg.Production() {
		logHandler = slog.NewJSONHandler(os.Stderr, nil)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	repo, err := sqliteadapter.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer repo.Close()

	if cfg.AutoMigrate {
		applied, err := repo.Migrate(context.Background())
		if err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		for _, v := range applied {
			logger.Info("applied migration", "version", v)
		}
	}

	catalog, err := refdata.LoadFile(cfg.RefdataPath)
	if err != nil {
		log.Fatalf("failed to load reference data: %v", err)
	}

	// Production keeps serving receipts on a table defect; anywhere else the
	// server refuses to start.
	ropts := []rules.Option{rules.WithLogger(logger)}
	if cfg.Production() {
		ropts = append(ropts, rules.Lenient())
	}
	resolver := rules.MustNew(ropts...)
	if err := verifyRules(logger, resolver, catalog.Merchants(), cfg.Production()); err != nil {
		log.Fatalf("rule table: %v", err)
	}

	files, err := filestore.New(cfg.OutputDir)
	if err != nil {
		log.Fatalf("failed to open output dir: %v", err)
	}

	comp := composer.New(repo, catalog, resolver, composer.WithLogger(logger))
	h := handlers.New(comp, repo, catalog, files,
		[]ports.DocumentEncoder{pdf.New(), textreceipt.New()},
		handlers.WithBaseURL(cfg.BaseURL),
		handlers.WithHealthCheck(repo.Ping),
		handlers.WithRateLimit(cfg.GenerateRPS, cfg.GenerateBurst),
		handlers.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	logger.Info("fuel receipt generator running", "url", cfg.BaseURL, "db", cfg.DBPath,
		"output", files.Dir(), "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// verifyRules logs every rule table defect. Outside production any defect is
// returned so startup fails.
func verifyRules(logger *slog.Logger, r *rules.Resolver, merchants []*domain.Merchant, production bool) error {
	errs := r.Verify(merchants)
	if len(errs) == 0 {
		logger.Info("rule table verified", "rules", len(r.Rules()), "merchants", len(merchants))
		return nil
	}
	for _, e := range errs {
		logger.Error("rule table defect", "err", e)
	}
	if production {
		return nil
	}
	return errors.Join(errs...)
}
