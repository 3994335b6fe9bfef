package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gregjones/httpcache"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/posixsync/internal/adapter/driven/directory"
	"github.com/ericfisherdev/posixsync/internal/adapter/driven/metrics"
	"github.com/ericfisherdev/posixsync/internal/adapter/driven/oauth"
	sqliteadapter "github.com/ericfisherdev/posixsync/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/posixsync/internal/adapter/driven/tokenfile"
	"github.com/ericfisherdev/posixsync/internal/application"
	"github.com/ericfisherdev/posixsync/internal/config"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration and targets (fail fast on invalid input).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	targets, err := config.LoadTargets(cfg.TargetsPath)
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"credentials_path", cfg.CredentialsPath,
		"token_path", cfg.TokenPath,
		"targets_path", cfg.TargetsPath,
		"users", len(targets.Users),
		"groups", len(targets.Groups),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open local state (optional): run history and the response cache.
	var runs driven.RunStore
	var cache httpcache.Cache
	if cfg.HistoryEnabled() {
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			return err
		}
		runs = sqliteadapter.NewRunRepo(db)
		cache = sqliteadapter.NewResponseCache(db)
		slog.Info("run history enabled", "path", db.Path())
	}

	// 4. Resolve credentials and build the directory client.
	recorder := metrics.NewRecorder()
	tokens := tokenfile.NewStore(cfg.TokenPath)
	factory := directory.NewFactory(cfg.APIBaseURL, config.UpdateScopes)
	factory.RequestsPerSecond = cfg.APIRateLimit
	factory.Instrument = recorder.InstrumentRoundTripper
	factory.Cache = cache
	factory.Store = tokens

	creds := application.NewCredentialService(
		tokens,
		tokenfile.NewLegacyStore(cfg.LegacyTokenPath),
		oauth.NewRefresher(),
		oauth.NewLocalServerFlow(cfg.CredentialsPath),
		factory,
		config.UpdateScopes,
	)
	client, err := creds.Resolve(ctx)
	if err != nil {
		return err
	}

	// 5. Apply every target.
	updateSvc := application.NewUpdateService(
		application.NewUserService(client),
		application.NewGroupService(client),
		runs,
		targets,
	)
	summary := updateSvc.Run(ctx)

	// 6. Export metrics for the textfile collector.
	if cfg.MetricsTextfile != "" {
		recorder.ObserveRun(summary)
		if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
			slog.Error("failed to export metrics", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d updates failed", summary.Failed, summary.Attempted())
	}
	return nil
}
