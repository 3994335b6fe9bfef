package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/posixsync/internal/adapter/driven/directory"
	"github.com/ericfisherdev/posixsync/internal/adapter/driven/oauth"
	sqliteadapter "github.com/ericfisherdev/posixsync/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/posixsync/internal/adapter/driven/tokenfile"
	"github.com/ericfisherdev/posixsync/internal/application"
	"github.com/ericfisherdev/posixsync/internal/config"
	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration and the principals to inspect.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	principals, err := loadPrincipals(cfg, os.Args[1:])
	if err != nil {
		return err
	}
	slog.Info("inspecting principals", "users", len(principals.Users), "groups", len(principals.Groups))

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open local state (optional): run history and the response cache.
	var db *sqliteadapter.DB
	if cfg.HistoryEnabled() {
		db, err = sqliteadapter.NewDB(ctx, cfg.DBPath)
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
	}

	// 4. Resolve a read-only credential. Legacy migration belongs to the
	// update tool, whose token carries the write scopes.
	tokens := tokenfile.NewStore(cfg.ReadOnlyTokenPath)
	factory := directory.NewFactory(cfg.APIBaseURL, config.ReadOnlyScopes)
	factory.RequestsPerSecond = cfg.APIRateLimit
	factory.Store = tokens
	if db != nil {
		factory.Cache = sqliteadapter.NewResponseCache(db)
	}

	creds := application.NewCredentialService(
		tokens,
		nil,
		oauth.NewRefresher(),
		oauth.NewLocalServerFlow(cfg.CredentialsPath),
		factory,
		config.ReadOnlyScopes,
	)
	client, err := creds.Resolve(ctx)
	if err != nil {
		return err
	}

	// 5. Dump current records.
	inspectSvc := application.NewInspectService(
		application.NewUserService(client),
		application.NewGroupService(client),
		os.Stdout,
	)
	failed, err := inspectSvc.Inspect(ctx, principals.Users, principals.Groups)
	if err != nil {
		return err
	}

	// 6. Show recent update runs when history is kept.
	if db != nil {
		runs, err := sqliteadapter.NewRunRepo(db).ListRecent(ctx, cfg.HistoryLimit)
		if err != nil {
			slog.Warn("run history unavailable", "error", err)
		} else if err := inspectSvc.WriteHistory(runs); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d records could not be fetched", failed, principals.Len())
	}
	return nil
}

// loadPrincipals prefers user:EMAIL and group:EMAIL arguments. Without any,
// it reads the targets file: its inspect section, or else every update target.
func loadPrincipals(cfg *config.Config, args []string) (model.Principals, error) {
	if len(args) > 0 {
		return config.ParsePrincipals(args)
	}
	targets, err := config.LoadTargets(cfg.TargetsPath)
	if err != nil {
		return model.Principals{}, err
	}
	return targets.InspectPrincipals(), nil
}
