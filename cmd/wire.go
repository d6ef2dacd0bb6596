package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/anicord/internal/adapters/catalog/anilist"
	"github.com/bnema/anicord/internal/adapters/metrics"
	sqliterepo "github.com/bnema/anicord/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/anicord/internal/adapters/repo/toml"
	chainstore "github.com/bnema/anicord/internal/adapters/secrets/chain"
	"github.com/bnema/anicord/internal/application"
	"github.com/bnema/anicord/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var errUnknownStoreBackend = errors.New("unknown store backend")

// app is the composition root shared by every subcommand. It is filled in
// by init once flags are parsed.
type app struct {
	config      *viper.Viper
	logger      *zap.Logger
	metrics     *metrics.Metrics
	catalog     ports.Catalog
	credentials ports.CredentialStore
	closers     []func() error
}

type stores struct {
	identities ports.IdentityStore
	settings   ports.SettingsStore
}

func (a *app) init(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.GetString(keyLogLevel))
	if err != nil {
		return err
	}

	credentials, err := chainstore.NewDefault(chainstore.DefaultConfig{
		Key:        tokenKey,
		EnvVar:     tokenEnvVar,
		PassDir:    cfg.GetString(keyPassDir),
		FileRoot:   cfg.GetString(keySecretsDir),
		LegacyPath: cfg.GetString(keyLegacyTokenPath),
	})
	if err != nil {
		return fmt.Errorf("wire credential store chain: %w", err)
	}

	m := metrics.New()
	a.config = cfg
	a.logger = logger
	a.metrics = m
	a.credentials = credentials
	a.catalog = m.InstrumentCatalog(anilist.Client{
		URL:            cfg.GetString(keyCatalogURL),
		RequestTimeout: cfg.GetDuration(keyCatalogTimeout),
	})
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close resource", zap.Error(err))
		}
	}
	a.closers = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) openStores(ctx context.Context) (stores, error) {
	switch backend := a.config.GetString(keyStoreBackend); backend {
	case storeBackendTOML:
		repo, err := tomlrepo.NewRepository(a.config)
		if err != nil {
			return stores{}, fmt.Errorf("wire toml repository: %w", err)
		}
		return stores{identities: repo, settings: repo}, nil
	case storeBackendSQLite:
		repo, err := sqliterepo.Open(ctx, a.config.GetString(keySQLitePath))
		if err != nil {
			return stores{}, fmt.Errorf("wire sqlite repository: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return stores{identities: repo, settings: repo}, nil
	default:
		return stores{}, fmt.Errorf("%w %q (want %s or %s)", errUnknownStoreBackend, backend, storeBackendTOML, storeBackendSQLite)
	}
}

func (a *app) rosterService(ctx context.Context, s stores) (*application.RosterService, error) {
	return application.NewRosterService(ctx, s.identities, a.catalog, a.logger.Named("roster"))
}

func (a *app) settingsService(ctx context.Context, s stores) (*application.SettingsService, error) {
	return application.NewSettingsService(ctx, s.settings, a.config.GetString(keyPrefix))
}

func (a *app) aggregator() *application.Aggregator {
	return application.NewAggregator(a.catalog, aggregatorConfig(a.config), ports.SystemClock{}, a.logger.Named("aggregator"))
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parsed)
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
