package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/anicord/internal/adapters/discord"
	"github.com/bnema/anicord/internal/adapters/metrics"
	"github.com/bnema/anicord/internal/pagination"
	"github.com/bnema/anicord/internal/ports"
	"github.com/bnema/anicord/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve bot commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			token, err := app.credentials.Get(ctx, tokenKey)
			if err != nil {
				if errors.Is(err, ports.ErrCredentialNotFound) {
					return fmt.Errorf("no discord token: set %s or run `anicord token set`: %w", tokenEnvVar, err)
				}
				return fmt.Errorf("load discord token: %w", err)
			}

			s, err := app.openStores(ctx)
			if err != nil {
				return err
			}
			rosters, err := app.rosterService(ctx, s)
			if err != nil {
				return err
			}
			settings, err := app.settingsService(ctx, s)
			if err != nil {
				return err
			}

			session, err := discord.NewSession(token)
			if err != nil {
				return err
			}

			pages := pagination.NewRegistry(pagination.RegistryOptions{
				IdleTimeout: app.config.GetDuration(keyIdleTimeout),
				Observer:    app.metrics,
				Logger:      app.logger.Named("pagination"),
			})
			router := discord.NewRouter(discord.Config{
				Session:        session,
				Rosters:        rosters,
				Settings:       settings,
				Catalog:        app.catalog,
				Aggregator:     app.aggregator(),
				Pages:          pages,
				Observer:       app.metrics,
				Logger:         app.logger.Named("discord"),
				Version:        version.Version,
				CommandTimeout: app.config.GetDuration(keyCommandTimeout),
			})
			bot := discord.NewBot(session, router, app.logger)

			app.logger.Info("starting anicord",
				zap.String("version", version.Version),
				zap.String("store", app.config.GetString(keyStoreBackend)),
				zap.String("prefix", settings.Prefix()),
			)

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return bot.Run(groupCtx)
			})
			if addr := app.config.GetString(keyMetricsAddr); addr != "" {
				group.Go(func() error {
					return metrics.Serve(groupCtx, addr, app.metrics.Handler(), app.logger.Named("metrics"))
				})
			}

			return group.Wait()
		},
	}
}
