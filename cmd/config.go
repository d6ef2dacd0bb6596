package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/anicord/internal/adapters/catalog/anilist"
	"github.com/bnema/anicord/internal/adapters/discord"
	tomlrepo "github.com/bnema/anicord/internal/adapters/repo/toml"
	"github.com/bnema/anicord/internal/application"
	"github.com/bnema/anicord/internal/pagination"
	"github.com/spf13/viper"
)

const (
	envPrefix       = "ANICORD"
	configName      = "config"
	configType      = "toml"
	configDirName   = ".config/anicord"
	tokenKey        = "anicord/discord/token"
	tokenEnvVar     = "ANICORD_DISCORD_TOKEN"
	legacyTokenFile = ".token"

	keyPrefix          = "prefix"
	keyCatalogURL      = "catalog.url"
	keyCatalogTimeout  = "catalog.timeout"
	keyStoreBackend    = "store.backend"
	keyStoreDir        = tomlrepo.StoreDirKey
	keySQLitePath      = "store.sqlite_path"
	keyMinDropAnime    = "aggregate.min_drop_anime"
	keyMinDropManga    = "aggregate.min_drop_manga"
	keyConcurrency     = "aggregate.concurrency"
	keyBatchDelay      = "aggregate.batch_delay"
	keyRetryAttempts   = "retry.attempts"
	keyRetryDelay      = "retry.delay"
	keyIdleTimeout     = "pagination.idle_timeout"
	keyCommandTimeout  = "discord.command_timeout"
	keyLogLevel        = "log.level"
	keyMetricsAddr     = "metrics.addr"
	keySecretsDir      = "secrets.dir"
	keyLegacyTokenPath = "secrets.legacy_token_file"
	keyPassDir         = "secrets.pass_dir"

	storeBackendTOML   = "toml"
	storeBackendSQLite = "sqlite"
)

// loadConfig reads config.toml from path, or from the default directory when
// path is empty. A missing default file is not an error.
func loadConfig(path string) (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, configDirName)

	v := viper.New()
	setDefaults(v, configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault(keyPrefix, "")
	v.SetDefault(keyCatalogURL, anilist.DefaultURL)
	v.SetDefault(keyCatalogTimeout, anilist.DefaultRequestTimeout)
	v.SetDefault(keyStoreBackend, storeBackendTOML)
	v.SetDefault(keyStoreDir, configDir)
	v.SetDefault(keySQLitePath, filepath.Join(configDir, "anicord.db"))
	v.SetDefault(keyMinDropAnime, application.DefaultMinDropAnime)
	v.SetDefault(keyMinDropManga, application.DefaultMinDropManga)
	v.SetDefault(keyConcurrency, application.DefaultConcurrency)
	v.SetDefault(keyBatchDelay, application.DefaultBatchDelay)
	v.SetDefault(keyRetryAttempts, application.DefaultRetryAttempts)
	v.SetDefault(keyRetryDelay, application.DefaultRetryDelay)
	v.SetDefault(keyIdleTimeout, pagination.DefaultIdleTimeout)
	v.SetDefault(keyCommandTimeout, discord.DefaultCommandTimeout)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyMetricsAddr, "")
	v.SetDefault(keySecretsDir, filepath.Join(configDir, "secrets"))
	v.SetDefault(keyLegacyTokenPath, legacyTokenFile)
	v.SetDefault(keyPassDir, "")
}

func aggregatorConfig(v *viper.Viper) application.AggregatorConfig {
	return application.AggregatorConfig{
		Thresholds: application.DropThresholds{
			Anime: v.GetInt(keyMinDropAnime),
			Manga: v.GetInt(keyMinDropManga),
		},
		Retry: application.RetryPolicy{
			Attempts: v.GetInt(keyRetryAttempts),
			Delay:    v.GetDuration(keyRetryDelay),
		},
		Concurrency: v.GetInt(keyConcurrency),
		BatchDelay:  v.GetDuration(keyBatchDelay),
	}
}
