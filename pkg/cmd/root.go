package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eventpass/companion-sdk/pkg/api"
	"github.com/eventpass/companion-sdk/pkg/cache"
	"github.com/eventpass/companion-sdk/pkg/cmd/properties"
	"github.com/eventpass/companion-sdk/pkg/config"
	"github.com/eventpass/companion-sdk/pkg/storage"
	"github.com/eventpass/companion-sdk/pkg/syncer"
	"github.com/eventpass/companion-sdk/pkg/util"
	"github.com/eventpass/companion-sdk/pkg/util/log"
)

// CompanionRootCmd - Root command for the companion cache tooling
type CompanionRootCmd interface {
	RootCmd() *cobra.Command
	Execute() error
	GetProperties() properties.Properties
}

// companionRootCommand - Represents the companion root command
type companionRootCommand struct {
	name    string
	rootCmd *cobra.Command
	props   properties.Properties
}

// NewRootCmd - Creates a new companion root command with the status, clear
// and fetch subcommands attached
func NewRootCmd(exeName, desc string) CompanionRootCmd {
	c := &companionRootCommand{
		name: exeName,
	}

	c.rootCmd = &cobra.Command{
		Use:               c.name,
		Short:             desc,
		Version:           fmt.Sprintf("%s-%s", BuildVersion, BuildCommitSha),
		PersistentPreRun:  c.initialize,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
	}

	c.props = properties.NewProperties(c.rootCmd)
	c.addLogProperties()
	config.AddCacheConfigProperties(c.props)
	config.AddSyncConfigProperties(c.props)
	config.AddProxyConfigProperties(c.props)

	c.rootCmd.AddCommand(c.statusCmd())
	c.rootCmd.AddCommand(c.clearCmd())
	c.rootCmd.AddCommand(c.fetchCmd())

	return c
}

func (c *companionRootCommand) addLogProperties() {
	c.props.AddStringProperty("envFile", "", "Path of a file containing environment variable overrides")
	c.props.AddStringProperty("log.level", "info", "Log level (trace, debug, info, warn, error)")
	c.props.AddStringProperty("log.format", "json", "Log format (json, line)")
	c.props.AddStringProperty("log.output", "stdout", "Log output destination (stdout, file, both)")
	c.props.AddStringProperty("log.path", ".", "Directory for file log output")
}

// initialize - reads the optional config file and applies the logger settings
// before any subcommand runs
func (c *companionRootCommand) initialize(cmd *cobra.Command, args []string) {
	if envFile := c.props.StringPropertyValue("envFile"); envFile != "" {
		if err := util.LoadEnvFromFile(envFile); err != nil {
			log.Errorf("error loading env file: %s", err.Error())
		}
	}

	viper.SetConfigName(c.name)
	viper.AddConfigPath(".")
	viper.SetTypeByDefaultValue(true)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		// a config file is optional, flags and env vars still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Errorf("error reading config file: %s", err.Error())
		}
	}

	err := log.GlobalLoggerConfig.
		Level(c.props.StringPropertyValue("log.level")).
		Format(c.props.StringPropertyValue("log.format")).
		Output(c.props.StringPropertyValue("log.output")).
		Path(c.props.StringPropertyValue("log.path")).
		Apply()
	if err != nil {
		log.Errorf("error applying logger config: %s", err.Error())
	}
}

// openCache - builds the cache over the configured file storage backend with
// the standard tables registered
func (c *companionRootCommand) openCache() (cache.Cache, config.CacheConfig, error) {
	cacheCfg, err := config.ParseCacheConfig(c.props)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewFileStore(cacheCfg.GetStoragePath())
	if err != nil {
		return nil, nil, err
	}

	companionCache := cache.New(cache.Config{
		Namespace:     cacheCfg.GetNamespace(),
		SchemaVersion: cacheCfg.GetSchemaVersion(),
		DefaultTTL:    cacheCfg.GetDefaultTTL(),
		HardMaxAge:    cacheCfg.GetHardMaxAge(),
	}, store)
	api.RegisterDefaultTables(companionCache)

	return companionCache, cacheCfg, nil
}

// statusCmd - prints a health snapshot of the configured cache directory
func (c *companionRootCommand) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print a health snapshot of the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			companionCache, _, err := c.openCache()
			if err != nil {
				return err
			}

			status := companionCache.HealthStatus()
			out, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

// clearCmd - removes every entry in the configured namespace, the sign-out
// path for the local cache
func (c *companionRootCommand) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry in the configured namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			companionCache, cacheCfg, err := c.openCache()
			if err != nil {
				return err
			}

			if err := companionCache.Clear(); err != nil {
				return err
			}
			log.Infof("cleared cache namespace %s", cacheCfg.GetNamespace())
			return nil
		},
	}
}

// fetchCmd - refreshes one table through the full fetch, filter and cache
// pipeline
func (c *companionRootCommand) fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <table>",
		Short: "Refresh one table from the backend proxy into the local cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]

			companionCache, _, err := c.openCache()
			if err != nil {
				return err
			}

			syncCfg, err := config.ParseSyncConfig(c.props)
			if err != nil {
				return err
			}
			proxyCfg, err := config.ParseProxyConfig(c.props)
			if err != nil {
				return err
			}

			client := api.NewClient(api.WithTimeout(proxyCfg.GetTimeout()))
			source := api.NewDataSource(client, proxyCfg.GetBaseURL(), proxyCfg.GetSessionToken())

			companionSyncer := syncer.New(syncer.Config{
				Retries:       syncCfg.GetRetries(),
				RetryDelay:    syncCfg.GetRetryDelay(),
				BackoffFactor: syncCfg.GetBackoffFactor(),
				MaxRetryDelay: syncCfg.GetMaxRetryDelay(),
			}, companionCache)
			defer companionSyncer.Stop()

			result := companionSyncer.Refresh(cmd.Context(), table, source.Fetcher(table))
			if !result.Success {
				return fmt.Errorf("refresh of table %s failed: %w", table, result.Err)
			}
			if result.Discarded {
				log.Warnf("refresh of table %s was superseded by a fresher result", table)
				return nil
			}

			log.Infof("refreshed table %s", table)
			return nil
		},
	}
}

// RootCmd - Returns the root cobra command
func (c *companionRootCommand) RootCmd() *cobra.Command {
	return c.rootCmd
}

// GetProperties - Returns the command properties
func (c *companionRootCommand) GetProperties() properties.Properties {
	return c.props
}

// Execute - runs the root command
func (c *companionRootCommand) Execute() error {
	return c.rootCmd.ExecuteContext(context.Background())
}
