// Package commands implements the CLI commands for anticrawl.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/searcrawl/anticrawl/internal/logger"
	"github.com/searcrawl/anticrawl/internal/version"
	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

var rootCmd = &cobra.Command{
	Use:     "anticrawl",
	Version: version.String(),
	Short:   "Request diversification layer for web crawlers",
	Long: `Anticrawl draws per-request identities for crawl engines: a user-agent
signature, a coherent browser header set, an egress proxy, and an
inter-request delay, rotated so consecutive requests do not share a
fingerprint.

Configuration comes from a config file, environment variables
(ANTI_CRAWL_ENABLED, PROXY_LIST, ...), and flags, in that order.

Examples:
  # Inspect five drawn identities
  anticrawl draw -n 5

  # Validate configuration and probe every proxy endpoint
  PROXY_LIST="proxy1.example.com:8080,proxy2.example.com:3128" \
      anticrawl check --probe

  # Crawl a listing and its detail pages, one fresh identity per fetch
  anticrawl crawl "https://example.com/search" \
      --follow "a.result" --next "a.next-page" --max-pages 5

  # Print the Chrome flags for fingerprint suppression
  anticrawl launch-args`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default: $XDG_CONFIG_HOME/anticrawl/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))

	rootCmd.SetVersionTemplate(version.Full() + "\n")
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "anticrawl"))
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogging configures the package logger from the global flags. Called
// at the top of every RunE so flag parsing has already happened.
func initLogging() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
}

// loadSettings layers the configuration sources: documented defaults,
// then config file keys, then environment variables. Environment values
// that fail to parse surface as *ConfigError rather than falling back.
func loadSettings() (anticrawl.Settings, error) {
	s := anticrawl.DefaultSettings()
	if err := viper.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("invalid config file: %w", err)
	}
	return s.WithEnv()
}
