// Package cli implements the krank command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/krankdata/krank"
	"github.com/krankdata/krank/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "krank",
	Short: "krank - Fetch curated dream report corpora",
	Long: `krank downloads, caches, and loads curated dream report corpora from
published research studies.

Every corpus is described by a registry entry carrying its download
location, an integrity hash, and a mapping from the source file's
columns to canonical column names. Loading a corpus verifies the cached
file's hash, normalizes the report text, and validates the derived
reports and authors tables.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("krank v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.krank/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("cache-dir", "", "cache directory for downloaded corpus files")
	rootCmd.PersistentFlags().String("registry", "", "path to an external registry YAML (default: embedded registry)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("registry_path", rootCmd.PersistentFlags().Lookup("registry"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.krank")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match KRANK_*
	viper.SetEnvPrefix("KRANK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// buildConfig merges defaults with the config file, env vars, and flags.
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()
	if v := viper.GetString("cache_dir"); v != "" {
		cfg.CacheDir = v
	}
	if v := viper.GetString("registry_path"); v != "" {
		cfg.RegistryPath = v
	}
	if d := viper.GetDuration("http.timeout"); d > 0 {
		cfg.HTTP.Timeout = d
	}
	if v := viper.GetString("http.user_agent"); v != "" {
		cfg.HTTP.UserAgent = v
	}
	if n := viper.GetInt64("http.max_body_bytes"); n > 0 {
		cfg.HTTP.MaxBodyBytes = n
	}
	if r := viper.GetFloat64("http.requests_per_second"); r > 0 {
		cfg.HTTP.RequestsPerSecond = r
	}
	if b := viper.GetInt("http.burst"); b > 0 {
		cfg.HTTP.Burst = b
	}
	if v := viper.GetString("http.http_proxy"); v != "" {
		cfg.HTTP.HTTPProxy = v
	}
	if v := viper.GetString("http.https_proxy"); v != "" {
		cfg.HTTP.HTTPSProxy = v
	}
	if n := viper.GetInt("aggregate.concurrency"); n > 0 {
		cfg.Aggregate.Concurrency = n
	}
	return cfg
}

// newClient builds the shared client from the merged configuration.
func newClient() (*krank.Client, error) {
	return krank.New(buildConfig())
}
