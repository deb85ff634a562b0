package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/cliniprov/internal/cache"
	"github.com/ppiankov/cliniprov/internal/logging"
	"github.com/ppiankov/cliniprov/internal/model"
	"github.com/ppiankov/cliniprov/internal/pipeline"
	"github.com/ppiankov/cliniprov/internal/taxonomy"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cliniprov",
	Short: "cliniprov - clinical value extraction and provenance linking",
	Long: `cliniprov extracts structured clinical values from specialist letters and
links each value to the source material it came from.

It finds measurements, diagnoses, medications, procedures, findings and risk
factors; attaches each one to the nearest transcript or document anchor; and
reports which values still need a clinician to verify them.

cliniprov never writes letters and never decides what is clinically correct.
Every extracted value is a suggestion for review.`,
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
	Long:  `Display the version number and the built-in taxonomy version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cliniprov %s (taxonomy %s)\n", Version, taxonomy.DefaultVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.cliniprov/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := setDefaults(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".cliniprov"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CLINIPROV_*; nested keys use _
	viper.SetEnvPrefix("CLINIPROV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every default key so environment variables can
// override keys that are absent from the config file
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}

	var walk func(prefix string, node map[string]interface{})
	walk = func(prefix string, node map[string]interface{}) {
		for key, value := range node {
			full := key
			if prefix != "" {
				full = prefix + "." + key
			}
			if child, ok := value.(map[string]interface{}); ok {
				walk(full, child)
				continue
			}
			v.SetDefault(full, value)
		}
	}
	walk("", tree)
	return nil
}

// loadConfig decodes the effective configuration (defaults, file, env)
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// newLogger builds the logger for a command; verbose lowers the level to debug
func newLogger(cfg *model.Config) zerolog.Logger {
	logCfg := cfg.Log
	if cfg.Output.Verbose {
		logCfg.Level = "debug"
	}
	return logging.New(logCfg)
}

// newPipeline validates cfg and wires the taxonomy, cache and logger into a pipeline
func newPipeline(cfg *model.Config) (*pipeline.Pipeline, zerolog.Logger, error) {
	logger := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}

	tax, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		return nil, logger, fmt.Errorf("load taxonomy: %w", err)
	}

	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache)
	}

	logger.Debug().
		Str("taxonomy_version", tax.Version()).
		Int("rules", tax.RuleCount()).
		Bool("cache", cfg.Cache.Enabled).
		Int("proximity_window", cfg.Linking.ProximityWindow).
		Msg("pipeline configured")

	return pipeline.NewPipeline(cfg, tax, c, logger), logger, nil
}
