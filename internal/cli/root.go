package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/apimorph/pmconv/internal/config"
)

var (
	cfgFile string
	verbose bool
	dryRun  bool
	log     *logrus.Logger
)

// rootCmd is the base command for pmconv.
var rootCmd = &cobra.Command{
	Use:   "pmconv",
	Short: "Convert legacy Postman collections to the v2.2 format",
	Long: `pmconv rewrites the embedded pre-request and test scripts of
legacy (v2.1) Postman collections through a generative conversion
service and validates the result against the published v2.2 schema.

Input is a zipped folder of collection JSON files; output is a zip of
the converted collections.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "pmconv.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "convert and validate but don't write the output archive")

	log = logrus.New()
	log.SetOutput(os.Stderr)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configured file, falling back to defaults when
// the default config path simply does not exist.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) && !rootCmd.PersistentFlags().Changed("config") {
		return config.DefaultConfig(), nil
	}
	return config.Load(cfgFile)
}

// applyLogLevel maps the config logging level onto the run logger,
// unless --verbose already forced debug.
func applyLogLevel(cfg *config.Config) {
	if verbose {
		return
	}
	switch cfg.Logging.Level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}
