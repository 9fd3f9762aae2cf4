package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/apimorph/pmconv/internal/config"
	"github.com/apimorph/pmconv/internal/domain"
	"github.com/apimorph/pmconv/internal/fragment"
	"github.com/apimorph/pmconv/internal/genservice"
	"github.com/apimorph/pmconv/internal/pipeline"
	"github.com/apimorph/pmconv/internal/prompt"
	"github.com/apimorph/pmconv/internal/scanner"
	"github.com/apimorph/pmconv/internal/schema"
)

var convertCmd = &cobra.Command{
	Use:   "convert <archive.zip>",
	Short: "Convert a zipped folder of legacy collections",
	Long:  `Extracts the archive, rewrites every embedded script through the conversion service, validates each collection, and writes the converted archive.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		config.ApplyEnv(cfg)

		if dryRun {
			cfg.DryRun = true
		}

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
		applyLogLevel(cfg)

		log.Info("Configuration loaded successfully")

		summary, err := runConvert(cmd, cfg, args[0])
		if err != nil {
			return err
		}

		for kind, count := range summary.Counts {
			log.Infof("%s: %d file(s)", kind, count)
		}
		if summary.ArchivePath != "" {
			log.Infof("Converted archive written to %s", summary.ArchivePath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

// runConvert wires all components and runs the pipeline.
func runConvert(cmd *cobra.Command, cfg *config.Config, archivePath string) (*pipeline.Summary, error) {
	prompts, err := prompt.NewSet()
	if err != nil {
		return nil, err
	}

	// The transcript is scoped to this run and discarded with it.
	transcript := genservice.NewTranscript()
	client, err := genservice.NewHTTPClient(
		cfg.Service.URL, cfg.Service.Model, prompts, transcript,
		genservice.WithTimeouts(
			config.Duration(cfg.Service.ScriptTimeout, 1600*time.Second),
			config.Duration(cfg.Service.RepairTimeout, 180*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	validator, err := schema.Load(cmd.Context(), &cfg.Schema)
	if err != nil {
		return nil, err
	}
	if validator.Source == "fallback" {
		log.Warn("Loaded collection schema from local fallback")
	}

	finalizer := schema.NewFinalizer(validator, client, log)
	frag := fragment.NewConverter(client, &cfg.Convert, log)

	var rep domain.Reporter = pipeline.NewReporter(log)
	p := pipeline.New(cfg, scanner.NewScanner(), frag, finalizer, rep, log)
	return p.Run(cmd.Context(), archivePath)
}
