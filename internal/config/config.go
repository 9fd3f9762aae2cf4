package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/apimorph/pmconv/internal/domain"
)

// Config is the top-level configuration struct.
type Config struct {
	Service Service `yaml:"service"`
	Schema  Schema  `yaml:"schema"`
	Convert Convert `yaml:"convert"`
	Input   Input   `yaml:"input"`
	Output  Output  `yaml:"output"`
	Logging Logging `yaml:"logging"`
	DryRun  bool    `yaml:"dry_run"`
}

// Service configures the generative conversion endpoint.
type Service struct {
	URL           string `yaml:"url"`
	Model         string `yaml:"model"`
	ScriptTimeout string `yaml:"script_timeout"`
	RepairTimeout string `yaml:"repair_timeout"`
}

// Schema configures where the target collection schema is loaded from.
type Schema struct {
	URL          string `yaml:"url"`
	FallbackFile string `yaml:"fallback_file"`
	FetchTimeout string `yaml:"fetch_timeout"`
}

// Convert configures the fragment repair loop.
type Convert struct {
	MaxAttempts      int   `yaml:"max_attempts"`
	MaxFragmentBytes int   `yaml:"max_fragment_bytes"`
	SkipConformant   *bool `yaml:"skip_conformant"` // pointer to distinguish unset from false
}

// Input configures which files inside the uploaded archive are
// considered collection candidates.
type Input struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Output configures the converted archive.
type Output struct {
	Directory   string `yaml:"directory"`
	FileSuffix  string `yaml:"file_suffix"`
	ArchiveName string `yaml:"archive_name"`
}

// Logging configures the run logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Load reads a YAML configuration file and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError("config", path, 0, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.NewError("config", path, 0, "failed to parse config file", err)
	}

	return cfg, nil
}

// ApplyEnv overlays environment settings onto the config. A .env file
// in the working directory is honored when present; PMCONV_SERVICE_URL
// (or the legacy AZURE_URL) overrides service.url.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load()

	if url := os.Getenv("PMCONV_SERVICE_URL"); url != "" {
		cfg.Service.URL = url
	} else if url := os.Getenv("AZURE_URL"); url != "" && cfg.Service.URL == "" {
		cfg.Service.URL = url
	}
}

// SkipConformant reports whether already-conformant collections should
// be skipped rather than re-converted.
func (c *Config) SkipConformant() bool {
	if c.Convert.SkipConformant == nil {
		return true
	}
	return *c.Convert.SkipConformant
}
