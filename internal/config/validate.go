package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/apimorph/pmconv/internal/domain"
)

// Validate checks the Config for required fields and valid values.
func Validate(cfg *Config) error {
	var errs []string

	// Service validation
	if cfg.Service.URL == "" {
		errs = append(errs, "service.url must be set (or provide PMCONV_SERVICE_URL in the environment)")
	}
	if cfg.Service.Model == "" {
		errs = append(errs, "service.model must not be empty")
	}
	for name, val := range map[string]string{
		"service.script_timeout": cfg.Service.ScriptTimeout,
		"service.repair_timeout": cfg.Service.RepairTimeout,
		"schema.fetch_timeout":   cfg.Schema.FetchTimeout,
	} {
		if val == "" {
			continue
		}
		if _, err := time.ParseDuration(val); err != nil {
			errs = append(errs, fmt.Sprintf("%s is not a valid duration: %v", name, err))
		}
	}

	// Schema validation: need at least one source
	if cfg.Schema.URL == "" && cfg.Schema.FallbackFile == "" {
		errs = append(errs, "schema.url or schema.fallback_file must be set")
	}

	// Convert validation
	if cfg.Convert.MaxAttempts < 1 {
		errs = append(errs, "convert.max_attempts must be at least 1")
	}
	if cfg.Convert.MaxFragmentBytes < 1024 {
		errs = append(errs, "convert.max_fragment_bytes must be at least 1024")
	}

	// Input validation
	if len(cfg.Input.Include) == 0 {
		errs = append(errs, "input.include must not be empty")
	}

	// Output validation
	if cfg.Output.FileSuffix == "" {
		errs = append(errs, "output.file_suffix must not be empty")
	}
	if cfg.Output.ArchiveName == "" {
		errs = append(errs, "output.archive_name must not be empty")
	}
	if !strings.HasSuffix(cfg.Output.ArchiveName, ".zip") {
		errs = append(errs, "output.archive_name must end with .zip")
	}

	// Validate logging level
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[cfg.Logging.Level] {
			errs = append(errs, fmt.Sprintf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
		}
	}

	if len(errs) > 0 {
		return domain.NewError("config", "", 0, fmt.Sprintf("validation failed: %s", strings.Join(errs, "; ")), nil)
	}

	return nil
}

// Duration parses a config duration string, falling back to def when
// the value is empty. Validate has already rejected malformed values.
func Duration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}
