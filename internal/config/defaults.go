package config

// Schema identifier URLs for the two collection format versions. The
// converter validates against the modern schema but labels output with
// the legacy identifier so existing tooling keeps accepting it.
const (
	ModernSchemaURL = "https://schema.getpostman.com/json/collection/v2.2.0/collection.json"
	LegacySchemaURL = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	skip := true
	return &Config{
		Service: Service{
			Model: "gpt-4.1-mini",
			// Script conversion calls tolerate very slow generation;
			// whole-document repair is bounded much tighter.
			ScriptTimeout: "1600s",
			RepairTimeout: "180s",
		},
		Schema: Schema{
			URL:          ModernSchemaURL,
			FallbackFile: "postman_collection_v2.2_schema.json",
			FetchTimeout: "10s",
		},
		Convert: Convert{
			MaxAttempts:      7,
			MaxFragmentBytes: 256 * 1024,
			SkipConformant:   &skip,
		},
		Input: Input{
			Include: []string{"*.json"},
			Exclude: []string{"__MACOSX/**", ".*/**"},
		},
		Output: Output{
			FileSuffix:  "_converted",
			ArchiveName: "converted_postman_jsons.zip",
		},
		Logging: Logging{
			Level: "info",
		},
		DryRun: false,
	}
}
