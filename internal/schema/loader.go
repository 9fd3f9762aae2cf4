// Package schema validates converted collections against the modern
// collection schema and drives the whole-document repair loop.
package schema

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/apimorph/pmconv/internal/collection"
	"github.com/apimorph/pmconv/internal/config"
	"github.com/apimorph/pmconv/internal/domain"
)

// Violation is a structured schema validation failure.
type Violation struct {
	File    string
	Details []string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("schema violation: %s", strings.Join(v.Details, "; "))
}

// Validator wraps the compiled collection schema.
type Validator struct {
	schema *gojsonschema.Schema
	// Source records where the schema definition came from: "url" or
	// "fallback".
	Source string
}

// Load fetches the schema definition from the configured URL, falling
// back to the local schema file. Both sources failing is a setup error
// that aborts the run.
func Load(ctx context.Context, cfg *config.Schema) (*Validator, error) {
	data, source, err := loadDefinition(ctx, cfg)
	if err != nil {
		return nil, err
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, domain.NewSetupError("failed to compile collection schema", err)
	}
	return &Validator{schema: compiled, Source: source}, nil
}

func loadDefinition(ctx context.Context, cfg *config.Schema) ([]byte, string, error) {
	var urlErr error
	if cfg.URL != "" {
		data, err := fetchSchema(ctx, cfg.URL, cfg)
		if err == nil {
			return data, "url", nil
		}
		urlErr = err
	}

	if cfg.FallbackFile != "" {
		data, err := os.ReadFile(cfg.FallbackFile)
		if err == nil {
			return data, "fallback", nil
		}
		if urlErr != nil {
			return nil, "", domain.NewSetupError(
				fmt.Sprintf("failed to load collection schema from both URL and local file (URL error: %v; local error: %v)", urlErr, err), nil)
		}
		return nil, "", domain.NewSetupError("failed to load collection schema from local file", err)
	}

	return nil, "", domain.NewSetupError("failed to load collection schema from URL", urlErr)
}

func fetchSchema(ctx context.Context, url string, cfg *config.Schema) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, config.Duration(cfg.FetchTimeout, 10*time.Second))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Validate checks a document tree against the compiled schema,
// returning a *Violation describing every mismatch.
func (v *Validator) Validate(doc *collection.Document) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc.Root))
	if err != nil {
		return &Violation{File: doc.Name, Details: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return &Violation{File: doc.Name, Details: details}
}
