package schema

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/apimorph/pmconv/internal/collection"
	"github.com/apimorph/pmconv/internal/config"
	"github.com/apimorph/pmconv/internal/domain"
	"github.com/apimorph/pmconv/internal/genservice"
)

// Finalizer runs the post-conversion validation pass: validate each
// document against the modern schema and, on failure, request one
// whole-document repair before giving up.
type Finalizer struct {
	validator *Validator
	client    genservice.Client
	log       logrus.FieldLogger
}

// NewFinalizer creates a Finalizer.
func NewFinalizer(validator *Validator, client genservice.Client, log logrus.FieldLogger) *Finalizer {
	return &Finalizer{validator: validator, client: client, log: log}
}

// ValidateRelabel validates the document under the modern schema
// identifier and, on success, rewrites the identifier to the legacy
// version string. The document is checked against the modern schema's
// structural rules but intentionally shipped labeled as the older
// version, so existing tooling keeps accepting it.
func (f *Finalizer) ValidateRelabel(doc *collection.Document) error {
	doc.SetSchemaID(config.ModernSchemaURL)
	if err := f.validator.Validate(doc); err != nil {
		return err
	}
	doc.SetSchemaID(config.LegacySchemaURL)
	return nil
}

// Finalize validates one converted document, attempting a single
// whole-document repair on failure. It returns the document to persist
// (possibly the reparsed repair result), its outcome kind, and the
// retained error messages for failed documents. No retries happen
// beyond the single repair round.
func (f *Finalizer) Finalize(ctx context.Context, doc *collection.Document) (*collection.Document, domain.OutcomeKind, []string) {
	firstErr := f.ValidateRelabel(doc)
	if firstErr == nil {
		return doc, domain.OutcomeConverted, nil
	}

	f.log.Warnf("%s failed validation, requesting whole-document repair", doc.Name)

	raw, err := doc.Encode()
	if err != nil {
		return doc, domain.OutcomeFailed, []string{firstErr.Error(), err.Error()}
	}

	fixed, err := f.client.RepairDocument(ctx, string(raw))
	if err != nil {
		return doc, domain.OutcomeFailed, []string{firstErr.Error(), err.Error()}
	}

	repaired, note, err := Salvage(doc.Name, genservice.CleanDocument(fixed))
	if err != nil {
		return doc, domain.OutcomeFailed, []string{firstErr.Error(), err.Error()}
	}
	if note != "" {
		f.log.Warnf("%s: %s", doc.Name, note)
	}

	if err := f.ValidateRelabel(repaired); err != nil {
		return doc, domain.OutcomeFailed, []string{firstErr.Error(), err.Error()}
	}

	return repaired, domain.OutcomeRepaired, nil
}
