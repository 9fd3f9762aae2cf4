// Package pipeline is the top-level orchestrator: extract the uploaded
// archive, convert each collection document, validate, and build the
// output archive.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/apimorph/pmconv/internal/archive"
	"github.com/apimorph/pmconv/internal/collection"
	"github.com/apimorph/pmconv/internal/config"
	"github.com/apimorph/pmconv/internal/domain"
	"github.com/apimorph/pmconv/internal/fragment"
	"github.com/apimorph/pmconv/internal/scanner"
	"github.com/apimorph/pmconv/internal/schema"
)

// Pipeline wires all components and processes one uploaded archive.
// Documents are processed strictly one at a time, fragments within a
// document one at a time.
type Pipeline struct {
	cfg       *config.Config
	scanner   scanner.Scanner
	frag      *fragment.Converter
	finalizer *schema.Finalizer
	rep       domain.Reporter
	log       *logrus.Logger
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	s scanner.Scanner,
	frag *fragment.Converter,
	finalizer *schema.Finalizer,
	rep domain.Reporter,
	log *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		scanner:   s,
		frag:      frag,
		finalizer: finalizer,
		rep:       rep,
		log:       log,
	}
}

// Summary is the result of one conversion run.
type Summary struct {
	Outcomes    []domain.Outcome
	Counts      map[domain.OutcomeKind]int
	ArchivePath string // empty when no archive was produced
}

// Converted returns the number of documents that reached a valid state.
func (s *Summary) Converted() int {
	return s.Counts[domain.OutcomeConverted] + s.Counts[domain.OutcomeRepaired]
}

// Run processes the archive at archivePath end to end. Only setup
// errors (unreadable archive, unscannable extraction) abort the run;
// every per-document failure is recorded as an outcome and reported.
func (p *Pipeline) Run(ctx context.Context, archivePath string) (*Summary, error) {
	tmpDir, err := os.MkdirTemp("", "pmconv-*")
	if err != nil {
		return nil, domain.NewSetupError("failed to create working directory", err)
	}
	defer os.RemoveAll(tmpDir)

	extractDir := filepath.Join(tmpDir, "unzipped")
	if err := os.MkdirAll(extractDir, 0755); err != nil {
		return nil, domain.NewSetupError("failed to create extraction directory", err)
	}
	if err := archive.Extract(archivePath, extractDir); err != nil {
		return nil, err
	}
	p.log.Info("Archive extracted, starting script conversion")

	files, err := p.scanner.Scan(extractDir, p.cfg.Input.Include, p.cfg.Input.Exclude)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Counts: make(map[domain.OutcomeKind]int)}
	if len(files) == 0 {
		p.log.Warn("No collection files found in archive")
		return summary, nil
	}
	p.log.Infof("Found %d candidate file(s)", len(files))

	outputs := make(map[string][]byte)
	for _, path := range files {
		name := filepath.Base(path)
		outcome, outName, data := p.processDocument(ctx, path, name)

		summary.Outcomes = append(summary.Outcomes, outcome)
		summary.Counts[outcome.Kind]++
		if outName != "" {
			outputs[outName] = data
		}
	}

	if summary.Converted() == 0 {
		p.log.Warn("No valid collection files were converted; no archive produced")
		return summary, nil
	}

	p.log.Infof("Converted %d collection(s) successfully", summary.Converted())
	if p.cfg.DryRun {
		p.log.Info("[DRY-RUN] Skipping output archive")
		return summary, nil
	}

	outPath := p.cfg.Output.ArchiveName
	if p.cfg.Output.Directory != "" {
		if err := os.MkdirAll(p.cfg.Output.Directory, 0755); err != nil {
			return nil, domain.NewError("write", p.cfg.Output.Directory, 0, "failed to create output directory", err)
		}
		outPath = filepath.Join(p.cfg.Output.Directory, outPath)
	}
	if err := archive.Build(outPath, outputs); err != nil {
		return nil, err
	}
	summary.ArchivePath = outPath
	p.log.Infof("Writing: %s", outPath)

	return summary, nil
}

// processDocument runs one document through the tree walk and the
// validation pass, yielding exactly one outcome. Successful documents
// also return their output filename and serialized bytes.
func (p *Pipeline) processDocument(ctx context.Context, path, name string) (domain.Outcome, string, []byte) {
	raw, err := os.ReadFile(path)
	if err != nil {
		p.rep.Warning(name, fmt.Sprintf("skipped: unreadable file: %v", err))
		return domain.Outcome{File: name, Kind: domain.OutcomeRejected, Reason: "unreadable file"}, "", nil
	}

	if !collection.HasItems(raw) {
		p.rep.Warning(name, "skipped: no 'item' key found")
		return domain.Outcome{File: name, Kind: domain.OutcomeRejected, Reason: "no 'item' key found"}, "", nil
	}

	doc, err := collection.Decode(name, raw)
	if err != nil {
		p.rep.Warning(name, fmt.Sprintf("skipped: %v", err))
		return domain.Outcome{File: name, Kind: domain.OutcomeRejected, Reason: "not a parseable collection"}, "", nil
	}

	if p.cfg.SkipConformant() && p.alreadyConformant(name, raw) {
		p.rep.Status(name, "already conforms to the target format, skipping conversion")
		return domain.Outcome{File: name, Kind: domain.OutcomeRejected, Reason: "already conformant"}, "", nil
	}

	fragIndex := 0
	collection.WalkScripts(ctx, doc, func(ctx context.Context, frag domain.Fragment) []string {
		fragIndex++
		lines, report := p.frag.ConvertFragment(ctx, frag)
		switch {
		case report.Emptied:
			p.rep.Fragment(name, fragIndex, fmt.Sprintf("script conversion failed after %d attempt(s), emitting empty script", report.Attempts))
		case report.Degraded:
			p.rep.Fragment(name, fragIndex, fmt.Sprintf("script accepted after last-resort syntax fix (%d attempt(s), %d remaining defect(s))", report.Attempts, len(report.Defects)))
		}
		return lines
	})
	p.log.Debugf("%s: converted %d script fragment(s)", name, fragIndex)

	final, kind, errs := p.finalizer.Finalize(ctx, doc)
	if kind == domain.OutcomeFailed {
		p.rep.Failure(name, fmt.Sprintf("still invalid after repair: %s", strings.Join(errs, "; ")))
		return domain.Outcome{File: name, Kind: kind, Errors: errs}, "", nil
	}

	data, err := final.Encode()
	if err != nil {
		p.rep.Failure(name, err.Error())
		return domain.Outcome{File: name, Kind: domain.OutcomeFailed, Errors: []string{err.Error()}}, "", nil
	}

	if kind == domain.OutcomeRepaired {
		p.rep.Status(name, "fixed and validated on retry")
	} else {
		p.rep.Status(name, "converted and validated")
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	outName := stem + p.cfg.Output.FileSuffix + ".json"
	return domain.Outcome{File: name, Kind: kind}, outName, data
}

// alreadyConformant probes whether the document validates as-is. The
// probe works on a fresh decode so the relabeling never touches the
// document under conversion.
func (p *Pipeline) alreadyConformant(name string, raw []byte) bool {
	probe, err := collection.Decode(name, raw)
	if err != nil {
		return false
	}
	return p.finalizer.ValidateRelabel(probe) == nil
}
