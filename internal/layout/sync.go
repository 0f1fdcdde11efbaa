// Package layout copies shared regions from a template page into target pages.
package layout

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/starford/layoutsync/internal/checksum"
	"github.com/starford/layoutsync/internal/models"
	"github.com/starford/layoutsync/internal/region"
	"github.com/starford/layoutsync/internal/storage"
)

// Plan is the fixed input of a run: where the template lives, which targets
// to update and in what order, and which regions to copy.
type Plan struct {
	Template string
	Targets  []string
	Regions  []region.Region
	// Strict rejects documents whose start markers appear more than once.
	Strict bool
}

// Validate checks the plan is usable.
func (p Plan) Validate() error {
	if p.Template == "" {
		return fmt.Errorf("layout: template path is required")
	}
	if len(p.Regions) == 0 {
		return fmt.Errorf("layout: at least one region is required")
	}
	return region.Validate(p.Regions)
}

// Blocks maps region names to the text extracted from the template.
type Blocks map[string]string

// Synchronizer applies a Plan against a storage provider.
type Synchronizer struct {
	store  storage.Provider
	plan   Plan
	out    io.Writer
	logger *slog.Logger
	diff   func(path, before, after string) (string, error)
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithNotices sets where "Updated <path>" lines are written.
func WithNotices(w io.Writer) Option {
	return func(s *Synchronizer) {
		s.out = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = l
	}
}

// New creates a Synchronizer. Notices are discarded unless WithNotices is given.
func New(store storage.Provider, plan Plan, opts ...Option) (*Synchronizer, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	s := &Synchronizer{
		store:  store,
		plan:   plan,
		out:    io.Discard,
		logger: slog.New(slog.DiscardHandler),
		diff:   unifiedDiff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Plan returns the plan the synchronizer was built with.
func (s *Synchronizer) Plan() Plan {
	return s.plan
}

// Sync copies every region from the template into each target and rewrites
// targets whose content changed. Targets are processed in plan order; on
// error the report covers the targets finished so far.
func (s *Synchronizer) Sync() (*models.Report, error) {
	return s.run(false)
}

// Check runs the same pipeline as Sync without writing anything. Targets
// that would change carry a unified diff.
func (s *Synchronizer) Check() (*models.Report, error) {
	return s.run(true)
}

func (s *Synchronizer) run(dryRun bool) (*models.Report, error) {
	report := &models.Report{Template: s.plan.Template, DryRun: dryRun}

	blocks, err := s.TemplateBlocks()
	if err != nil {
		return report, err
	}

	for _, target := range s.plan.Targets {
		res, err := s.syncTarget(target, blocks, dryRun)
		if err != nil {
			return report, err
		}
		report.Targets = append(report.Targets, res)
	}

	s.logger.Debug("sync: finished",
		slog.String("template", s.plan.Template),
		slog.Int("targets", len(report.Targets)),
		slog.Int("changed", len(report.Changed())),
		slog.Bool("dry_run", dryRun))
	return report, nil
}

// TemplateBlocks reads the template and extracts every configured region.
func (s *Synchronizer) TemplateBlocks() (Blocks, error) {
	data, err := s.store.Read(s.plan.Template)
	if err != nil {
		return nil, err
	}
	text := string(data)

	blocks := make(Blocks, len(s.plan.Regions))
	for _, r := range s.plan.Regions {
		if s.plan.Strict {
			if err := r.CheckUnique(s.plan.Template, text); err != nil {
				return nil, err
			}
		}
		block, err := r.Extract(s.plan.Template, text)
		if err != nil {
			return nil, err
		}
		blocks[r.Name] = block
	}
	return blocks, nil
}

// Apply substitutes each region of text in plan order. Every step works on
// the output of the previous one.
func (s *Synchronizer) Apply(doc, text string, blocks Blocks) (string, error) {
	updated := text
	for _, r := range s.plan.Regions {
		if s.plan.Strict {
			if err := r.CheckUnique(doc, updated); err != nil {
				return "", err
			}
		}
		block, ok := blocks[r.Name]
		if !ok {
			return "", &region.MissingRegionError{Document: s.plan.Template, Region: r.Name}
		}
		next, err := r.Replace(doc, updated, block)
		if err != nil {
			return "", err
		}
		updated = next
	}
	return updated, nil
}

func (s *Synchronizer) syncTarget(target string, blocks Blocks, dryRun bool) (models.TargetResult, error) {
	data, err := s.store.Read(target)
	if err != nil {
		return models.TargetResult{}, err
	}
	text := string(data)

	updated, err := s.Apply(target, text, blocks)
	if err != nil {
		return models.TargetResult{}, err
	}

	res := models.TargetResult{
		Path:     target,
		Changed:  updated != text,
		Checksum: checksum.String(updated),
	}
	if !res.Changed {
		s.logger.Debug("sync: unchanged", slog.String("path", target))
		return res, nil
	}

	if dryRun {
		diff, err := s.diff(target, text, updated)
		if err != nil {
			return models.TargetResult{}, fmt.Errorf("diff %s: %w", target, err)
		}
		res.Diff = diff
		s.logger.Debug("sync: drift", slog.String("path", target))
		return res, nil
	}

	if err := s.store.Write(target, []byte(updated)); err != nil {
		return models.TargetResult{}, err
	}
	s.logger.Debug("sync: updated", slog.String("path", target))
	fmt.Fprintf(s.out, "Updated %s\n", target)
	return res, nil
}

func unifiedDiff(path, before, after string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
}
