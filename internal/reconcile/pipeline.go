package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ip-landscape/recon-cli/internal/fetcher"
	"github.com/ip-landscape/recon-cli/internal/loader"
	"github.com/ip-landscape/recon-cli/internal/model"
)

// DatasetSpec names the sources and output for one reconciliation run.
type DatasetSpec struct {
	Name        string   // dataset label, e.g. "assignee"
	EntityType  string   // entity column name in the sources and output, e.g. "Assignee"
	CountsPath  string   // raw aggregate counts (CSV/XLSX)
	CountryPath string   // raw entity→country lookup (CSV/XLSX)
	XrefPath    string   // optional secondary free-text source for Phase A
	XrefColumns []string // free-text columns scanned for entity mentions
	OutputPath  string   // persisted corrected table (CSV)
}

// Pipeline runs load → merge → local resolve → oracle resolve → persist for
// one dataset at a time. A nil resolver skips the oracle phase entirely.
type Pipeline struct {
	resolver *Resolver
	opts     fetcher.Options
}

// NewPipeline builds a Pipeline. resolver may be nil for offline runs.
func NewPipeline(resolver *Resolver, opts fetcher.Options) *Pipeline {
	return &Pipeline{resolver: resolver, opts: opts}
}

// Run reconciles one dataset. Fatal conditions (missing source, bad schema,
// unwritable output) return an error and no report; oracle failures are
// recorded on the report and the Phase-A results are still persisted.
func (p *Pipeline) Run(ctx context.Context, spec DatasetSpec) (*model.RunReport, error) {
	log := zap.L().With(zap.String("dataset", spec.Name))
	report := &model.RunReport{
		RunID:      uuid.New().String(),
		Dataset:    spec.Name,
		EntityType: spec.EntityType,
		OutputPath: spec.OutputPath,
		StartedAt:  time.Now().UTC(),
	}

	counts, err := loader.LoadCounts(spec.CountsPath, spec.EntityType, p.opts)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: load counts for %s", spec.Name)
	}
	countries, err := loader.LoadCountries(spec.CountryPath, spec.EntityType, p.opts)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: load countries for %s", spec.Name)
	}
	report.TotalRows = len(counts.Records)
	report.DroppedCounts = counts.Dropped
	report.DroppedLookups = countries.Dropped

	records := Merge(counts.Records, countries.Records)
	for _, r := range records {
		if !r.Unresolved() {
			report.MatchedOnMerge++
		}
	}
	log.Info("reconcile: merged",
		zap.Int("rows", len(records)),
		zap.Int("matched", report.MatchedOnMerge),
	)

	if spec.XrefPath != "" {
		xref, err := LoadCrossReference(spec.XrefPath, spec.XrefColumns, p.opts)
		if err != nil {
			return nil, eris.Wrapf(err, "reconcile: load cross-reference for %s", spec.Name)
		}
		var pending []int
		for i := range records {
			if records[i].Unresolved() {
				pending = append(pending, i)
			}
		}
		report.ResolvedXref = ResolveLocal(records, xref)
		if p.resolver != nil {
			// Remember cross-reference hits so a later run still resolves
			// them when the workbook is gone or has changed.
			for _, i := range pending {
				if !records[i].Unresolved() {
					p.resolver.Remember(ctx, records[i].Entity, records[i].Country, "xref")
				}
			}
		}
		log.Info("reconcile: local cross-reference done",
			zap.Int("resolved", report.ResolvedXref),
		)
	}

	if p.resolver != nil {
		stats := p.resolver.ResolveRemote(ctx, spec.EntityType, records)
		report.ResolvedCache = stats.FromCache
		report.ResolvedOracle = stats.FromOracle
		report.OracleFailures = stats.Failures
		if stats.LastErr != nil {
			report.OracleLastError = stats.LastErr.Error()
		}
	}

	for _, r := range records {
		if r.Unresolved() {
			report.Unresolved++
		}
	}

	if err := WriteCSV(spec.OutputPath, spec.EntityType, records); err != nil {
		return nil, eris.Wrapf(err, "reconcile: persist %s", spec.Name)
	}

	report.Duration = time.Since(report.StartedAt)
	log.Info("reconcile: complete",
		zap.Int("rows", report.TotalRows),
		zap.Int("unresolved", report.Unresolved),
		zap.Int("oracle_failures", report.OracleFailures),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}
