package reconcile

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ip-landscape/recon-cli/internal/model"
)

// DefaultBatchSize caps how many unresolved entities are submitted to the
// oracle per run. Only the highest-impact entities (by count) are consulted.
const DefaultBatchSize = 20

// Oracle answers country lookups for unresolved entities. Implementations
// perform the network I/O; validation of the reply is the resolver's job.
type Oracle interface {
	Resolve(ctx context.Context, entityType string, batch []model.CorrectionCandidate) ([]model.CorrectionResult, error)
}

// Cache remembers accepted corrections across runs so re-runs never consult
// the oracle for an entity it has already answered.
type Cache interface {
	Get(ctx context.Context, entityName string) (string, bool, error)
	Put(ctx context.Context, entityName, country, source string) error
}

// Resolver runs the remote resolution phase: cache first, then one bounded
// oracle batch for the highest-count unresolved entities.
type Resolver struct {
	oracle    Oracle
	cache     Cache // may be nil
	batchSize int
}

// NewResolver builds a Resolver. A batchSize <= 0 uses DefaultBatchSize.
// cache may be nil to disable remembered corrections.
func NewResolver(oracle Oracle, cache Cache, batchSize int) *Resolver {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Resolver{oracle: oracle, cache: cache, batchSize: batchSize}
}

// RemoteStats reports what the remote phase resolved and whether the oracle
// batch failed. An oracle failure is not fatal: the records keep whatever
// the earlier phases resolved.
type RemoteStats struct {
	FromCache  int
	FromOracle int
	Failures   int
	LastErr    error
}

// ResolveRemote fills countries for unresolved records, in place. Records
// with a known country are never touched, even if the oracle returns a
// different value for them.
func (r *Resolver) ResolveRemote(ctx context.Context, entityType string, records []model.ReconciledRecord) RemoteStats {
	var stats RemoteStats

	candidates := r.selectCandidates(records)
	if len(candidates) == 0 {
		return stats
	}

	byKey := make(map[string]int, len(records))
	for i := range records {
		byKey[model.Key(records[i].Entity)] = i
	}

	// Remembered corrections first.
	remaining := candidates[:0:0]
	for _, c := range candidates {
		country, ok := r.cacheGet(ctx, c.Entity)
		if ok {
			r.apply(records, byKey, c.Entity, country)
			stats.FromCache++
			continue
		}
		remaining = append(remaining, c)
	}

	if len(remaining) == 0 || r.oracle == nil {
		return stats
	}

	results, err := r.oracle.Resolve(ctx, entityType, remaining)
	if err != nil {
		stats.Failures++
		stats.LastErr = err
		zap.L().Warn("resolver: oracle batch failed",
			zap.Int("batch_size", len(remaining)),
			zap.Error(err),
		)
		return stats
	}

	accepted, err := validateBatch(remaining, results)
	if err != nil {
		stats.Failures++
		stats.LastErr = err
		zap.L().Warn("resolver: oracle batch discarded",
			zap.Int("batch_size", len(remaining)),
			zap.Error(err),
		)
		return stats
	}

	for _, res := range accepted {
		if r.apply(records, byKey, res.Entity, res.Country) {
			stats.FromOracle++
			r.cachePut(ctx, res.Entity, res.Country, "oracle")
		}
	}
	return stats
}

// Remember records a resolution accepted outside the oracle path (e.g. from
// the cross-reference) so later runs answer from the cache even if the source
// that produced it changes or disappears. Invalid codes are never cached.
func (r *Resolver) Remember(ctx context.Context, entity, country, source string) {
	if !model.ValidCountryCode(country) {
		return
	}
	r.cachePut(ctx, entity, country, source)
}

// selectCandidates picks unresolved records ranked by count descending
// (stable on ties) and caps the batch.
func (r *Resolver) selectCandidates(records []model.ReconciledRecord) []model.CorrectionCandidate {
	var candidates []model.CorrectionCandidate
	for _, rec := range records {
		if rec.Unresolved() {
			candidates = append(candidates, model.CorrectionCandidate{Entity: rec.Entity, Count: rec.Count})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Count > candidates[j].Count
	})
	if len(candidates) > r.batchSize {
		candidates = candidates[:r.batchSize]
	}
	return candidates
}

// validateBatch enforces the oracle contract: the returned entity set must
// equal the submitted set exactly (no omissions, additions, or duplicates),
// and every returned country must be the sentinel or a 2-letter code. Rows
// left at the sentinel and rows with an invalid code are filtered out; a set
// violation discards the whole batch.
func validateBatch(submitted []model.CorrectionCandidate, results []model.CorrectionResult) ([]model.CorrectionResult, error) {
	if len(results) != len(submitted) {
		return nil, eris.Wrapf(model.ErrOracleValidation, "row count mismatch: sent %d, got %d", len(submitted), len(results))
	}

	want := make(map[string]bool, len(submitted))
	for _, c := range submitted {
		want[model.Key(c.Entity)] = true
	}

	seen := make(map[string]bool, len(results))
	var accepted []model.CorrectionResult
	for _, res := range results {
		key := model.Key(res.Entity)
		if !want[key] {
			return nil, eris.Wrapf(model.ErrOracleValidation, "unexpected entity %q in response", res.Entity)
		}
		if seen[key] {
			return nil, eris.Wrapf(model.ErrOracleValidation, "duplicate entity %q in response", res.Entity)
		}
		seen[key] = true

		country := model.NormalizeCountry(res.Country)
		if country == model.CountryUnknown {
			continue // oracle was not certain; leave the row alone
		}
		if !model.ValidCountryCode(country) {
			zap.L().Warn("resolver: rejected invalid country code",
				zap.String("entity", res.Entity),
				zap.String("country", res.Country),
			)
			continue
		}
		accepted = append(accepted, model.CorrectionResult{Entity: res.Entity, Country: country})
	}

	return accepted, nil
}

// apply sets a country on the matching record iff it is still unresolved.
func (r *Resolver) apply(records []model.ReconciledRecord, byKey map[string]int, entity, country string) bool {
	i, ok := byKey[model.Key(entity)]
	if !ok || !records[i].Unresolved() {
		return false
	}
	records[i].Country = country
	return true
}

func (r *Resolver) cacheGet(ctx context.Context, entity string) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	country, ok, err := r.cache.Get(ctx, entity)
	if err != nil {
		zap.L().Warn("resolver: cache read failed", zap.String("entity", entity), zap.Error(err))
		return "", false
	}
	if !ok || !model.ValidCountryCode(country) {
		return "", false
	}
	return country, true
}

func (r *Resolver) cachePut(ctx context.Context, entity, country, source string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Put(ctx, entity, country, source); err != nil {
		zap.L().Warn("resolver: cache write failed", zap.String("entity", entity), zap.Error(err))
	}
}
