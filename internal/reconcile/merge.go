// Package reconcile implements the entity-country reconciliation pipeline:
// merge raw counts with a country lookup, resolve the remainder via a local
// cross-reference and an external oracle, and persist the corrected table.
package reconcile

import (
	"github.com/ip-landscape/recon-cli/internal/model"
)

// Merge left-joins the counts source with the country lookup on entity name.
// The lookup is deduplicated first, keeping the first row per entity in
// source order: lookup sources are known to list the same entity with
// conflicting countries, and first-encountered wins. Output preserves the
// insertion order of the counts source; unresolved entities carry the
// unknown sentinel, never a blank. Counts pass through untouched.
func Merge(counts []model.EntityCountRecord, countries []model.EntityCountryRecord) []model.ReconciledRecord {
	lookup := make(map[string]string, len(countries))
	for _, c := range countries {
		key := model.Key(c.Entity)
		if _, ok := lookup[key]; ok {
			continue
		}
		lookup[key] = model.NormalizeCountry(c.Country)
	}

	out := make([]model.ReconciledRecord, 0, len(counts))
	for _, c := range counts {
		country, ok := lookup[model.Key(c.Entity)]
		if !ok {
			country = model.CountryUnknown
		}
		out = append(out, model.ReconciledRecord{
			Entity:  c.Entity,
			Country: country,
			Count:   c.Count,
		})
	}
	return out
}
