// Package model defines the records flowing through the reconciliation
// pipeline and the error taxonomy shared by its stages.
package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// CountryUnknown is the sentinel stored when no country could be determined
// for an entity. It is an explicit value, never an empty string, so the
// resolver stages and the presentation layer can query for it directly.
const CountryUnknown = "None"

// EntityCountRecord is one row of a raw aggregate export: an entity name
// (assignee or inventor) and its patent count. Immutable once loaded.
type EntityCountRecord struct {
	Entity string
	Count  int
}

// EntityCountryRecord is one row of a raw entity→country lookup source.
// Sources may list the same entity more than once; precedence is resolved
// by the merge stage, not here.
type EntityCountryRecord struct {
	Entity  string
	Country string
}

// ReconciledRecord is the merged row: exactly one per distinct entity in the
// counts source. Country is CountryUnknown until a resolution phase fills it.
// Count never changes after the merge.
type ReconciledRecord struct {
	Entity  string
	Country string
	Count   int
}

// Unresolved reports whether the record still carries the unknown sentinel.
func (r ReconciledRecord) Unresolved() bool {
	return r.Country == CountryUnknown
}

// CorrectionCandidate is an unresolved record submitted to the oracle.
type CorrectionCandidate struct {
	Entity string
	Count  int
}

// CorrectionResult is a single oracle answer. Country is either a valid
// ISO-3166 alpha-2 code or CountryUnknown, never anything else after
// validation.
type CorrectionResult struct {
	Entity  string
	Country string
}

// NormalizeCountry trims and uppercases a country value. Blank values and
// the sentinel (any case) map to CountryUnknown.
func NormalizeCountry(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, CountryUnknown) {
		return CountryUnknown
	}
	return strings.ToUpper(s)
}

// Key returns the canonical join key for an entity name: trimmed and
// Unicode case-folded. All cross-source matching goes through this.
func Key(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// ValidCountryCode reports whether s is a 2-letter alphabetic code.
func ValidCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
