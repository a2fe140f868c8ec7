package reconcile

import (
	"regexp"
	"strings"

	"github.com/ip-landscape/recon-cli/internal/fetcher"
	"github.com/ip-landscape/recon-cli/internal/model"
)

// countryCodeRe matches a parenthesized 2-letter code, e.g. "Acme Corp ( FI )".
var countryCodeRe = regexp.MustCompile(`\(\s*([A-Za-z]{2})\s*\)`)

// ExtractCountryCode pulls a parenthesized 2-letter country code out of a
// free-text entity mention. The code is returned uppercased.
func ExtractCountryCode(text string) (string, bool) {
	m := countryCodeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// CrossReference is an in-memory index of free-text entity mentions (from a
// secondary export, e.g. the "Current Assignee" and "Current Owner" columns
// of a patent workbook) used to resolve countries without network access.
type CrossReference struct {
	mentions []mention
}

type mention struct {
	folded string // case-folded mention text for substring matching
	text   string // original text the code is extracted from
}

// NewCrossReference builds a cross-reference from raw free-text cells.
// Cells holding several mentions separated by semicolons are split first.
func NewCrossReference(cells []string) *CrossReference {
	x := &CrossReference{}
	for _, cell := range cells {
		for _, part := range strings.Split(cell, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			x.mentions = append(x.mentions, mention{
				folded: model.Key(part),
				text:   part,
			})
		}
	}
	return x
}

// LoadCrossReference reads the named columns out of a secondary table and
// builds a CrossReference from their cells. Columns missing from the file
// are skipped; the cross-reference only ever resolves what it can.
func LoadCrossReference(path string, columns []string, opts fetcher.Options) (*CrossReference, error) {
	table, err := fetcher.ReadTable(path, opts)
	if err != nil {
		return nil, err
	}

	var idxs []int
	for _, col := range columns {
		for i, h := range table.Header {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				idxs = append(idxs, i)
				break
			}
		}
	}

	var cells []string
	for _, row := range table.Rows {
		for _, i := range idxs {
			if i < len(row) && row[i] != "" {
				cells = append(cells, row[i])
			}
		}
	}
	return NewCrossReference(cells), nil
}

// Lookup scans mentions for a case-insensitive substring match of the entity
// name and extracts a country code from the first matching mention that
// carries one. Scanning stops at the first hit.
func (x *CrossReference) Lookup(entityName string) (string, bool) {
	needle := model.Key(entityName)
	if needle == "" {
		return "", false
	}
	for _, m := range x.mentions {
		if !strings.Contains(m.folded, needle) {
			continue
		}
		if code, ok := ExtractCountryCode(m.text); ok {
			return code, true
		}
	}
	return "", false
}

// ResolveLocal fills countries for unresolved records from the
// cross-reference, in place. Records with a known country are never touched.
// Returns the number of records resolved.
func ResolveLocal(records []model.ReconciledRecord, xref *CrossReference) int {
	if xref == nil {
		return 0
	}
	resolved := 0
	for i := range records {
		if !records[i].Unresolved() {
			continue
		}
		if code, ok := xref.Lookup(records[i].Entity); ok {
			records[i].Country = code
			resolved++
		}
	}
	return resolved
}
