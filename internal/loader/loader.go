// Package loader turns raw export tables into validated record sets keyed by
// entity name. Header matching is case-insensitive and tolerant of the
// Count/Total naming variance between export tools; rows that cannot be
// parsed are dropped and counted rather than failing the load.
package loader

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ip-landscape/recon-cli/internal/fetcher"
	"github.com/ip-landscape/recon-cli/internal/model"
)

// CountTable is the validated counts source: one record per distinct entity.
type CountTable struct {
	Records []model.EntityCountRecord
	Dropped int
}

// CountryTable is the validated entity→country lookup source. Source order
// and duplicates are preserved; precedence is the merge stage's contract.
type CountryTable struct {
	Records []model.EntityCountryRecord
	Dropped int
}

// LoadCounts reads an aggregate export with columns <entityCol> and
// Count (Total accepted as an alias). Rows with a blank entity, a
// missing or non-numeric count, or a duplicate entity name are dropped
// and counted.
func LoadCounts(path, entityCol string, opts fetcher.Options) (*CountTable, error) {
	table, err := fetcher.ReadTable(path, opts)
	if err != nil {
		return nil, err
	}

	entityIdx := findColumn(table.Header, entityCol)
	countIdx := findColumn(table.Header, "Count", "Total")
	if entityIdx < 0 || countIdx < 0 {
		return nil, eris.Wrapf(model.ErrSchema, "loader: %s: required columns %q and Count/Total not found in header %v", path, entityCol, table.Header)
	}

	out := &CountTable{}
	seen := make(map[string]bool, len(table.Rows))
	for _, row := range table.Rows {
		entity := cell(row, entityIdx)
		count, ok := parseCount(cell(row, countIdx))
		if entity == "" || !ok {
			out.Dropped++
			continue
		}
		key := model.Key(entity)
		if seen[key] {
			out.Dropped++
			continue
		}
		seen[key] = true
		out.Records = append(out.Records, model.EntityCountRecord{Entity: entity, Count: count})
	}

	if out.Dropped > 0 {
		zap.L().Warn("loader: dropped count rows",
			zap.String("path", path),
			zap.Int("dropped", out.Dropped),
			zap.Int("kept", len(out.Records)),
		)
	}
	return out, nil
}

// LoadCountries reads a lookup export with columns <entityCol> and Country.
// Countries are uppercased; blank countries become the unknown sentinel.
func LoadCountries(path, entityCol string, opts fetcher.Options) (*CountryTable, error) {
	table, err := fetcher.ReadTable(path, opts)
	if err != nil {
		return nil, err
	}

	entityIdx := findColumn(table.Header, entityCol)
	countryIdx := findColumn(table.Header, "Country")
	if entityIdx < 0 || countryIdx < 0 {
		return nil, eris.Wrapf(model.ErrSchema, "loader: %s: required columns %q and Country not found in header %v", path, entityCol, table.Header)
	}

	out := &CountryTable{}
	for _, row := range table.Rows {
		entity := cell(row, entityIdx)
		if entity == "" {
			out.Dropped++
			continue
		}
		out.Records = append(out.Records, model.EntityCountryRecord{
			Entity:  entity,
			Country: model.NormalizeCountry(cell(row, countryIdx)),
		})
	}

	if out.Dropped > 0 {
		zap.L().Warn("loader: dropped lookup rows",
			zap.String("path", path),
			zap.Int("dropped", out.Dropped),
		)
	}
	return out, nil
}

// findColumn returns the index of the first header cell matching any of the
// given names, case-insensitively, or -1.
func findColumn(header []string, names ...string) int {
	for i, col := range header {
		for _, name := range names {
			if strings.EqualFold(strings.TrimSpace(col), name) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseCount parses a non-negative integer, tolerating thousands separators
// and an integral trailing decimal ("1,234", "1234.0").
func parseCount(s string) (int, bool) {
	s = strings.NewReplacer(",", "", " ", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), f >= 0
}
