package reconcile

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/ip-landscape/recon-cli/internal/model"
)

// Apply merges correction results onto the full record set by entity name,
// in place. Corrections for unknown entities are ignored; corrections never
// overwrite a non-sentinel country. Row count is unchanged by construction.
func Apply(records []model.ReconciledRecord, corrections []model.CorrectionResult) int {
	byKey := make(map[string]int, len(records))
	for i := range records {
		byKey[model.Key(records[i].Entity)] = i
	}

	applied := 0
	for _, c := range corrections {
		country := model.NormalizeCountry(c.Country)
		if country == model.CountryUnknown || !model.ValidCountryCode(country) {
			continue
		}
		if i, ok := byKey[model.Key(c.Entity)]; ok && records[i].Unresolved() {
			records[i].Country = country
			applied++
		}
	}
	return applied
}

// WriteCSV persists the reconciled table to path with the stable column
// order Country,<entityType>,Count. The file is rewritten in full on every
// run via a temp file and rename, so a failed write never leaves a
// half-written output behind.
func WriteCSV(path, entityType string, records []model.ReconciledRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(model.ErrPersistence, "create output dir %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(model.ErrPersistence, "create temp file: %v", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"Country", entityType, "Count"}); err != nil {
		tmp.Close()
		return eris.Wrapf(model.ErrPersistence, "write header: %v", err)
	}
	for _, rec := range records {
		if err := w.Write([]string{rec.Country, rec.Entity, strconv.Itoa(rec.Count)}); err != nil {
			tmp.Close()
			return eris.Wrapf(model.ErrPersistence, "write row for %q: %v", rec.Entity, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return eris.Wrapf(model.ErrPersistence, "flush: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(model.ErrPersistence, "close temp file: %v", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(model.ErrPersistence, "rename to %s: %v", path, err)
	}
	return nil
}
