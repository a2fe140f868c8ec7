// Package fetcher reads raw export files (CSV, XLSX) into in-memory tables.
package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/ip-landscape/recon-cli/internal/model"
)

// Table is a fully-read tabular source: one header row plus data rows.
// Cells are trimmed of surrounding whitespace and stray quote pairs.
type Table struct {
	Header []string
	Rows   [][]string
}

// Options configures table reading.
type Options struct {
	Delimiter  rune   // CSV only; default ','
	Charset    string // IANA charset name for CSV sources; "" = UTF-8
	SheetName  string // XLSX only; overrides SheetIndex when set
	SheetIndex int    // XLSX only; default 0
}

// ReadTable reads a CSV or XLSX file depending on its extension. A missing
// or unreadable file yields model.ErrSourceNotFound.
func ReadTable(path string, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path, opts)
	default:
		return readCSV(path, opts)
	}
}

func readCSV(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(model.ErrSourceNotFound, "fetcher: open %s: %v", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: unknown charset %q", opts.Charset)
		}
		r = transform.NewReader(f, enc.NewDecoder())
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read csv %s", path)
	}

	return buildTable(records), nil
}

func buildTable(records [][]string) *Table {
	t := &Table{}
	for i, row := range records {
		for j, cell := range row {
			row[j] = trimCell(cell)
		}
		if i == 0 {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// trimCell strips surrounding whitespace and one matched pair of stray
// quotes left behind by sloppy export tools.
func trimCell(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}
