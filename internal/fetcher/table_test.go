package fetcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/ip-landscape/recon-cli/internal/model"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTable_CSV(t *testing.T) {
	path := writeTempCSV(t, "Assignee,Count\n Acme Corp ,100\n\"Globex\",50\n")

	table, err := ReadTable(path, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Assignee", "Count"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Acme Corp", "100"}, table.Rows[0])
	assert.Equal(t, []string{"Globex", "50"}, table.Rows[1])
}

func TestReadTable_CSVStrayQuotes(t *testing.T) {
	path := writeTempCSV(t, "Assignee,Count\n'Acme Corp',100\n")

	table, err := ReadTable(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", table.Rows[0][0])
}

func TestReadTable_CSVDelimiter(t *testing.T) {
	path := writeTempCSV(t, "Assignee;Count\nAcme;3\n")

	table, err := ReadTable(path, Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, []string{"Assignee", "Count"}, table.Header)
	assert.Equal(t, []string{"Acme", "3"}, table.Rows[0])
}

func TestReadTable_CSVCharset(t *testing.T) {
	// "Müller" in ISO 8859-1: 0xFC for ü.
	raw := []byte("Inventor,Count\nM\xfcller,7\n")
	path := filepath.Join(t.TempDir(), "latin1.csv")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	table, err := ReadTable(path, Options{Charset: "iso-8859-1"})
	require.NoError(t, err)
	assert.Equal(t, "Müller", table.Rows[0][0])
}

func TestReadTable_MissingFile(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSourceNotFound))
}

func TestReadTable_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)

	header := sheet.AddRow()
	header.AddCell().Value = "Current Assignee"
	header.AddCell().Value = "Current Owner"
	row := sheet.AddRow()
	row.AddCell().Value = "Acme Corp ( FI )"
	row.AddCell().Value = "Acme Holdings (FI)"

	path := filepath.Join(t.TempDir(), "xref.xlsx")
	require.NoError(t, f.Save(path))

	table, err := ReadTable(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Current Assignee", "Current Owner"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Acme Corp ( FI )", table.Rows[0][0])
}

func TestReadTable_XLSXMissingSheet(t *testing.T) {
	f := xlsx.NewFile()
	_, err := f.AddSheet("Data")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "one.xlsx")
	require.NoError(t, f.Save(path))

	_, err = ReadTable(path, Options{SheetName: "Other"})
	assert.Error(t, err)
}
