package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ip-landscape/recon-cli/internal/config"
	"github.com/ip-landscape/recon-cli/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		Data: config.DataConfig{RawDir: "/data/raw", ProcessedDir: "/data/processed"},
		Datasets: []config.DatasetConfig{
			{Name: "assignee", EntityType: "Assignee", CountsFile: "Assignee_Count.csv", CountryFile: "Assignee_Country.csv"},
			{Name: "inventor", EntityType: "Inventor", CountsFile: "Inventor_Count.csv", CountryFile: "Inventor_Country.csv"},
		},
	}
}

func TestSelectDatasets(t *testing.T) {
	cfg = testConfig()

	all, err := selectDatasets("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := selectDatasets("inventor")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "inventor", one[0].Name)

	_, err = selectDatasets("nope")
	assert.Error(t, err)

	cfg = &config.Config{}
	_, err = selectDatasets("")
	assert.Error(t, err)
}

func TestDatasetSpec_Defaults(t *testing.T) {
	cfg = testConfig()

	spec := datasetSpec(cfg.Datasets[0])

	assert.Equal(t, filepath.Join("/data/raw", "Assignee_Count.csv"), spec.CountsPath)
	assert.Equal(t, filepath.Join("/data/raw", "Assignee_Country.csv"), spec.CountryPath)
	assert.Empty(t, spec.XrefPath, "unset xref file must stay empty, not resolve to the raw dir")
	assert.Equal(t, []string{"Current Assignee", "Current Owner"}, spec.XrefColumns)
	assert.Equal(t, filepath.Join("/data/processed", "Assignee_Country_Count.csv"), spec.OutputPath)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/abs/file.csv", resolvePath("/data/raw", "/abs/file.csv"))
	assert.Equal(t, filepath.Join("/data/raw", "file.csv"), resolvePath("/data/raw", "file.csv"))
	assert.Empty(t, resolvePath("/data/raw", ""))
}

func TestWriteReportsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.json")
	reports := []*model.RunReport{{RunID: "r-1", Dataset: "assignee", TotalRows: 2, Unresolved: 1}}

	require.NoError(t, writeReportsJSON(path, reports))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []model.RunReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "assignee", decoded[0].Dataset)
}
