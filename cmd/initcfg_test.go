package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ip-landscape/recon-cli/internal/config"
)

func TestInitCmd_WritesStarterConfig(t *testing.T) {
	chdir(t, t.TempDir())
	initForce = false

	require.NoError(t, initCmd.RunE(initCmd, nil))

	data, err := os.ReadFile("config.yaml")
	require.NoError(t, err)

	var decoded config.Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Len(t, decoded.Datasets, 2)
	assert.Equal(t, "Assignee", decoded.Datasets[0].EntityType)
	assert.Equal(t, 20, decoded.Reconcile.BatchSize)
	assert.Empty(t, decoded.Oracle.Key, "the starter config must never embed a credential")
}

func TestInitCmd_RefusesOverwrite(t *testing.T) {
	chdir(t, t.TempDir())
	initForce = false
	require.NoError(t, os.WriteFile("config.yaml", []byte("existing: true\n"), 0o644))

	err := initCmd.RunE(initCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	initForce = true
	t.Cleanup(func() { initForce = false })
	assert.NoError(t, initCmd.RunE(initCmd, nil))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
