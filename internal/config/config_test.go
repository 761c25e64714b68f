package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, 3, cfg.GramLength)
	require.Empty(t, cfg.Ignore)
	require.False(t, cfg.Visibility.RespectAll)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yml := `
workers: 8
gram_length: 4
ignore:
  - "vendored/**"
visibility:
  respect_all: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apictx.yml"), []byte(yml), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, 4, cfg.GramLength)
	require.Equal(t, []string{"vendored/**"}, cfg.Ignore)
	require.True(t, cfg.Visibility.RespectAll)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APICTX_WORKERS", "2")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Workers)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Workers = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.GramLength = 1
	require.Error(t, cfg.Validate())

	require.NoError(t, Default().Validate())
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apictx.yml"), []byte("workers: 0\n"), 0644))
	_, err := Load(dir)
	require.Error(t, err)
}
