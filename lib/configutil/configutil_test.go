package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Host  string `json:"host"`
	Port  int    `json:"port"`
	Token string `json:"token"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments are allowed
		host: "fares.test",
		port: 8000,
	}`), 0666))

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "fares.test", cfg.Host)
	require.Equal(t, 8000, cfg.Port)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json5"),
		[]byte(`{host: "fares.test", port: 8000, token: "default"}`), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"),
		[]byte(`{token: "secret"}`), 0666))

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.Token)
	require.Equal(t, "fares.test", cfg.Host)
	require.Equal(t, 8000, cfg.Port)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"),
		[]byte(`{host: "override-only"}`), 0666))

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "override-only", cfg.Host)
}
