package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkspace(t *testing.T) string {
	t.Helper()
	t.Setenv("FIELDGEN_MODEL", "")
	t.Setenv("FIELDGEN_BASE_URL", "")
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fieldgen.yaml"), []byte("model: gpt-4o\nmodelsDir: models\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "gpt-4o.json"), []byte(`{
  "id": "gpt-4o",
  "capabilities": {"supportsVision": true},
  "apiParameters": {"tokenParameterName": "max_tokens", "defaultTokenLimit": 2000}
}`), 0o644))
	return dir
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath, modelsDir, verbose = "", "", false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestModelsCommands(t *testing.T) {
	dir := writeWorkspace(t)
	t.Chdir(dir)
	cfg := filepath.Join(dir, "fieldgen.yaml")

	out, err := runRoot(t, "models", "params", "gpt-4o", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "model: gpt-4o\nmax_tokens: 2000\ntemperature: 0.1\n", out)

	out, err = runRoot(t, "models", "list", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "gpt-4o (default)")

	out, err = runRoot(t, "models", "validate", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "1 model descriptors are valid")
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	dir := writeWorkspace(t)
	t.Chdir(dir)
	t.Setenv("FIELDGEN_API_KEY", "")

	_, err := runRoot(t, "generate", "Write a tagline", "--config", filepath.Join(dir, "fieldgen.yaml"))
	assert.ErrorContains(t, err, "no API key configured")
}
