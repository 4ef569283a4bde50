package hostconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/hostconfig"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, hostconfig.Default().Validate())
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("budget: 10000\nmodules: [\"core\", \"collections\"]\n"), 0o644))

	cfg, err := hostconfig.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.Budget)
	assert.Equal(t, []string{"core", "collections"}, cfg.Modules)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "array", cfg.InstructionEncoding)
}

func TestValidateRejectsUnknownEncoding(t *testing.T) {
	cfg := hostconfig.Default()
	cfg.InstructionEncoding = "weird"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeBudget(t *testing.T) {
	cfg := hostconfig.Default()
	cfg.Budget = -1
	require.Error(t, cfg.Validate())
}
