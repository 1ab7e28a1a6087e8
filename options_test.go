package hwprove

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadOptions(t *testing.T) {
	opts, err := LoadOptions(filepath.Join("testdata", "options.yaml"))
	require.NoError(t, err)
	require.Equal(t, BACKEND_GINI, opts.Backend)
	require.Equal(t, 250*time.Millisecond, opts.DefaultTimeout)
	require.False(t, opts.ValidateWitness)
	require.Zero(t, opts.SolverTimeout)
}

func TestLoadOptionsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solver_timeout: 2s\n"), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	def := DefaultOptions()
	require.Equal(t, def.Backend, opts.Backend)
	require.Equal(t, def.DefaultTimeout, opts.DefaultTimeout)
	require.Equal(t, 2*time.Second, opts.SolverTimeout)
}

func TestLoadOptionsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadOptions(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("backend: cvc5\n"), 0o644))
	_, err = LoadOptions(bad)
	require.ErrorIs(t, err, ErrUnknownBackend)

	malformed := filepath.Join(dir, "malformed.yaml")
	require.NoError(t, os.WriteFile(malformed, []byte("default_timeout: [1\n"), 0o644))
	_, err = LoadOptions(malformed)
	require.Error(t, err)
}
