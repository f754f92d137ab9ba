package home

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveConfigPathExplicitAbsolute(t *testing.T) {
	d, err := New(t.TempDir())
	require.NoError(t, err)

	abs := filepath.Join(t.TempDir(), "custom.toml")
	require.Equal(t, abs, d.ResolveConfigPath(abs))
}

func TestResolveConfigPathExplicitRelativeUsesCwd(t *testing.T) {
	d, err := New(t.TempDir())
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cwd, "rel.toml"), d.ResolveConfigPath("rel.toml"))
}

func TestResolveConfigPathProbesCandidates(t *testing.T) {
	base := t.TempDir()
	d, err := New(base)
	require.NoError(t, err)

	// No candidate present: default location.
	require.Equal(t, filepath.Join(base, ConfigFileName), d.ResolveConfigPath(""))

	// config/config.toml wins when the root file is absent.
	require.NoError(t, os.MkdirAll(filepath.Join(base, ConfigDirName), 0o755))
	nested := filepath.Join(base, ConfigDirName, ConfigFileName)
	require.NoError(t, os.WriteFile(nested, []byte(""), 0o644))
	require.Equal(t, nested, d.ResolveConfigPath(""))

	// The root file takes priority once it exists.
	root := filepath.Join(base, ConfigFileName)
	require.NoError(t, os.WriteFile(root, []byte(""), 0o644))
	require.Equal(t, root, d.ResolveConfigPath(""))
}
