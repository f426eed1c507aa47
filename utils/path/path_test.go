package path

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	assert.Equal(t, filepath.Join("/srv/toolhub", "conf", "app.yaml"), Resolve("/srv/toolhub/conf", "app.yaml"))
	assert.Equal(t, "/etc/toolhub.yaml", Resolve("/srv/toolhub", "/etc/toolhub.yaml"))
	assert.Equal(t, "", Resolve("/srv/toolhub", ""))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.env")
	require.NoError(t, os.WriteFile(file, []byte("APP__NAME=toolhub\n"), 0o600))

	ok, err := Exists(file)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Exists(dir)
	require.NoError(t, err)
	assert.False(t, ok, "directory is not a config file")
}

func TestRootPathContainsGoMod(t *testing.T) {
	ok, err := Exists(filepath.Join(RootPath(), "go.mod"))
	require.NoError(t, err)
	assert.True(t, ok)
}
