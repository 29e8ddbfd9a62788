package lists

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndStore(t *testing.T) {
	d, err := New(t.TempDir())
	require.NoError(t, err)

	name := "example.org_debian_dists_stable_main_binary-amd64_Packages"
	assert.False(t, d.Has(name))

	f, err := d.Create(name)
	require.NoError(t, err)
	_, err = f.WriteString("Package: a\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	dest, err := d.Store(name, f.Name())
	require.NoError(t, err)
	assert.Equal(t, d.Path(name), dest)
	assert.True(t, d.Has(name))

	size, err := d.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(len("Package: a\n")), size)

	require.NoError(t, d.Remove(name))
	require.NoError(t, d.Remove(name))
	assert.False(t, d.Has(name))
}

func TestPrune(t *testing.T) {
	root := t.TempDir()
	d, err := New(root)
	require.NoError(t, err)

	for _, name := range []string{"a_dists_s_InRelease", "a_dists_s_main_binary-amd64_Packages", "old_dists_s_InRelease", "lock"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0644))
	}

	removed, err := d.Prune(map[string]bool{
		"a_dists_s_InRelease":                  true,
		"a_dists_s_main_binary-amd64_Packages": true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"old_dists_s_InRelease"}, removed)
	assert.True(t, d.Has("lock"))
}

func TestClear(t *testing.T) {
	root := t.TempDir()
	d, err := New(root)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "x_Packages"), []byte("data"), 0644))

	require.NoError(t, d.Clear())

	size, err := d.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
	_, err = os.Stat(filepath.Join(root, partialDir))
	assert.NoError(t, err)
}
