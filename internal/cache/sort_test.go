package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortDefaultExcludesVirtual(t *testing.T) {
	c := openTest(t, Options{})

	count := 0
	for p := range c.Packages(PackageSort{}) {
		assert.True(t, p.HasVersions(), p.FullName(false))
		count++
	}
	assert.Greater(t, count, 0)
}

func TestSortVirtualModes(t *testing.T) {
	c := openTest(t, Options{})

	var real, virtual int
	for p := range c.Packages(PackageSort{}.IncludeVirtual()) {
		if p.HasVersions() {
			real++
		} else {
			virtual++
		}
	}
	assert.Greater(t, real, 0)
	assert.Greater(t, virtual, 0)

	only := names(c.Packages(PackageSort{}.OnlyVirtual()))
	require.NotEmpty(t, only)
	for _, n := range only {
		p := mustGet(t, c, n)
		assert.False(t, p.HasVersions(), n)
	}
	assert.Contains(t, only, "awk")
	assert.Contains(t, only, "install-info")
}

func TestSortUpgradableConsistency(t *testing.T) {
	c := openTest(t, Options{})

	up := names(c.Packages(PackageSort{}.Upgradable()))
	assert.Equal(t, []string{"hello"}, up)
	for p := range c.Packages(PackageSort{}.Upgradable()) {
		assert.True(t, p.IsUpgradable(false))
	}
	for p := range c.Packages(PackageSort{}.NotUpgradable()) {
		assert.False(t, p.IsUpgradable(false))
	}
}

func TestSortInstalledAndAuto(t *testing.T) {
	c := openTest(t, Options{})

	assert.ElementsMatch(t, []string{"hello", "libc6", "dpkg", "perl", "oldlib"},
		names(c.Packages(PackageSort{}.Installed())))
	assert.NotContains(t, names(c.Packages(PackageSort{}.NotInstalled())), "hello")

	assert.ElementsMatch(t, []string{"libc6", "perl", "oldlib"},
		names(c.Packages(PackageSort{}.AutoInstalled())))
	assert.NotContains(t, names(c.Packages(PackageSort{}.ManuallyInstalled())), "libc6")

	assert.ElementsMatch(t, []string{"perl", "oldlib"},
		names(c.Packages(PackageSort{}.AutoRemovable())))
	assert.NotContains(t, names(c.Packages(PackageSort{}.NotAutoRemovable())), "perl")
}

func TestSortLastWriteWins(t *testing.T) {
	c := openTest(t, Options{})

	s := PackageSort{}.Upgradable().NotUpgradable()
	assert.NotContains(t, names(c.Packages(s)), "hello")

	s = PackageSort{}.OnlyVirtual().IncludeVirtual().Installed()
	assert.Contains(t, names(c.Packages(s)), "hello")
}

func TestSortIsRestartableAndLazy(t *testing.T) {
	c := openTest(t, Options{})
	seq := c.Packages(PackageSort{}.Installed())

	first := names(seq)
	second := names(seq)
	assert.Equal(t, first, second)

	seen := 0
	for range seq {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}
