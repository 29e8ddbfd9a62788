package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepcacheDefaults(t *testing.T) {
	c := openTest(t, Options{})

	for p := range c.Packages(PackageSort{}.IncludeVirtual()) {
		assert.True(t, p.MarkedKeep(), p.FullName(false))
		assert.False(t, p.MarkedInstall())
		assert.False(t, p.MarkedDelete())
		assert.False(t, p.IsNowBroken(), p.FullName(false))
		assert.False(t, p.IsInstBroken(), p.FullName(false))
	}
	assert.Equal(t, Require(0), c.DiskSize())
	assert.Empty(t, c.Changes())
}

func TestDepcacheMarkUpgrades(t *testing.T) {
	c := openTest(t, Options{MarkUpgrades: true})

	hello := mustGet(t, c, "hello")
	assert.True(t, hello.MarkedInstall())
	assert.True(t, hello.MarkedUpgrade())
	assert.False(t, hello.MarkedDowngrade())
	assert.False(t, hello.MarkedNewInstall())
	assert.False(t, hello.MarkedKeep())

	assert.Equal(t, Require(10*1024), c.DiskSize())
	require.Len(t, c.Changes(), 1)
}

func TestDepcacheInstallAndDelete(t *testing.T) {
	c := openTest(t, Options{Marks: map[string]Mark{
		"cowsay": MarkInstall,
		"oldlib": MarkDelete,
	}})

	cowsay := mustGet(t, c, "cowsay")
	assert.True(t, cowsay.MarkedInstall())
	assert.True(t, cowsay.MarkedNewInstall())
	assert.False(t, cowsay.IsInstBroken())

	oldlib := mustGet(t, c, "oldlib")
	assert.True(t, oldlib.MarkedDelete())
	assert.False(t, oldlib.IsAutoRemovable())

	assert.False(t, mustGet(t, c, "perl").IsAutoRemovable())

	space := c.DiskSize()
	assert.Equal(t, Require((90-10)*1024), space)
}

func TestDepcacheDeleteFreesSpace(t *testing.T) {
	c := openTest(t, Options{Marks: map[string]Mark{"perl": MarkDelete}})

	space := c.DiskSize()
	free, ok := space.(Free)
	require.True(t, ok)
	assert.Equal(t, uint64(700*1024), free.Bytes())
}

func TestDepcacheInstBroken(t *testing.T) {
	c := openTest(t, Options{Marks: map[string]Mark{"libc6": MarkDelete}})

	hello := mustGet(t, c, "hello")
	assert.True(t, hello.IsInstBroken())
	assert.False(t, hello.IsNowBroken())
}

func TestDepcacheReinstall(t *testing.T) {
	c := openTest(t, Options{Marks: map[string]Mark{
		"libc6":  MarkReinstall,
		"oldlib": MarkReinstall,
	}})

	assert.True(t, mustGet(t, c, "libc6").MarkedReinstall())
	assert.False(t, mustGet(t, c, "oldlib").MarkedReinstall())
	assert.Equal(t, Require(0), c.DiskSize())
}

func TestDepcacheHeldIsNotUpgradable(t *testing.T) {
	cfg := testConfig(t)
	write(t, cfg.StatusFile, `Package: hello
Status: hold ok installed
Architecture: amd64
Version: 2.10-2
Description: example package based on GNU hello
 Older build.
`)
	c, err := Open(cfg, Options{MarkUpgrades: true})
	require.NoError(t, err)

	hello := mustGet(t, c, "hello")
	assert.True(t, hello.IsHeld())
	assert.True(t, hello.IsUpgradable(true))
	assert.False(t, hello.IsUpgradable(false))
	assert.False(t, hello.MarkedInstall())
}

func TestParseMark(t *testing.T) {
	m, err := ParseMark("remove")
	require.NoError(t, err)
	assert.Equal(t, MarkDelete, m)

	_, err = ParseMark("explode")
	assert.Error(t, err)
}
