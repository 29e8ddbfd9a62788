package cache

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcutter/aptcache/internal/config"
	"github.com/teamcutter/aptcache/internal/domain"
)

func TestGet(t *testing.T) {
	c := openTest(t, Options{})

	hello := mustGet(t, c, "hello")
	assert.Equal(t, "hello", hello.Name())
	assert.Equal(t, "amd64", hello.Arch())
	assert.Equal(t, "hello", hello.FullName(true))
	assert.Equal(t, "hello:amd64", hello.FullName(false))

	qualified := mustGet(t, c, "hello:amd64")
	assert.Equal(t, hello.ID(), qualified.ID())

	cowsay := mustGet(t, c, "cowsay")
	assert.Equal(t, "amd64", cowsay.Arch())
	cand, ok := cowsay.Candidate()
	require.True(t, ok)
	assert.Equal(t, "all", cand.Arch())

	_, ok = c.Get("does-not-exist-anywhere")
	assert.False(t, ok)
	_, ok = c.GetArch("hello", "arm64")
	assert.False(t, ok)
}

func TestVersionsAndCandidate(t *testing.T) {
	c := openTest(t, Options{})
	hello := mustGet(t, c, "hello")

	var vers []string
	for v := range hello.Versions() {
		vers = append(vers, v.Version())
	}
	assert.Equal(t, []string{"2.10-3", "2.10-2"}, vers)

	cand, ok := hello.Candidate()
	require.True(t, ok)
	assert.Equal(t, "2.10-3", cand.Version())
	assert.Equal(t, defaultPriority, cand.Priority())
	assert.True(t, cand.IsCandidate())
	assert.False(t, cand.IsInstalled())

	inst, ok := hello.Installed()
	require.True(t, ok)
	assert.Equal(t, "2.10-2", inst.Version())
	assert.True(t, inst.IsInstalled())
	assert.Len(t, inst.PackageFiles(), 2)

	assert.True(t, hello.IsUpgradable(true))
	assert.True(t, hello.IsUpgradable(false))
}

func TestVersionOutlivesPackageHandle(t *testing.T) {
	c := openTest(t, Options{})

	var v Version
	func() {
		p := mustGet(t, c, "libc6")
		v, _ = p.Candidate()
	}()

	assert.Equal(t, "2.36-9", v.Version())
	assert.Equal(t, "libc6", v.Package().Name())
}

func TestVersionFields(t *testing.T) {
	c := openTest(t, Options{})
	cand, _ := mustGet(t, c, "hello").Candidate()

	assert.Equal(t, uint64(56000), cand.Size())
	assert.Equal(t, uint64(280*1024), cand.InstalledSize())
	assert.Equal(t, "devel", cand.Section())
	assert.Equal(t, "optional", cand.PriorityType())
	assert.Equal(t, "hello", cand.SourcePackage())
	assert.Equal(t, "2.10-3", cand.SourceVersion())
	assert.True(t, cand.Downloadable())

	assert.Equal(t, "example package based on GNU hello", cand.Summary())
	assert.Equal(t, "example package based on GNU hello\nThe GNU hello program produces a familiar, friendly greeting.\n\nSecond paragraph.", cand.Description())

	sum, ok := cand.Hash("SHA256")
	assert.True(t, ok)
	assert.Equal(t, "abcd", sum)
	sum, ok = cand.SHA256()
	assert.True(t, ok)
	assert.Equal(t, "abcd", sum)
	md5, ok := cand.Hash("md5sum")
	assert.True(t, ok)
	assert.Equal(t, "1234", md5)
	_, ok = cand.Hash("blake3")
	assert.False(t, ok)
	_, ok = cand.SHA512()
	assert.False(t, ok)

	uris := slices.Collect(cand.URIs())
	assert.Equal(t, []string{testSite + "/pool/main/h/hello/hello_2.10-3_amd64.deb"}, uris)

	files := cand.PackageFiles()
	require.Len(t, files, 1)
	assert.Equal(t, "Debian", files[0].Origin)
	assert.Equal(t, "stable", files[0].Archive)
	assert.Equal(t, "bookworm", files[0].Codename)
	assert.Equal(t, "deb.example.org", files[0].Site)
	assert.Equal(t, "main", files[0].Component)
	assert.Equal(t, indexTypePackages, files[0].IndexType)

	libc, _ := mustGet(t, c, "libc6").Candidate()
	assert.Equal(t, "glibc", libc.SourcePackage())
	assert.Equal(t, "2.36-9", libc.SourceVersion())
}

func TestSummaryNeverEqualsDescription(t *testing.T) {
	c := openTest(t, Options{})
	for p := range c.Packages(PackageSort{}) {
		for v := range p.Versions() {
			if v.Summary() != "" && v.Description() != "" {
				assert.NotEqual(t, v.Summary(), v.Description(), v.String())
			}
		}
	}
}

func TestDuplicatedSynopsisKeepsDescriptionDistinct(t *testing.T) {
	cfg := testConfig(t)
	write(t, filepath.Join(cfg.ListsDir, testListFile), testPackages+`
Package: tiny
Version: 1.0
Architecture: amd64
Filename: pool/main/t/tiny/tiny_1.0_amd64.deb
Description: tiny helper tool
 tiny helper tool
`)
	c, err := Open(cfg, Options{})
	require.NoError(t, err)

	v, ok := mustGet(t, c, "tiny").Candidate()
	require.True(t, ok)
	assert.Equal(t, "tiny helper tool", v.Summary())
	assert.Equal(t, "tiny helper tool\ntiny helper tool", v.Description())
	assert.NotEqual(t, v.Summary(), v.Description())
}

func TestStatusOnlyVersion(t *testing.T) {
	c := openTest(t, Options{})
	oldlib := mustGet(t, c, "oldlib")

	inst, ok := oldlib.Installed()
	require.True(t, ok)
	assert.False(t, inst.Downloadable())
	assert.Empty(t, slices.Collect(inst.URIs()))
	assert.Equal(t, installedPriority, inst.Priority())

	cand, ok := oldlib.Candidate()
	require.True(t, ok)
	assert.Equal(t, inst.ID(), cand.ID())
	assert.False(t, oldlib.IsUpgradable(true))
	assert.Equal(t, "installed", oldlib.CurrentState())
	assert.Equal(t, "install", oldlib.SelectedState())
	assert.Equal(t, "ok", oldlib.InstState())
}

func TestConfigFilesOnlyIsNotInstalled(t *testing.T) {
	c := openTest(t, Options{})
	removed := mustGet(t, c, "removed")

	assert.False(t, removed.HasVersions())
	assert.False(t, removed.IsInstalled())
	assert.Equal(t, "config-files", removed.CurrentState())
	assert.Equal(t, "deinstall", removed.SelectedState())
}

func TestVirtualPackagesNeverInstalled(t *testing.T) {
	c := openTest(t, Options{})
	for p := range c.Packages(PackageSort{}.IncludeVirtual()) {
		if !p.HasVersions() {
			assert.False(t, p.IsInstalled(), p.FullName(false))
		}
	}
}

func TestEssential(t *testing.T) {
	c := openTest(t, Options{})
	assert.True(t, mustGet(t, c, "dpkg").IsEssential())
	assert.False(t, mustGet(t, c, "hello").IsEssential())
}

func TestProvides(t *testing.T) {
	c := openTest(t, Options{})
	awk := mustGet(t, c, "awk")
	assert.False(t, awk.HasVersions())
	assert.True(t, awk.HasProvides())

	var providers []string
	for prov := range c.Provides(awk, true) {
		assert.Equal(t, "awk", prov.Name)
		providers = append(providers, prov.Version.Package().Name())
	}
	assert.ElementsMatch(t, []string{"mawk", "gawk"}, providers)

	hello := mustGet(t, c, "hello")
	assert.Empty(t, slices.Collect(c.Provides(hello, true)))
	assert.False(t, hello.HasProvides())

	pkgs := c.ProvidersOf(awk, true)
	assert.Len(t, pkgs, 2)
}

func TestDependencies(t *testing.T) {
	c := openTest(t, Options{})
	cand, _ := mustGet(t, c, "hello").Candidate()

	deps, ok := cand.Dependencies()
	require.True(t, ok)
	require.Len(t, deps, 5)

	m := cand.DependsMap()
	require.Len(t, m[Depends], 2)
	assert.Equal(t, "libc6 (>= 2.34), dpkg (>= 1.15.4) | install-info", FormatDepends(m[Depends]))

	or := m[Depends][1]
	assert.True(t, or.IsOr())
	assert.Equal(t, "dpkg", or.First().Name)
	assert.Equal(t, ">=", or.First().Op)
	assert.Equal(t, "1.15.4", or.First().Version)
	assert.Equal(t, "install-info", or.BaseDeps[1].Name)
	assert.Empty(t, or.BaseDeps[1].Op)

	rec, ok := cand.Recommends()
	require.True(t, ok)
	assert.Equal(t, "cowsay", rec[0].First().Name)

	sug, ok := cand.Suggests()
	require.True(t, ok)
	assert.Equal(t, "fortune", sug[0].First().Name)

	_, ok = cand.GetDepends("Enhances")
	assert.False(t, ok)
	_, ok = cand.GetDepends("Nonsense")
	assert.False(t, ok)

	conflicts, ok := cand.GetDepends(Conflicts)
	require.True(t, ok)
	assert.Empty(t, slices.Collect(conflicts[0].First().AllTargets()))

	perl, _ := mustGet(t, c, "perl").Candidate()
	_, ok = perl.Dependencies()
	assert.False(t, ok)
}

func TestAllTargets(t *testing.T) {
	c := openTest(t, Options{})
	cand, _ := mustGet(t, c, "hello").Candidate()
	deps, _ := cand.GetDepends(Depends)

	libc := slices.Collect(deps[0].First().AllTargets())
	require.Len(t, libc, 1)
	assert.Equal(t, "libc6", libc[0].Package().Name())

	user, _ := mustGet(t, c, "awk-user").Candidate()
	versioned, _ := user.GetDepends(Depends)
	got := slices.Collect(versioned[0].First().AllTargets())
	require.Len(t, got, 1)
	assert.Equal(t, "gawk", got[0].Package().Name())

	plain, _ := user.Recommends()
	var unversioned []string
	for v := range plain[0].First().AllTargets() {
		unversioned = append(unversioned, v.Package().Name())
	}
	assert.ElementsMatch(t, []string{"mawk", "gawk"}, unversioned)

	target, ok := deps[0].First().TargetPackage()
	require.True(t, ok)
	assert.Equal(t, "libc6", target.Name())
	assert.Equal(t, cand.ID(), deps[0].First().ParentVersion().ID())
}

func TestAnyQualifierNeedsMultiArchAllowed(t *testing.T) {
	cfg := testConfig(t)
	write(t, filepath.Join(cfg.ListsDir, testListFile), testPackages+`
Package: python3
Version: 3.11.2-1
Architecture: amd64
Multi-Arch: allowed
Filename: pool/main/p/python3/python3_3.11.2-1_amd64.deb
Description: interactive high-level object-oriented language
 Default Python version.

Package: script-runner
Version: 1.0
Architecture: amd64
Depends: python3:any, perl:any
Filename: pool/main/s/script-runner/script-runner_1.0_amd64.deb
Description: runs scripts with any interpreter
 Uses :any relations.
`)
	c, err := Open(cfg, Options{})
	require.NoError(t, err)

	runner, ok := mustGet(t, c, "script-runner").Candidate()
	require.True(t, ok)
	deps, ok := runner.GetDepends(Depends)
	require.True(t, ok)
	require.Len(t, deps, 2)

	var python []string
	for v := range deps[0].First().AllTargets() {
		python = append(python, v.Package().Name())
	}
	assert.Equal(t, []string{"python3"}, python)
	assert.Equal(t, "python3:any", deps[0].First().String())

	for range deps[1].First().AllTargets() {
		t.Fatal("perl is not Multi-Arch: allowed and must not satisfy perl:any")
	}
}

func TestSameVersionDifferentBuildsStaySeparate(t *testing.T) {
	cfg := testConfig(t)
	write(t, filepath.Join(cfg.ListsDir, testListFile), testPackages+`
Package: hello
Version: 2.10-3
Architecture: amd64
Installed-Size: 280
Size: 57000
Filename: pool/main/h/hello/hello_2.10-3_amd64.deb
SHA256: ffff
Description: example package based on GNU hello
 A rebuild carrying the same version string.

Package: mawk
Version: 1.3.4-1
Architecture: amd64
Installed-Size: 200
Provides: awk
Filename: pool/main/m/mawk/mawk_1.3.4-1_amd64.deb
Description: Pattern scanning and text processing language
 Mawk is an interpreter.
`)
	c, err := Open(cfg, Options{})
	require.NoError(t, err)

	var hashes []string
	for v := range mustGet(t, c, "hello").Versions() {
		if v.Version() != "2.10-3" {
			continue
		}
		sum, ok := v.SHA256()
		require.True(t, ok)
		hashes = append(hashes, sum)
	}
	assert.Equal(t, []string{"abcd", "ffff"}, hashes)

	var mawks int
	for range mustGet(t, c, "mawk").Versions() {
		mawks++
	}
	assert.Equal(t, 1, mawks)
}

func TestBrokenDependencies(t *testing.T) {
	c := openTest(t, Options{})

	var broken []string
	for b := range c.BrokenDependencies() {
		broken = append(broken, b.Version.Package().Name()+": "+b.Dependency.String())
	}
	assert.Equal(t, []string{"broken: does-not-exist"}, broken)
}

func TestSources(t *testing.T) {
	c := openTest(t, Options{})
	targets := slices.Collect(c.Sources())
	require.Len(t, targets, 2)
	assert.Equal(t, testReleaseFile, targets[0].Filename)
	assert.Equal(t, testListFile, targets[1].Filename)
	assert.Equal(t, testSite+"/dists/stable/main/binary-amd64/Packages", targets[1].URI)
}

func TestOpenMissingListIsNotAnError(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.ListsDir, testListFile)))

	c, err := Open(cfg, Options{})
	require.NoError(t, err)

	hello := mustGet(t, c, "hello")
	cand, ok := hello.Candidate()
	require.True(t, ok)
	assert.Equal(t, "2.10-2", cand.Version())
	_, ok = c.Get("mawk")
	assert.False(t, ok)
}

func TestOpenCorruptListFails(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.ListsDir, testListFile)
	write(t, path, "Package: a\nthis line is not a field\n")

	_, err := Open(cfg, Options{})

	var me *domain.MetadataError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, path, me.Path)
}

func TestOpenCorruptStatusFails(t *testing.T) {
	cfg := testConfig(t)
	write(t, cfg.StatusFile, "Package: a\nStatus: installed\nVersion: 1\n")

	_, err := Open(cfg, Options{})

	var me *domain.MetadataError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, cfg.StatusFile, me.Path)
}

func TestOpenMissingStatus(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(cfg.StatusFile))

	c, err := Open(cfg, Options{})
	require.NoError(t, err)
	assert.Empty(t, names(c.Packages(PackageSort{}.Installed())))
}

func TestPinLowersCandidate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pins = []config.Pin{{Archive: "stable", Priority: 50}}

	c, err := Open(cfg, Options{})
	require.NoError(t, err)

	hello := mustGet(t, c, "hello")
	cand, _ := hello.Candidate()
	assert.Equal(t, "2.10-2", cand.Version())
	assert.Equal(t, installedPriority, cand.Priority())
	assert.False(t, hello.IsUpgradable(false))

	cowsay, _ := mustGet(t, c, "cowsay").Candidate()
	assert.Equal(t, 50, cowsay.Priority())
}

func TestPinAllowsDowngrade(t *testing.T) {
	cfg := testConfig(t)
	write(t, cfg.StatusFile, `Package: hello
Status: install ok installed
Architecture: amd64
Version: 3.0-1
Description: locally built hello
 Newer than the archive.
`)
	c, err := Open(cfg, Options{})
	require.NoError(t, err)
	cand, _ := mustGet(t, c, "hello").Candidate()
	assert.Equal(t, "3.0-1", cand.Version())

	cfg.Pins = []config.Pin{{Origin: "Debian", Priority: 1001}}
	c, err = Open(cfg, Options{})
	require.NoError(t, err)
	cand, _ = mustGet(t, c, "hello").Candidate()
	assert.Equal(t, "2.10-3", cand.Version())
}

func TestNotAutomaticRelease(t *testing.T) {
	cfg := testConfig(t)
	write(t, filepath.Join(cfg.ListsDir, testReleaseFile), testRelease+"NotAutomatic: yes\n")

	c, err := Open(cfg, Options{})
	require.NoError(t, err)
	cand, _ := mustGet(t, c, "hello").Candidate()
	assert.Equal(t, "2.10-2", cand.Version())
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, 0, CompareVersions("1.0", "1.0"))
	assert.Negative(t, CompareVersions("1.0~rc1", "1.0"))
	assert.Positive(t, CompareVersions("1:0.9", "2.0"))
	assert.Negative(t, CompareVersions("2.10-2", "2.10-3"))
}

func TestReopen(t *testing.T) {
	c := openTest(t, Options{})
	again, err := c.Reopen()
	require.NoError(t, err)
	assert.Equal(t, c.Len(), again.Len())
	assert.NotSame(t, c, again)
}

func TestParseRelation(t *testing.T) {
	groups := parseRelation("libc6 (>= 2.34), foo:any | bar (<< 2) [amd64] <!nocheck>, baz (> 1)")
	require.Len(t, groups, 3)

	assert.Equal(t, depTarget{name: "libc6", op: ">=", version: "2.34"}, groups[0][0])
	assert.Equal(t, depTarget{name: "foo", arch: "any", qual: "any"}, groups[1][0])
	assert.Equal(t, depTarget{name: "bar", op: "<<", version: "2"}, groups[1][1])
	assert.Equal(t, depTarget{name: "baz", op: ">=", version: "1"}, groups[2][0])

	assert.Nil(t, parseRelation("  "))
}
