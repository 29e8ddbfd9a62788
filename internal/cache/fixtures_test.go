package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamcutter/aptcache/internal/config"
)

const testPackages = `Package: hello
Version: 2.10-3
Architecture: amd64
Installed-Size: 280
Depends: libc6 (>= 2.34), dpkg (>= 1.15.4) | install-info
Recommends: cowsay
Suggests: fortune
Conflicts: hello-traditional
Size: 56000
Filename: pool/main/h/hello/hello_2.10-3_amd64.deb
SHA256: abcd
MD5sum: 1234
Section: devel
Priority: optional
Description: example package based on GNU hello
 The GNU hello program produces a familiar, friendly greeting.
 .
 Second paragraph.

Package: hello
Version: 2.10-2
Architecture: amd64
Installed-Size: 270
Depends: libc6 (>= 2.34)
Size: 55000
Filename: pool/main/h/hello/hello_2.10-2_amd64.deb
Description: example package based on GNU hello
 Older build.

Package: libc6
Source: glibc
Version: 2.36-9
Architecture: amd64
Multi-Arch: same
Installed-Size: 12000
Priority: required
Filename: pool/main/g/glibc/libc6_2.36-9_amd64.deb
Description: GNU C Library: Shared libraries
 Contains the standard libraries.

Package: dpkg
Version: 1.21.22
Architecture: amd64
Essential: yes
Installed-Size: 6000
Filename: pool/main/d/dpkg/dpkg_1.21.22_amd64.deb
Description: Debian package management system
 This package provides the low-level infrastructure.

Package: cowsay
Version: 3.03+dfsg2-8
Architecture: all
Installed-Size: 90
Depends: perl
Filename: pool/main/c/cowsay/cowsay_3.03+dfsg2-8_all.deb
Description: configurable talking cow
 Cowsay generates ASCII pictures of a cow.

Package: perl
Version: 5.36.0-7
Architecture: amd64
Installed-Size: 700
Filename: pool/main/p/perl/perl_5.36.0-7_amd64.deb
Description: Larry Wall's Practical Extraction and Report Language
 Perl is a highly capable language.

Package: mawk
Version: 1.3.4-1
Architecture: amd64
Installed-Size: 200
Provides: awk
Filename: pool/main/m/mawk/mawk_1.3.4-1_amd64.deb
Description: Pattern scanning and text processing language
 Mawk is an interpreter.

Package: gawk
Version: 5.2.1-2
Architecture: amd64
Installed-Size: 3000
Provides: awk (= 5.2.1)
Filename: pool/main/g/gawk/gawk_5.2.1-2_amd64.deb
Description: GNU awk, a pattern scanning and processing language
 Gawk is the GNU implementation of awk.

Package: awk-user
Version: 1.0
Architecture: amd64
Depends: awk (>= 5.0)
Recommends: awk
Filename: pool/main/a/awk-user/awk-user_1.0_amd64.deb
Description: needs a modern awk
 Exercises versioned provides.

Package: broken
Version: 1.0
Architecture: amd64
Depends: does-not-exist
Filename: pool/main/b/broken/broken_1.0_amd64.deb
Description: depends on nothing real
 Used to check data-quality reporting.
`

const testStatus = `Package: hello
Status: install ok installed
Architecture: amd64
Version: 2.10-2
Installed-Size: 270
Depends: libc6 (>= 2.34)
Description: example package based on GNU hello
 Older build.

Package: libc6
Status: install ok installed
Architecture: amd64
Multi-Arch: same
Version: 2.36-9
Installed-Size: 12000
Description: GNU C Library: Shared libraries
 Contains the standard libraries.

Package: dpkg
Status: install ok installed
Essential: yes
Architecture: amd64
Version: 1.21.22
Installed-Size: 6000
Description: Debian package management system
 This package provides the low-level infrastructure.

Package: perl
Status: install ok installed
Architecture: amd64
Version: 5.36.0-7
Installed-Size: 700
Description: Larry Wall's Practical Extraction and Report Language
 Perl is a highly capable language.

Package: oldlib
Status: install ok installed
Architecture: amd64
Version: 0.9
Installed-Size: 10
Description: a library no longer in the archive
 Only in the status file.

Package: removed
Status: deinstall ok config-files
Architecture: amd64
Version: 1.0
Description: left its configuration behind
 Nothing else.
`

const testExtendedStates = `Package: libc6
Architecture: amd64
Auto-Installed: 1

Package: perl
Architecture: amd64
Auto-Installed: 1

Package: oldlib
Architecture: amd64
Auto-Installed: 1
`

const testRelease = `Origin: Debian
Label: Debian
Suite: stable
Codename: bookworm
Components: main
`

const (
	testSite        = "http://deb.example.org/debian"
	testReleaseFile = "deb.example.org_debian_dists_stable_InRelease"
	testListFile    = "deb.example.org_debian_dists_stable_main_binary-amd64_Packages"
)

// testConfig lays out a sources.list, lists directory, status file and
// extended_states under a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Architecture = "amd64"
	cfg.ListsDir = filepath.Join(root, "lists")
	cfg.StatusFile = filepath.Join(root, "status")
	cfg.ExtendedStates = filepath.Join(root, "extended_states")
	cfg.StateDB = filepath.Join(root, "state.db")
	cfg.SourceLists = []string{filepath.Join(root, "sources.list")}
	cfg.Retries = 0
	cfg.Timeout = 5 * time.Second

	require.NoError(t, os.MkdirAll(cfg.ListsDir, 0755))
	write(t, cfg.SourceLists[0], "deb "+testSite+" stable main\n")
	write(t, filepath.Join(cfg.ListsDir, testReleaseFile), testRelease)
	write(t, filepath.Join(cfg.ListsDir, testListFile), testPackages)
	write(t, cfg.StatusFile, testStatus)
	write(t, cfg.ExtendedStates, testExtendedStates)
	return cfg
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func openTest(t *testing.T, opts Options) *Cache {
	t.Helper()
	c, err := Open(testConfig(t), opts)
	require.NoError(t, err)
	return c
}

func mustGet(t *testing.T, c *Cache, name string) Package {
	t.Helper()
	p, ok := c.Get(name)
	require.True(t, ok, "package %s", name)
	return p
}

func names(seq func(func(Package) bool)) []string {
	var out []string
	for p := range seq {
		out = append(out, p.Name())
	}
	return out
}
