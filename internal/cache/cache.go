package cache

import (
	"iter"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"pault.ag/go/debian/version"

	"github.com/teamcutter/aptcache/internal/config"
	"github.com/teamcutter/aptcache/internal/domain"
	"github.com/teamcutter/aptcache/internal/logging"
)

type Options struct {
	Logger logrus.FieldLogger
	// Marks are applied to the depcache snapshot after the cache is built,
	// keyed by package name ("name" or "name:arch").
	Marks map[string]Mark
	// MarkUpgrades marks every upgradable package for upgrade, like a
	// simulated "apt upgrade".
	MarkUpgrades bool
}

// Cache is an immutable in-memory index over the package lists, the dpkg
// status database and extended_states. Package and Version values are
// handles into it.
type Cache struct {
	cfg  *config.Config
	opts Options
	log  logrus.FieldLogger

	native string
	arches []string

	pkgs  []pkgData
	vers  []verData
	files []fileData

	byKey  map[string]int32
	byName map[string][]int32

	// providers maps a provided name to every version declaring it.
	providers map[string][]provideEdge

	targets []domain.IndexTarget

	updating sync.Mutex
}

func (c *Cache) Get(name string) (Package, bool) {
	if n, arch, ok := strings.Cut(name, ":"); ok {
		return c.GetArch(n, arch)
	}

	if id, ok := c.byKey[key(name, c.native)]; ok {
		return Package{c: c, id: id}, true
	}
	for _, a := range c.arches {
		if id, ok := c.byKey[key(name, a)]; ok {
			return Package{c: c, id: id}, true
		}
	}
	return Package{}, false
}

func (c *Cache) GetArch(name, arch string) (Package, bool) {
	switch arch {
	case "all", "native":
		arch = c.native
	case "any":
		return c.Get(name)
	}
	id, ok := c.byKey[key(name, arch)]
	if !ok {
		return Package{}, false
	}
	return Package{c: c, id: id}, true
}

// Packages yields the packages matching sort in index order.
func (c *Cache) Packages(sort PackageSort) iter.Seq[Package] {
	return func(yield func(Package) bool) {
		for i := range c.pkgs {
			p := Package{c: c, id: int32(i)}
			if !sort.matches(p) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

type Provider struct {
	Version Version
	Name    string
}

// Provides yields the versions providing pkg's name. With virtualOnly set,
// nothing is yielded for a package that has versions of its own.
func (c *Cache) Provides(pkg Package, virtualOnly bool) iter.Seq[Provider] {
	return func(yield func(Provider) bool) {
		d := pkg.data()
		if virtualOnly && len(d.versions) > 0 {
			return
		}
		for _, e := range c.providers[d.name] {
			if !c.archMatches(e.ver, d.arch) {
				continue
			}
			if !yield(Provider{Version: Version{c: c, id: e.ver}, Name: d.name}) {
				return
			}
		}
	}
}

// ProvidersOf returns the distinct packages providing pkg's name. With
// candidateOnly set, a package counts only if its candidate provides it.
func (c *Cache) ProvidersOf(pkg Package, candidateOnly bool) []Package {
	var out []Package
	seen := make(map[int32]bool)
	for prov := range c.Provides(pkg, false) {
		owner := prov.Version.Package()
		if seen[owner.id] {
			continue
		}
		if candidateOnly {
			cand, ok := owner.Candidate()
			if !ok || cand.id != prov.Version.id {
				continue
			}
		}
		seen[owner.id] = true
		out = append(out, owner)
	}
	return out
}

// Sources yields every index file the cache was built from, release files
// included.
func (c *Cache) Sources() iter.Seq[domain.IndexTarget] {
	return func(yield func(domain.IndexTarget) bool) {
		for _, t := range c.targets {
			if !yield(t) {
				return
			}
		}
	}
}

func (c *Cache) Len() int {
	return len(c.pkgs)
}

func (c *Cache) NativeArch() string {
	return c.native
}

// Reopen builds a fresh cache from the same configuration, picking up
// lists written by Update.
func (c *Cache) Reopen() (*Cache, error) {
	return Open(c.cfg, c.opts)
}

// CompareVersions orders two Debian version strings. Unparsable input
// falls back to byte order.
func CompareVersions(a, b string) int {
	va, errA := version.Parse(a)
	vb, errB := version.Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return version.Compare(va, vb)
}

func (c *Cache) CompareVersions(a, b string) int {
	return CompareVersions(a, b)
}

func key(name, arch string) string {
	return name + ":" + arch
}

func loggerOr(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logging.Discard()
	}
	return log
}
