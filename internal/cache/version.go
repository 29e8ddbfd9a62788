package cache

import (
	"iter"
	"strings"
)

// Version is a handle to one concrete version. It stays usable for as
// long as the Cache it came from.
type Version struct {
	c  *Cache
	id int32
}

// PackageFile describes an index a version was read from.
type PackageFile struct {
	Filename  string
	Origin    string
	Label     string
	Archive   string
	Codename  string
	Version   string
	Site      string
	Component string
	Arch      string
	IndexType string
	Trusted   bool
}

func (v Version) data() *verData {
	return &v.c.vers[v.id]
}

func (v Version) ID() int32 {
	return v.id
}

func (v Version) Package() Package {
	return Package{c: v.c, id: v.data().pkg}
}

func (v Version) Version() string       { return v.data().version }
func (v Version) Arch() string          { return v.data().arch }
func (v Version) MultiArch() string     { return v.data().multiArch }
func (v Version) Section() string       { return v.data().section }
func (v Version) PriorityType() string  { return v.data().priority }
func (v Version) SourcePackage() string { return v.data().source }
func (v Version) SourceVersion() string { return v.data().sourceVersion }
func (v Version) Size() uint64          { return v.data().size }

// InstalledSize is in bytes.
func (v Version) InstalledSize() uint64 { return v.data().installedSize }

// Summary is the one-line synopsis.
func (v Version) Summary() string { return v.data().summary }

// Description is the full description: the synopsis line followed by the
// extended text. It is empty when the record has no extended text.
func (v Version) Description() string { return v.data().description }

// Priority is the pin priority the policy assigned to this version.
func (v Version) Priority() int { return v.data().pin }

func (v Version) IsInstalled() bool {
	return v.c.pkgs[v.data().pkg].installed == v.id
}

func (v Version) IsCandidate() bool {
	return v.c.pkgs[v.data().pkg].candidate == v.id
}

// Downloadable reports whether the version is available from a package
// list rather than only from the status file.
func (v Version) Downloadable() bool {
	for _, f := range v.data().files {
		if v.c.files[f].IndexType == indexTypePackages && v.data().filename != "" {
			return true
		}
	}
	return false
}

func (v Version) PackageFiles() []PackageFile {
	d := v.data()
	out := make([]PackageFile, len(d.files))
	for i, f := range d.files {
		out[i] = v.c.files[f].PackageFile
	}
	return out
}

// URIs yields a download location for every package list carrying the
// version.
func (v Version) URIs() iter.Seq[string] {
	return func(yield func(string) bool) {
		d := v.data()
		if d.filename == "" {
			return
		}
		for _, f := range d.files {
			file := v.c.files[f]
			if file.IndexType != indexTypePackages {
				continue
			}
			if !yield(strings.TrimSuffix(file.base, "/") + "/" + strings.TrimPrefix(d.filename, "/")) {
				return
			}
		}
	}
}

// Hash returns the checksum for algo ("md5sum", "sha1", "sha256" or
// "sha512", case-insensitive).
func (v Version) Hash(algo string) (string, bool) {
	h, ok := v.data().hashes[strings.ToLower(algo)]
	return h, ok
}

func (v Version) SHA256() (string, bool) { return v.Hash("sha256") }
func (v Version) SHA512() (string, bool) { return v.Hash("sha512") }

func (v Version) Provides() []string {
	d := v.data()
	out := make([]string, len(d.provides))
	for i, p := range d.provides {
		out[i] = p.name
	}
	return out
}

func (v Version) groups() []Dependency {
	d := v.data()
	out := make([]Dependency, len(d.deps))
	for i, g := range d.deps {
		dep := Dependency{Kind: g.kind, BaseDeps: make([]BaseDep, len(g.bases))}
		for j, b := range g.bases {
			dep.BaseDeps[j] = BaseDep{
				c:       v.c,
				owner:   v.id,
				Name:    b.name,
				Arch:    b.arch,
				Op:      b.op,
				Version: b.version,
				Kind:    g.kind,
				qual:    b.qual,
			}
		}
		out[i] = dep
	}
	return out
}

// Dependencies returns every relation group in field order, or false when
// the version declares none.
func (v Version) Dependencies() ([]Dependency, bool) {
	deps := v.groups()
	if len(deps) == 0 {
		return nil, false
	}
	return deps, true
}

// GetDepends returns the groups of one relation kind. Unknown kinds and
// kinds without groups return false.
func (v Version) GetDepends(kind string) ([]Dependency, bool) {
	if !isRelation(kind) {
		return nil, false
	}
	var out []Dependency
	for _, g := range v.groups() {
		if g.Kind == kind {
			out = append(out, g)
		}
	}
	return out, len(out) > 0
}

func (v Version) Recommends() ([]Dependency, bool) {
	return v.GetDepends(Recommends)
}

func (v Version) Suggests() ([]Dependency, bool) {
	return v.GetDepends(Suggests)
}

func (v Version) DependsMap() map[string][]Dependency {
	out := make(map[string][]Dependency)
	for _, g := range v.groups() {
		out[g.Kind] = append(out[g.Kind], g)
	}
	return out
}

func (v Version) String() string {
	return v.Package().FullName(true) + " " + v.data().version
}
