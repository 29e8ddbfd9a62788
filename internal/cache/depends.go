package cache

import (
	"iter"
	"strings"

	"pault.ag/go/debian/version"
)

// Relation names used as keys of Version.DependsMap.
const (
	Depends    = "Depends"
	PreDepends = "PreDepends"
	Recommends = "Recommends"
	Suggests   = "Suggests"
	Conflicts  = "Conflicts"
	Breaks     = "Breaks"
	Replaces   = "Replaces"
	Obsoletes  = "Obsoletes"
	Enhances   = "Enhances"
)

var relationKinds = []struct {
	name  string
	field string
}{
	{PreDepends, "Pre-Depends"},
	{Depends, "Depends"},
	{Recommends, "Recommends"},
	{Suggests, "Suggests"},
	{Enhances, "Enhances"},
	{Conflicts, "Conflicts"},
	{Breaks, "Breaks"},
	{Replaces, "Replaces"},
	{Obsoletes, "Obsoletes"},
}

func isRelation(name string) bool {
	for _, k := range relationKinds {
		if k.name == name {
			return true
		}
	}
	return false
}

func isNegative(kind string) bool {
	return kind == Conflicts || kind == Breaks || kind == Obsoletes
}

type depTarget struct {
	name    string
	arch    string
	qual    string
	op      string
	version string
}

type depGroup struct {
	kind  string
	bases []depTarget
}

// Dependency is one "or" group: it is satisfied when any of its base
// dependencies is.
type Dependency struct {
	Kind     string
	BaseDeps []BaseDep
}

func (d Dependency) IsOr() bool {
	return len(d.BaseDeps) > 1
}

func (d Dependency) First() BaseDep {
	return d.BaseDeps[0]
}

// String renders the group the way it appears in a control file, with
// alternatives joined by " | ".
func (d Dependency) String() string {
	parts := make([]string, len(d.BaseDeps))
	for i, b := range d.BaseDeps {
		parts[i] = b.String()
	}
	return strings.Join(parts, " | ")
}

// FormatDepends renders groups joined by ", ".
func FormatDepends(groups []Dependency) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = g.String()
	}
	return strings.Join(parts, ", ")
}

type BaseDep struct {
	c     *Cache
	owner int32

	Name    string
	Arch    string
	Op      string
	Version string
	Kind    string

	qual string
}

func (b BaseDep) String() string {
	name := b.Name
	if b.qual != "" {
		name += ":" + b.qual
	}
	if b.Op == "" {
		return name
	}
	return name + " (" + b.Op + " " + b.Version + ")"
}

// TargetPackage is the package named by the dependency.
func (b BaseDep) TargetPackage() (Package, bool) {
	return b.c.GetArch(b.Name, b.Arch)
}

func (b BaseDep) ParentVersion() Version {
	return Version{c: b.c, id: b.owner}
}

// AllTargets yields every version that satisfies the dependency, directly
// or through Provides. Conflicts, Breaks and Obsoletes never target the
// package declaring them.
func (b BaseDep) AllTargets() iter.Seq[Version] {
	return func(yield func(Version) bool) {
		c := b.c
		ownerPkg := c.vers[b.owner].pkg
		skip := func(vid int32) bool {
			return isNegative(b.Kind) && c.vers[vid].pkg == ownerPkg
		}

		for _, pid := range c.byName[b.Name] {
			for _, vid := range c.pkgs[pid].versions {
				if skip(vid) || !c.archMatches(vid, b.Arch) {
					continue
				}
				if !satisfies(c.vers[vid].parsed, b.Op, b.Version) {
					continue
				}
				if !yield(Version{c: c, id: vid}) {
					return
				}
			}
		}

		for _, e := range c.providers[b.Name] {
			if skip(e.ver) || !c.archMatches(e.ver, b.Arch) {
				continue
			}
			if b.Op != "" {
				if e.version == "" {
					continue
				}
				pv, err := version.Parse(e.version)
				if err != nil || !satisfies(pv, b.Op, b.Version) {
					continue
				}
			}
			if !yield(Version{c: c, id: e.ver}) {
				return
			}
		}
	}
}

func (b BaseDep) hasTarget() bool {
	for range b.AllTargets() {
		return true
	}
	return false
}

// archMatches reports whether version vid can satisfy a relation on arch.
// Only Multi-Arch: allowed versions satisfy an ":any" relation.
func (c *Cache) archMatches(vid int32, arch string) bool {
	v := &c.vers[vid]
	if arch == "any" {
		return v.multiArch == "allowed"
	}
	if c.pkgs[v.pkg].arch == arch {
		return true
	}
	return v.multiArch == "foreign"
}

func satisfies(have version.Version, op, want string) bool {
	if op == "" {
		return true
	}
	w, err := version.Parse(want)
	if err != nil {
		return false
	}
	cmp := version.Compare(have, w)
	switch op {
	case "<<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case "=":
		return cmp == 0
	case ">=":
		return cmp >= 0
	case ">>":
		return cmp > 0
	default:
		return false
	}
}

// parseRelation parses a relationship field such as
// "libc6 (>= 2.36), foo | bar:any [amd64] <!nocheck>".
func parseRelation(field string) [][]depTarget {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}

	var groups [][]depTarget
	for _, rawGroup := range strings.Split(field, ",") {
		var group []depTarget
		for _, alt := range strings.Split(rawGroup, "|") {
			if t, ok := parseBase(alt); ok {
				group = append(group, t)
			}
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

func parseBase(s string) (depTarget, bool) {
	s = stripBracketed(s, '[', ']')
	s = stripBracketed(s, '<', '>')
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return depTarget{}, false
	}

	var t depTarget
	name, rest, _ := strings.Cut(s, "(")
	name = strings.TrimSpace(name)
	t.name, t.qual, _ = strings.Cut(name, ":")
	t.arch = t.qual

	if rest != "" {
		rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ")"))
		i := strings.IndexFunc(rest, func(r rune) bool {
			return !strings.ContainsRune("<=>", r)
		})
		if i < 0 {
			i = len(rest)
		}
		t.op = normalizeOp(rest[:i])
		t.version = strings.TrimSpace(rest[i:])
	}
	return t, t.name != ""
}

// stripBracketed removes every open...close span together with the
// brackets. Relational operators inside parentheses are left alone.
func stripBracketed(s string, openCh, closeCh byte) string {
	var b strings.Builder
	depth, paren := 0, 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '(':
			paren++
		case ch == ')':
			paren--
		case paren == 0 && ch == openCh:
			depth++
			continue
		case paren == 0 && ch == closeCh && depth > 0:
			depth--
			continue
		}
		if depth == 0 {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func normalizeOp(op string) string {
	switch op {
	case "<":
		return "<="
	case ">":
		return ">="
	default:
		return op
	}
}

type BrokenDependency struct {
	Version    Version
	Dependency Dependency
}

// BrokenDependencies yields every Pre-Depends, Depends and Recommends
// group of a candidate version that nothing in the cache can satisfy.
func (c *Cache) BrokenDependencies() iter.Seq[BrokenDependency] {
	return func(yield func(BrokenDependency) bool) {
		for pkg := range c.Packages(PackageSort{}) {
			cand, ok := pkg.Candidate()
			if !ok {
				continue
			}
			for _, g := range cand.groups() {
				if g.Kind != Depends && g.Kind != PreDepends && g.Kind != Recommends {
					continue
				}
				satisfied := false
				for _, b := range g.BaseDeps {
					if b.hasTarget() {
						satisfied = true
						break
					}
				}
				if satisfied {
					continue
				}
				if !yield(BrokenDependency{Version: cand, Dependency: g}) {
					return
				}
			}
		}
	}
}
