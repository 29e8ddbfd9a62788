package cache

import "iter"

// Package is a handle to a (name, architecture) pair.
type Package struct {
	c  *Cache
	id int32
}

func (p Package) data() *pkgData {
	return &p.c.pkgs[p.id]
}

func (p Package) ID() int32 {
	return p.id
}

func (p Package) Name() string { return p.data().name }
func (p Package) Arch() string { return p.data().arch }

// FullName returns "name:arch". With pretty set the architecture is left
// out for native packages.
func (p Package) FullName(pretty bool) string {
	d := p.data()
	if pretty && d.arch == p.c.native {
		return d.name
	}
	return d.name + ":" + d.arch
}

func (p Package) String() string {
	return p.FullName(false)
}

// Versions yields the versions of the package, newest first.
func (p Package) Versions() iter.Seq[Version] {
	return func(yield func(Version) bool) {
		for _, vid := range p.data().versions {
			if !yield(Version{c: p.c, id: vid}) {
				return
			}
		}
	}
}

func (p Package) HasVersions() bool {
	return len(p.data().versions) > 0
}

func (p Package) IsVirtual() bool {
	return !p.HasVersions()
}

func (p Package) HasProvides() bool {
	for range p.c.Provides(p, false) {
		return true
	}
	return false
}

func (p Package) Candidate() (Version, bool) {
	if id := p.data().candidate; id >= 0 {
		return Version{c: p.c, id: id}, true
	}
	return Version{}, false
}

func (p Package) Installed() (Version, bool) {
	if id := p.data().installed; id >= 0 {
		return Version{c: p.c, id: id}, true
	}
	return Version{}, false
}

func (p Package) GetVersion(ver string) (Version, bool) {
	for v := range p.Versions() {
		if v.Version() == ver {
			return v, true
		}
	}
	return Version{}, false
}

func (p Package) IsInstalled() bool {
	return p.data().installed >= 0
}

func (p Package) IsAutoInstalled() bool {
	return p.data().auto
}

func (p Package) IsEssential() bool {
	if v, ok := p.Installed(); ok && v.data().essential {
		return true
	}
	if v, ok := p.Candidate(); ok && v.data().essential {
		return true
	}
	return false
}

// CurrentState is the dpkg state, e.g. "installed" or "config-files".
func (p Package) CurrentState() string { return p.data().current }

// InstState is the dpkg error flag, "ok" or "reinstreq".
func (p Package) InstState() string { return p.data().flag }

// SelectedState is the dpkg selection: install, hold, deinstall or purge.
func (p Package) SelectedState() string { return p.data().selected }

func (p Package) IsHeld() bool {
	return p.data().selected == "hold"
}

// IsUpgradable reports whether a newer candidate is available. With
// skipDepcache the policy alone decides; otherwise held packages are not
// upgradable.
func (p Package) IsUpgradable(skipDepcache bool) bool {
	if skipDepcache {
		return p.policyUpgradable()
	}
	return p.data().dep.upgradable
}

func (p Package) policyUpgradable() bool {
	d := p.data()
	if d.installed < 0 || d.candidate < 0 || d.installed == d.candidate {
		return false
	}
	return CompareVersions(p.c.vers[d.candidate].version, p.c.vers[d.installed].version) > 0
}

func (p Package) IsAutoRemovable() bool { return p.data().dep.autoRemovable }
func (p Package) IsNowBroken() bool     { return p.data().dep.nowBroken }
func (p Package) IsInstBroken() bool    { return p.data().dep.instBroken }

func (p Package) MarkedInstall() bool {
	return p.data().dep.mode == modeInstall
}

func (p Package) MarkedUpgrade() bool {
	return p.MarkedInstall() && p.installCompare() > 0
}

func (p Package) MarkedDowngrade() bool {
	return p.MarkedInstall() && p.installCompare() < 0
}

func (p Package) MarkedNewInstall() bool {
	return p.MarkedInstall() && !p.IsInstalled()
}

func (p Package) MarkedDelete() bool {
	return p.data().dep.mode == modeDelete
}

func (p Package) MarkedKeep() bool {
	return p.data().dep.mode == modeKeep
}

func (p Package) MarkedReinstall() bool {
	return p.data().dep.reinstall
}

// installCompare compares the install target with the installed version;
// 0 when either is missing.
func (p Package) installCompare() int {
	d := p.data()
	if d.installed < 0 || d.dep.target < 0 {
		return 0
	}
	return CompareVersions(p.c.vers[d.dep.target].version, p.c.vers[d.installed].version)
}
