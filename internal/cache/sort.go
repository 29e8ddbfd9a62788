package cache

type filter int8

const (
	filterAny filter = iota
	filterOnly
	filterExclude
)

func (f filter) allows(v bool) bool {
	switch f {
	case filterOnly:
		return v
	case filterExclude:
		return !v
	default:
		return true
	}
}

type virtualMode int8

const (
	virtualExclude virtualMode = iota
	virtualInclude
	virtualOnly
)

// PackageSort filters Cache.Packages. The zero value yields every package
// that has versions. Each method returns a modified copy; a later call on
// the same property overrides an earlier one.
type PackageSort struct {
	virtual       virtualMode
	upgradable    filter
	installed     filter
	autoInstalled filter
	autoRemovable filter
}

func (s PackageSort) IncludeVirtual() PackageSort {
	s.virtual = virtualInclude
	return s
}

func (s PackageSort) OnlyVirtual() PackageSort {
	s.virtual = virtualOnly
	return s
}

func (s PackageSort) Upgradable() PackageSort {
	s.upgradable = filterOnly
	return s
}

func (s PackageSort) NotUpgradable() PackageSort {
	s.upgradable = filterExclude
	return s
}

func (s PackageSort) Installed() PackageSort {
	s.installed = filterOnly
	return s
}

func (s PackageSort) NotInstalled() PackageSort {
	s.installed = filterExclude
	return s
}

func (s PackageSort) AutoInstalled() PackageSort {
	s.autoInstalled = filterOnly
	return s
}

func (s PackageSort) ManuallyInstalled() PackageSort {
	s.autoInstalled = filterExclude
	return s
}

func (s PackageSort) AutoRemovable() PackageSort {
	s.autoRemovable = filterOnly
	return s
}

func (s PackageSort) NotAutoRemovable() PackageSort {
	s.autoRemovable = filterExclude
	return s
}

func (s PackageSort) matches(p Package) bool {
	switch s.virtual {
	case virtualExclude:
		if !p.HasVersions() {
			return false
		}
	case virtualOnly:
		if p.HasVersions() {
			return false
		}
	}

	return s.upgradable.allows(p.IsUpgradable(false)) &&
		s.installed.allows(p.IsInstalled()) &&
		s.autoInstalled.allows(p.IsAutoInstalled()) &&
		s.autoRemovable.allows(p.IsAutoRemovable())
}
