package cache

import "fmt"

// Mark is a requested change applied to the depcache snapshot.
type Mark int

const (
	MarkKeep Mark = iota
	MarkInstall
	MarkDelete
	MarkReinstall
)

func ParseMark(s string) (Mark, error) {
	switch s {
	case "keep":
		return MarkKeep, nil
	case "install", "upgrade":
		return MarkInstall, nil
	case "delete", "remove":
		return MarkDelete, nil
	case "reinstall":
		return MarkReinstall, nil
	default:
		return MarkKeep, fmt.Errorf("unknown mark %q", s)
	}
}

type mode int8

const (
	modeKeep mode = iota
	modeInstall
	modeDelete
)

type depState struct {
	mode      mode
	target    int32
	reinstall bool

	upgradable    bool
	autoRemovable bool
	nowBroken     bool
	instBroken    bool
}

// computeDepcache fills the per-package resolver snapshot: marks, broken
// flags and auto-removability.
func (c *Cache) computeDepcache() {
	for i := range c.pkgs {
		d := &c.pkgs[i]
		d.dep = depState{target: -1}
		d.dep.upgradable = d.selected != "hold" && Package{c: c, id: int32(i)}.policyUpgradable()
	}

	if c.opts.MarkUpgrades {
		for i := range c.pkgs {
			if c.pkgs[i].dep.upgradable {
				c.applyMark(int32(i), MarkInstall)
			}
		}
	}

	for name, m := range c.opts.Marks {
		p, ok := c.Get(name)
		if !ok {
			c.log.WithField("package", name).Warn("cannot mark unknown package")
			continue
		}
		c.applyMark(p.id, m)
	}

	installed := func(pid int32) int32 { return c.pkgs[pid].installed }
	for i := range c.pkgs {
		pid := int32(i)
		c.pkgs[i].dep.nowBroken = c.versionBroken(installed(pid), installed)
		c.pkgs[i].dep.instBroken = c.versionBroken(c.instVersion(pid), c.instVersion)
	}

	c.markAutoRemovable()
}

func (c *Cache) applyMark(pid int32, m Mark) {
	d := &c.pkgs[pid]
	log := c.log.WithField("package", Package{c: c, id: pid}.FullName(false))

	switch m {
	case MarkKeep:
		d.dep.mode, d.dep.target, d.dep.reinstall = modeKeep, -1, false
	case MarkInstall:
		if d.candidate < 0 {
			log.Warn("no installation candidate")
			return
		}
		if d.candidate == d.installed {
			d.dep.mode, d.dep.target = modeKeep, -1
			return
		}
		d.dep.mode, d.dep.target = modeInstall, d.candidate
	case MarkDelete:
		if d.installed < 0 {
			return
		}
		d.dep.mode, d.dep.target, d.dep.reinstall = modeDelete, -1, false
	case MarkReinstall:
		if d.installed < 0 || !(Version{c: c, id: d.installed}).Downloadable() {
			log.Warn("installed version is not downloadable, cannot reinstall")
			return
		}
		d.dep.mode, d.dep.target, d.dep.reinstall = modeKeep, -1, true
	}
}

// instVersion is the version package pid would have after the marked
// changes, or -1.
func (c *Cache) instVersion(pid int32) int32 {
	d := &c.pkgs[pid]
	switch d.dep.mode {
	case modeInstall:
		return d.dep.target
	case modeDelete:
		return -1
	default:
		return d.installed
	}
}

// versionBroken reports whether vid has an unsatisfied Depends or
// Pre-Depends, or a Conflicts or Breaks that hits, given the version each
// package has under state.
func (c *Cache) versionBroken(vid int32, state func(int32) int32) bool {
	if vid < 0 {
		return false
	}
	for _, g := range (Version{c: c, id: vid}).groups() {
		switch g.Kind {
		case Depends, PreDepends:
			if !c.groupHits(g, state) {
				return true
			}
		case Conflicts, Breaks:
			if c.groupHits(g, state) {
				return true
			}
		}
	}
	return false
}

// groupHits reports whether any base of g targets a version that is
// present under state.
func (c *Cache) groupHits(g Dependency, state func(int32) int32) bool {
	for _, b := range g.BaseDeps {
		for t := range b.AllTargets() {
			if state(c.vers[t.id].pkg) == t.id {
				return true
			}
		}
	}
	return false
}

// markAutoRemovable sweeps from every manually installed or essential
// package over Pre-Depends, Depends, Recommends and Suggests. Automatically
// installed packages that are not reached can be removed.
func (c *Cache) markAutoRemovable() {
	reached := make([]bool, len(c.pkgs))
	var stack []int32

	for i := range c.pkgs {
		pid := int32(i)
		vid := c.instVersion(pid)
		if vid < 0 {
			continue
		}
		d := &c.pkgs[i]
		if !d.auto || c.vers[vid].essential || d.selected == "hold" {
			reached[i] = true
			stack = append(stack, pid)
		}
	}

	for len(stack) > 0 {
		pid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, g := range (Version{c: c, id: c.instVersion(pid)}).groups() {
			switch g.Kind {
			case PreDepends, Depends, Recommends, Suggests:
			default:
				continue
			}
			for _, b := range g.BaseDeps {
				for t := range b.AllTargets() {
					tp := c.vers[t.id].pkg
					if reached[tp] || c.instVersion(tp) != t.id {
						continue
					}
					reached[tp] = true
					stack = append(stack, tp)
				}
			}
		}
	}

	for i := range c.pkgs {
		d := &c.pkgs[i]
		d.dep.autoRemovable = d.auto && !reached[i] && c.instVersion(int32(i)) >= 0
	}
}

// DiskSpace is either Require or Free.
type DiskSpace interface {
	Bytes() uint64
	isDiskSpace()
}

// Require is the additional space the marked changes need.
type Require uint64

// Free is the space the marked changes release.
type Free uint64

func (r Require) Bytes() uint64 { return uint64(r) }
func (Require) isDiskSpace()    {}
func (f Free) Bytes() uint64    { return uint64(f) }
func (Free) isDiskSpace()       {}

// DiskSize sums the installed-size change of every marked package. No
// change at all is Require(0).
func (c *Cache) DiskSize() DiskSpace {
	var delta int64
	for i := range c.pkgs {
		d := &c.pkgs[i]
		switch d.dep.mode {
		case modeInstall:
			delta += int64(c.vers[d.dep.target].installedSize)
			if d.installed >= 0 {
				delta -= int64(c.vers[d.installed].installedSize)
			}
		case modeDelete:
			delta -= int64(c.vers[d.installed].installedSize)
		}
	}
	if delta < 0 {
		return Free(-delta)
	}
	return Require(delta)
}

// Changes returns every package with a pending install, delete or
// reinstall mark.
func (c *Cache) Changes() []Package {
	var out []Package
	for i := range c.pkgs {
		d := &c.pkgs[i]
		if d.dep.mode != modeKeep || d.dep.reinstall {
			out = append(out, Package{c: c, id: int32(i)})
		}
	}
	return out
}
