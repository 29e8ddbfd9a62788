package cache

import "pault.ag/go/debian/version"

const (
	defaultPriority      = 500
	installedPriority    = 100
	butAutomaticPriority = 100
	notAutomaticPriority = 1
	// A version pinned at or above this may replace a newer installed one.
	downgradePriority = 1000
)

// pinFor returns the priority of the first configured pin matching file,
// or def when none does.
func (c *Cache) pinFor(file PackageFile, def int) int {
	for _, pin := range c.cfg.Pins {
		if pin.Origin != "" && pin.Origin != file.Origin {
			continue
		}
		if pin.Archive != "" && pin.Archive != file.Archive {
			continue
		}
		if pin.Codename != "" && pin.Codename != file.Codename {
			continue
		}
		return pin.Priority
	}
	return def
}

// computePriorities gives every version the highest priority of the files
// it appears in.
func (c *Cache) computePriorities() {
	for i := range c.vers {
		v := &c.vers[i]
		best, set := 0, false
		for _, f := range v.files {
			if p := c.files[f].pin; !set || p > best {
				best, set = p, true
			}
		}
		v.pin = best
	}
}

// computeCandidates picks, per package, the highest priority version,
// preferring newer ones on ties. Versions older than the installed one are
// only chosen when pinned at downgradePriority or above, and negative
// priorities are never chosen.
func (c *Cache) computeCandidates() {
	for i := range c.pkgs {
		d := &c.pkgs[i]
		best, bestPrio := int32(-1), 0

		for _, vid := range d.versions {
			v := &c.vers[vid]
			if v.pin < 0 {
				continue
			}
			if d.installed >= 0 && vid != d.installed && v.pin < downgradePriority &&
				version.Compare(v.parsed, c.vers[d.installed].parsed) < 0 {
				continue
			}
			if best < 0 || v.pin > bestPrio {
				best, bestPrio = vid, v.pin
			}
		}
		d.candidate = best
	}
}
