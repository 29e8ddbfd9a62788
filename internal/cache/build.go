package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"pault.ag/go/debian/version"

	"github.com/teamcutter/aptcache/internal/config"
	"github.com/teamcutter/aptcache/internal/deb822"
	"github.com/teamcutter/aptcache/internal/decompress"
	"github.com/teamcutter/aptcache/internal/domain"
	"github.com/teamcutter/aptcache/internal/lists"
	"github.com/teamcutter/aptcache/internal/release"
	"github.com/teamcutter/aptcache/internal/sources"
)

const (
	indexTypePackages = "Debian Package Index"
	indexTypeStatus   = "Debian dpkg status file"
)

type pkgData struct {
	name      string
	arch      string
	versions  []int32
	candidate int32
	installed int32
	auto      bool

	selected string
	flag     string
	current  string

	dep depState
}

type verData struct {
	pkg           int32
	version       string
	parsed        version.Version
	arch          string
	multiArch     string
	essential     bool
	size          uint64
	installedSize uint64
	section       string
	priority      string
	source        string
	sourceVersion string
	summary       string
	description   string
	filename      string
	hashes        map[string]string
	deps          []depGroup
	provides      []provideDecl
	files         []int32
	pin           int
}

type fileData struct {
	PackageFile
	base string
	pin  int
}

type provideDecl struct {
	name    string
	version string
}

type provideEdge struct {
	ver     int32
	version string
}

// Open reads the configured sources, their downloaded package lists, the
// dpkg status file and extended_states, and builds the cache.
func Open(cfg *config.Config, opts Options) (*Cache, error) {
	c, err := OpenSources(cfg, opts)
	if err != nil {
		return nil, err
	}

	dir := lists.Open(cfg.ListsDir)
	releases := make(map[string]*release.Release)
	for _, t := range c.targets {
		if t.Kind != domain.TargetRelease {
			continue
		}
		rel, err := c.loadRelease(dir.Path(t.Filename))
		if err != nil {
			return nil, err
		}
		releases[t.Filename] = rel
	}

	for _, t := range c.targets {
		if t.Kind != domain.TargetPackages {
			continue
		}
		if err := c.loadList(dir.Path(t.Filename), t, releases[t.ReleaseFilename]); err != nil {
			return nil, err
		}
	}

	if err := c.loadStatus(cfg.StatusFile); err != nil {
		return nil, err
	}
	if err := c.loadExtendedStates(cfg.ExtendedStates); err != nil {
		return nil, err
	}

	c.finish()
	return c, nil
}

// OpenSources reads only the configured sources. The returned cache holds
// no packages; it can run Update even when the downloaded lists are
// unreadable, and Reopen on it builds the full cache.
func OpenSources(cfg *config.Config, opts Options) (*Cache, error) {
	c := &Cache{
		cfg:       cfg,
		opts:      opts,
		log:       loggerOr(opts.Logger),
		native:    cfg.Architecture,
		arches:    cfg.Arches(),
		byKey:     make(map[string]int32),
		byName:    make(map[string][]int32),
		providers: make(map[string][]provideEdge),
	}

	entries, err := sources.Load(cfg)
	if err != nil {
		return nil, &domain.MetadataError{Path: strings.Join(cfg.SourceLists, ","), Err: err}
	}
	c.targets = sources.Targets(entries, c.arches)
	return c, nil
}

func (c *Cache) loadRelease(path string) (*release.Release, error) {
	rel, err := release.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.MetadataError{Path: path, Err: err}
	}
	return rel, nil
}

// eachParagraph feeds every paragraph of the (possibly compressed) file at
// path to fn. A missing file is reported as os.ErrNotExist.
func eachParagraph(path string, fn func(*deb822.Paragraph) error) error {
	f, err := decompress.OpenFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := deb822.NewReader(f)
	for {
		p, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
}

func (c *Cache) loadList(path string, t domain.IndexTarget, rel *release.Release) error {
	file := fileData{
		PackageFile: PackageFile{
			Filename:  path,
			Site:      siteOf(t.Entry.URI),
			Component: t.Component,
			Arch:      t.Arch,
			IndexType: indexTypePackages,
			Trusted:   t.Entry.Trusted,
		},
		base: t.Entry.URI,
		pin:  defaultPriority,
	}
	if rel != nil {
		file.Origin = rel.Origin
		file.Label = rel.Label
		file.Archive = rel.Archive()
		file.Codename = rel.Codename
		file.Version = rel.Version
		switch {
		case rel.NotAutomatic && rel.ButAutomaticUpgrades:
			file.pin = butAutomaticPriority
		case rel.NotAutomatic:
			file.pin = notAutomaticPriority
		}
	}
	file.pin = c.pinFor(file.PackageFile, file.pin)

	fileID := int32(len(c.files))
	c.files = append(c.files, file)

	err := eachParagraph(path, func(p *deb822.Paragraph) error {
		_, err := c.addVersion(p, fileID)
		return err
	})
	if errors.Is(err, os.ErrNotExist) {
		c.log.WithField("path", path).Warn("package list missing, run update")
		c.files = c.files[:fileID]
		return nil
	}
	if err != nil {
		return &domain.MetadataError{Path: path, Err: err}
	}
	return nil
}

func (c *Cache) loadStatus(path string) error {
	file := fileData{
		PackageFile: PackageFile{
			Filename:  path,
			Archive:   "now",
			IndexType: indexTypeStatus,
		},
		pin: installedPriority,
	}
	fileID := int32(len(c.files))
	c.files = append(c.files, file)

	err := eachParagraph(path, func(p *deb822.Paragraph) error {
		want, flag, current := parseStatus(p.Get("Status"))
		if current == "" {
			return fmt.Errorf("package %s: malformed Status %q", p.Get("Package"), p.Get("Status"))
		}

		if !hasInstalledVersion(current) {
			pid := c.ensurePackage(p.Get("Package"), c.packageArch(p.Get("Architecture")))
			d := &c.pkgs[pid]
			d.selected, d.flag, d.current = want, flag, current
			return nil
		}

		vid, err := c.addVersion(p, fileID)
		if err != nil || vid < 0 {
			return err
		}
		d := &c.pkgs[c.vers[vid].pkg]
		d.selected, d.flag, d.current = want, flag, current
		d.installed = vid
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		c.log.WithField("path", path).Warn("dpkg status file missing")
		return nil
	}
	if err != nil {
		return &domain.MetadataError{Path: path, Err: err}
	}
	return nil
}

func (c *Cache) loadExtendedStates(path string) error {
	err := eachParagraph(path, func(p *deb822.Paragraph) error {
		if p.Get("Auto-Installed") != "1" {
			return nil
		}
		id, ok := c.byKey[key(p.Get("Package"), c.packageArch(p.Get("Architecture")))]
		if ok {
			c.pkgs[id].auto = true
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &domain.MetadataError{Path: path, Err: err}
	}
	return nil
}

// addVersion records the version described by p as coming from file. A
// version already seen with the same string and a compatible SHA256 and
// Size only gains the file. Returns -1 for paragraphs that are skipped.
func (c *Cache) addVersion(p *deb822.Paragraph, file int32) (int32, error) {
	name := p.Get("Package")
	verStr := p.Get("Version")
	if name == "" || verStr == "" {
		return -1, fmt.Errorf("paragraph without Package or Version")
	}

	parsed, err := version.Parse(verStr)
	if err != nil {
		c.log.WithFields(logrus.Fields{"package": name, "version": verStr}).Warn("skipping unparsable version")
		return -1, nil
	}

	arch := p.Get("Architecture")
	pid := c.ensurePackage(name, c.packageArch(arch))

	for _, vid := range c.pkgs[pid].versions {
		v := &c.vers[vid]
		if v.version != verStr || !sameBuild(v, p) {
			continue
		}
		if !slices.Contains(v.files, file) {
			v.files = append(v.files, file)
		}
		if v.filename == "" {
			v.filename = p.Get("Filename")
		}
		if v.size == 0 {
			v.size = parseUint(p.Get("Size"))
		}
		if len(v.hashes) == 0 {
			v.hashes = parseHashes(p)
		}
		return vid, nil
	}

	summary, long := deb822.SplitDescription(p.Get("Description"))
	if long != "" {
		long = summary + "\n" + long
	}
	v := verData{
		pkg:           pid,
		version:       verStr,
		parsed:        parsed,
		arch:          arch,
		multiArch:     strings.ToLower(p.Get("Multi-Arch")),
		essential:     strings.EqualFold(p.Get("Essential"), "yes"),
		size:          parseUint(p.Get("Size")),
		installedSize: parseUint(p.Get("Installed-Size")) * 1024,
		section:       p.Get("Section"),
		priority:      p.Get("Priority"),
		summary:       summary,
		description:   long,
		filename:      p.Get("Filename"),
		hashes:        parseHashes(p),
		files:         []int32{file},
	}
	v.source, v.sourceVersion = parseSource(p.Get("Source"), name, verStr)

	ownerArch := c.pkgs[pid].arch
	for _, kind := range relationKinds {
		for _, g := range parseRelation(p.Get(kind.field)) {
			v.deps = append(v.deps, c.resolveGroup(kind.name, g, ownerArch))
		}
	}
	for _, g := range parseRelation(p.Get("Provides")) {
		for _, b := range g {
			v.provides = append(v.provides, provideDecl{name: b.name, version: b.version})
		}
	}

	vid := int32(len(c.vers))
	c.vers = append(c.vers, v)
	c.pkgs[pid].versions = append(c.pkgs[pid].versions, vid)
	return vid, nil
}

// sameBuild reports whether p can describe the same .deb as v. Fields
// missing on either side, as in the dpkg status file, do not conflict.
func sameBuild(v *verData, p *deb822.Paragraph) bool {
	if sha := p.Get("SHA256"); sha != "" {
		if have := v.hashes["sha256"]; have != "" && !strings.EqualFold(have, sha) {
			return false
		}
	}
	if size := parseUint(p.Get("Size")); size != 0 && v.size != 0 && size != v.size {
		return false
	}
	return true
}

func (c *Cache) resolveGroup(kind string, bases []depTarget, ownerArch string) depGroup {
	g := depGroup{kind: kind, bases: make([]depTarget, len(bases))}
	for i, b := range bases {
		switch b.arch {
		case "":
			b.arch = ownerArch
		case "native", "all":
			b.arch = c.native
		}
		g.bases[i] = b
	}
	return g
}

func (c *Cache) ensurePackage(name, arch string) int32 {
	k := key(name, arch)
	if id, ok := c.byKey[k]; ok {
		return id
	}
	id := int32(len(c.pkgs))
	c.pkgs = append(c.pkgs, pkgData{
		name:      name,
		arch:      arch,
		candidate: -1,
		installed: -1,
		current:   "not-installed",
	})
	c.byKey[k] = id
	c.byName[name] = append(c.byName[name], id)
	return id
}

// packageArch maps a version architecture to the architecture of the
// package that owns it.
func (c *Cache) packageArch(arch string) string {
	if arch == "" || arch == "all" {
		return c.native
	}
	return arch
}

// finish sorts versions, creates virtual packages for every referenced
// name and computes provides, candidates and the depcache snapshot.
func (c *Cache) finish() {
	for i := range c.pkgs {
		d := &c.pkgs[i]
		slices.SortStableFunc(d.versions, func(a, b int32) int {
			return version.Compare(c.vers[b].parsed, c.vers[a].parsed)
		})
	}

	for vid := range c.vers {
		v := &c.vers[vid]
		ownerArch := c.pkgs[v.pkg].arch
		for _, prov := range v.provides {
			c.providers[prov.name] = append(c.providers[prov.name], provideEdge{ver: int32(vid), version: prov.version})
			c.ensurePackage(prov.name, ownerArch)
		}
		for _, g := range v.deps {
			for _, b := range g.bases {
				arch := b.arch
				if arch == "any" {
					arch = ownerArch
				}
				c.ensurePackage(b.name, arch)
			}
		}
	}

	c.computePriorities()
	c.computeCandidates()
	c.computeDepcache()
}

func parseStatus(status string) (want, flag, current string) {
	f := strings.Fields(status)
	if len(f) != 3 {
		return "", "", ""
	}
	return f[0], f[1], f[2]
}

func hasInstalledVersion(current string) bool {
	switch current {
	case "not-installed", "config-files":
		return false
	default:
		return true
	}
}

// parseSource splits "Source: name (version)"; both default to the binary.
func parseSource(field, name, ver string) (string, string) {
	if field == "" {
		return name, ver
	}
	src, rest, ok := strings.Cut(field, " ")
	if !ok {
		return src, ver
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, "(")
	rest = strings.TrimSuffix(rest, ")")
	return src, strings.TrimSpace(rest)
}

var hashFields = map[string]string{
	"md5sum": "MD5sum",
	"sha1":   "SHA1",
	"sha256": "SHA256",
	"sha512": "SHA512",
}

func parseHashes(p *deb822.Paragraph) map[string]string {
	out := make(map[string]string)
	for algo, field := range hashFields {
		if v := p.Get(field); v != "" {
			out[algo] = v
		}
	}
	return out
}

func parseUint(s string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// siteOf returns the host part of a source URI.
func siteOf(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	host, _, _ := strings.Cut(rest, "/")
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	return host
}
