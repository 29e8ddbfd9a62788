// Package sources turns sources.list files, deb822 .sources files and
// inline configuration entries into the index files a refresh maintains.
package sources

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teamcutter/aptcache/internal/config"
	"github.com/teamcutter/aptcache/internal/deb822"
	"github.com/teamcutter/aptcache/internal/domain"
)

// Load collects every enabled binary source from cfg. Missing list files
// are skipped; unreadable or malformed ones are errors.
func Load(cfg *config.Config) ([]domain.SourceEntry, error) {
	var entries []domain.SourceEntry

	for _, path := range cfg.SourceLists {
		found, err := loadPath(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}

	for _, s := range cfg.Sources {
		if s.Disabled {
			continue
		}
		for _, suite := range s.Suites {
			entries = append(entries, domain.SourceEntry{
				Type:          "deb",
				URI:           normalizeURI(s.URI),
				Suite:         suite,
				Components:    s.Components,
				Architectures: s.Architectures,
				Trusted:       s.Trusted,
				Origin:        "config",
			})
		}
	}

	return entries, nil
}

func loadPath(path string) ([]domain.SourceEntry, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return loadFile(path)
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range dirEntries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".list") || strings.HasSuffix(e.Name(), ".sources") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var entries []domain.SourceEntry
	for _, name := range names {
		found, err := loadFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

func loadFile(path string) ([]domain.SourceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []domain.SourceEntry
	if strings.HasSuffix(path, ".sources") {
		entries, err = ParseDeb822(f, path)
	} else {
		entries, err = ParseList(f, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// ParseList reads the one-line format:
//
//	deb [arch=amd64 trusted=yes] http://deb.debian.org/debian bookworm main contrib
func ParseList(r io.Reader, origin string) ([]domain.SourceEntry, error) {
	var entries []domain.SourceEntry

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		typ := fields[0]
		if typ != "deb" && typ != "deb-src" {
			return nil, fmt.Errorf("line %d: unknown type %q", lineNo, typ)
		}
		fields = fields[1:]

		opts := map[string]string{}
		if len(fields) > 0 && strings.HasPrefix(fields[0], "[") {
			var raw []string
			closed := false
			for len(fields) > 0 {
				tok := fields[0]
				fields = fields[1:]
				raw = append(raw, tok)
				if strings.HasSuffix(tok, "]") {
					closed = true
					break
				}
			}
			if !closed {
				return nil, fmt.Errorf("line %d: unterminated option list", lineNo)
			}
			joined := strings.TrimSuffix(strings.TrimPrefix(strings.Join(raw, " "), "["), "]")
			for _, opt := range strings.Fields(joined) {
				k, v, _ := strings.Cut(opt, "=")
				opts[strings.ToLower(k)] = v
			}
		}

		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected URI and suite", lineNo)
		}

		entry := domain.SourceEntry{
			Type:    typ,
			URI:     normalizeURI(fields[0]),
			Suite:   fields[1],
			Trusted: opts["trusted"] == "yes",
			Origin:  origin,
		}
		if arch, ok := opts["arch"]; ok {
			entry.Architectures = splitComma(arch)
		}
		entry.Components = fields[2:]

		if !entry.IsFlat() && len(entry.Components) == 0 {
			return nil, fmt.Errorf("line %d: suite %q needs at least one component", lineNo, entry.Suite)
		}
		if typ == "deb" {
			entries = append(entries, entry)
		}
	}

	return entries, sc.Err()
}

// ParseDeb822 reads the multi-paragraph .sources format.
func ParseDeb822(r io.Reader, origin string) ([]domain.SourceEntry, error) {
	paras, err := deb822.ParseAll(r)
	if err != nil {
		return nil, err
	}

	var entries []domain.SourceEntry
	for i, p := range paras {
		if strings.EqualFold(p.Get("Enabled"), "no") {
			continue
		}

		types := deb822.Fields(p.Get("Types"))
		uris := deb822.Fields(p.Get("URIs"))
		suites := deb822.Fields(p.Get("Suites"))
		if len(types) == 0 || len(uris) == 0 || len(suites) == 0 {
			return nil, fmt.Errorf("paragraph %d: Types, URIs and Suites are required", i+1)
		}

		comps := deb822.Fields(p.Get("Components"))
		arches := deb822.Fields(p.Get("Architectures"))
		trusted := strings.EqualFold(p.Get("Trusted"), "yes")

		for _, typ := range types {
			if typ != "deb" {
				continue
			}
			for _, uri := range uris {
				for _, suite := range suites {
					entry := domain.SourceEntry{
						Type:          typ,
						URI:           normalizeURI(uri),
						Suite:         suite,
						Components:    comps,
						Architectures: arches,
						Trusted:       trusted,
						Origin:        origin,
					}
					if !entry.IsFlat() && len(comps) == 0 {
						return nil, fmt.Errorf("paragraph %d: suite %q needs Components", i+1, suite)
					}
					entries = append(entries, entry)
				}
			}
		}
	}
	return entries, nil
}

// Targets expands entries into the Release and Packages files to keep,
// one Packages index per component and architecture. Duplicates collapse.
func Targets(entries []domain.SourceEntry, arches []string) []domain.IndexTarget {
	var targets []domain.IndexTarget
	seen := make(map[string]bool)

	add := func(t domain.IndexTarget) {
		if seen[t.Filename] {
			return
		}
		seen[t.Filename] = true
		targets = append(targets, t)
	}

	for _, e := range entries {
		if e.IsFlat() {
			base := e.URI + "/"
			if e.Suite != "./" && e.Suite != "/" {
				base += strings.TrimPrefix(e.Suite, "./")
			}
			release := domain.IndexTarget{
				Kind:        domain.TargetRelease,
				URI:         base + "InRelease",
				Filename:    domain.FlatFilename(base + "InRelease"),
				Description: fmt.Sprintf("%s %s InRelease", e.URI, e.Suite),
				Entry:       e,
			}
			add(release)
			add(domain.IndexTarget{
				Kind:            domain.TargetPackages,
				URI:             base + "Packages",
				Filename:        domain.FlatFilename(base + "Packages"),
				Description:     fmt.Sprintf("%s %s Packages", e.URI, e.Suite),
				Entry:           e,
				MetaKey:         "Packages",
				ReleaseFilename: release.Filename,
			})
			continue
		}

		base := fmt.Sprintf("%s/dists/%s/", e.URI, e.Suite)
		release := domain.IndexTarget{
			Kind:        domain.TargetRelease,
			URI:         base + "InRelease",
			Filename:    domain.FlatFilename(base + "InRelease"),
			Description: fmt.Sprintf("%s %s InRelease", e.URI, e.Suite),
			Entry:       e,
		}
		add(release)

		entryArches := e.Architectures
		if len(entryArches) == 0 {
			entryArches = arches
		}
		for _, comp := range e.Components {
			for _, arch := range entryArches {
				key := fmt.Sprintf("%s/binary-%s/Packages", comp, arch)
				add(domain.IndexTarget{
					Kind:            domain.TargetPackages,
					URI:             base + key,
					Filename:        domain.FlatFilename(base + key),
					Description:     fmt.Sprintf("%s %s/%s %s Packages", e.URI, e.Suite, comp, arch),
					Entry:           e,
					Component:       comp,
					Arch:            arch,
					MetaKey:         key,
					ReleaseFilename: release.Filename,
				})
			}
		}
	}

	return targets
}

func normalizeURI(uri string) string {
	return strings.TrimRight(uri, "/")
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
