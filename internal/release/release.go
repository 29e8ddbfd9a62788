package release

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/teamcutter/aptcache/internal/deb822"
	"github.com/teamcutter/aptcache/internal/domain"
)

type FileHash struct {
	Path   string
	SHA256 string
	Size   int64
}

// Release is the parsed top-level metadata of a suite (Release or InRelease).
type Release struct {
	Origin        string
	Label         string
	Suite         string
	Codename      string
	Version       string
	Date          string
	Architectures []string
	Components    []string
	Files         map[string]FileHash

	NotAutomatic         bool
	ButAutomaticUpgrades bool
}

func Parse(data []byte) (*Release, error) {
	paras, err := deb822.ParseAll(bytes.NewReader(deb822.StripClearsign(data)))
	if err != nil {
		return nil, err
	}
	if len(paras) == 0 {
		return nil, fmt.Errorf("empty release file")
	}

	p := paras[0]
	rel := &Release{
		Origin:        p.Get("Origin"),
		Label:         p.Get("Label"),
		Suite:         p.Get("Suite"),
		Codename:      p.Get("Codename"),
		Version:       p.Get("Version"),
		Date:          p.Get("Date"),
		Architectures: deb822.Fields(p.Get("Architectures")),
		Components:    deb822.Fields(p.Get("Components")),
		Files:         make(map[string]FileHash),

		NotAutomatic:         strings.EqualFold(p.Get("NotAutomatic"), "yes"),
		ButAutomaticUpgrades: strings.EqualFold(p.Get("ButAutomaticUpgrades"), "yes"),
	}

	for _, line := range strings.Split(p.Get("SHA256"), "\n") {
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		if len(f) != 3 {
			return nil, fmt.Errorf("malformed SHA256 entry %q", line)
		}
		size, err := strconv.ParseInt(f[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed SHA256 entry %q: %w", line, err)
		}
		rel.Files[f[2]] = FileHash{Path: f[2], SHA256: strings.ToLower(f[0]), Size: size}
	}

	return rel, nil
}

func Load(path string) (*Release, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Lookup returns the hash entry for the uncompressed index at key.
func (r *Release) Lookup(key string) (FileHash, bool) {
	h, ok := r.Files[key]
	return h, ok
}

// Variants returns the listed encodings of key in order of preference.
func (r *Release) Variants(key string) []FileHash {
	var out []FileHash
	for _, suffix := range domain.CompressionSuffixes() {
		if h, ok := r.Files[key+suffix]; ok {
			out = append(out, h)
		}
	}
	return out
}

// Archive is the name pins match against: the suite, or the codename when
// the suite is missing.
func (r *Release) Archive() string {
	if r.Suite != "" {
		return r.Suite
	}
	return r.Codename
}
