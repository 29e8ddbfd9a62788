package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "APTCACHE"

type Config struct {
	Architecture   string        `toml:"architecture" envconfig:"ARCH"`
	ForeignArches  []string      `toml:"foreign_architectures" envconfig:"FOREIGN_ARCHES"`
	ListsDir       string        `toml:"lists_dir" envconfig:"LISTS_DIR"`
	StatusFile     string        `toml:"status_file" envconfig:"STATUS_FILE"`
	ExtendedStates string        `toml:"extended_states" envconfig:"EXTENDED_STATES"`
	StateDB        string        `toml:"state_db" envconfig:"STATE_DB"`
	SourceLists    []string      `toml:"source_lists" envconfig:"SOURCE_LISTS"`
	Sources        []Source      `toml:"sources" ignored:"true"`
	Pins           []Pin         `toml:"pins" ignored:"true"`
	MaxParallel    int           `toml:"max_parallel" envconfig:"MAX_PARALLEL"`
	Timeout        time.Duration `toml:"timeout" envconfig:"TIMEOUT"`
	Retries        int           `toml:"retries" envconfig:"RETRIES"`
	DownloadLimit  int           `toml:"dl_limit" envconfig:"DL_LIMIT"`
	PulseInterval  time.Duration `toml:"pulse_interval" envconfig:"PULSE_INTERVAL"`
	Log            Log           `toml:"log"`
}

// Source is an inline repository entry, equivalent to one
// "deb [arch=...] URI suite components..." line.
type Source struct {
	URI           string   `toml:"uri"`
	Suites        []string `toml:"suites"`
	Components    []string `toml:"components"`
	Architectures []string `toml:"architectures"`
	Trusted       bool     `toml:"trusted"`
	Disabled      bool     `toml:"disabled"`
}

// Pin assigns a priority to every version coming from a matching archive.
// Empty match fields match anything.
type Pin struct {
	Origin   string `toml:"origin"`
	Archive  string `toml:"archive"`
	Codename string `toml:"codename"`
	Priority int    `toml:"priority"`
}

type Log struct {
	Level      string `toml:"level" envconfig:"LEVEL"`
	File       string `toml:"file" envconfig:"FILE"`
	MaxSize    int    `toml:"max_size" envconfig:"MAX_SIZE"`
	MaxBackups int    `toml:"max_backups" envconfig:"MAX_BACKUPS"`
	Compress   bool   `toml:"compress" envconfig:"COMPRESS"`
}

func DefaultPath() string {
	if p := os.Getenv(envPrefix + "_CONFIG"); p != "" {
		return p
	}
	return "/etc/aptcache/config.toml"
}

func DefaultConfig() *Config {
	return &Config{
		Architecture:   NativeArch(),
		ListsDir:       "/var/lib/apt/lists",
		StatusFile:     "/var/lib/dpkg/status",
		ExtendedStates: "/var/lib/apt/extended_states",
		StateDB:        "/var/lib/aptcache/state.db",
		SourceLists:    []string{"/etc/apt/sources.list", "/etc/apt/sources.list.d"},
		MaxParallel:    4,
		Timeout:        2 * time.Minute,
		Retries:        3,
		PulseInterval:  500 * time.Millisecond,
		Log: Log{
			Level:      "warn",
			MaxSize:    20,
			MaxBackups: 3,
		},
	}
}

// Load reads the TOML file at path on top of the defaults, then applies
// APTCACHE_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// NativeArch maps the running GOARCH to its dpkg architecture name.
func NativeArch() string {
	switch runtime.GOARCH {
	case "386":
		return "i386"
	case "arm":
		return "armhf"
	case "ppc64le":
		return "ppc64el"
	case "mips64le":
		return "mips64el"
	case "loong64":
		return "loong64"
	default:
		return runtime.GOARCH
	}
}

// Arches returns the native architecture followed by the foreign ones.
func (c *Config) Arches() []string {
	out := []string{c.Architecture}
	for _, a := range c.ForeignArches {
		if a != c.Architecture {
			out = append(out, a)
		}
	}
	return out
}
