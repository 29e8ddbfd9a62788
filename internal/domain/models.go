package domain

import (
	"strings"
	"time"
)

// SourceEntry is one configured origin: a repository URI plus the suite,
// components and architectures indexed from it.
type SourceEntry struct {
	Type          string
	URI           string
	Suite         string
	Components    []string
	Architectures []string
	Trusted       bool
	Origin        string
}

// IsFlat reports whether the entry points at a flat repository
// ("deb http://host/path ./").
func (e SourceEntry) IsFlat() bool {
	return strings.HasSuffix(e.Suite, "/")
}

func (e SourceEntry) String() string {
	if e.IsFlat() {
		return e.URI + " " + e.Suite
	}
	return e.URI + " " + e.Suite + " " + strings.Join(e.Components, " ")
}

type TargetKind int

const (
	TargetRelease TargetKind = iota
	TargetPackages
)

// IndexTarget is one file the refresh pipeline keeps up to date.
type IndexTarget struct {
	Kind            TargetKind
	URI             string
	Filename        string
	Description     string
	Entry           SourceEntry
	Component       string
	Arch            string
	MetaKey         string
	ReleaseFilename string
}

type Worker struct {
	ID          uint32
	Description string
	Status      string
	CurrentSize uint64
	TotalSize   uint64
}

// Item states reported through Progress.Fail.
const (
	StatIdle uint32 = iota
	StatFetching
	StatDone
	StatError
	StatAuthError
	StatTransientNetworkError
)

// IsIgnorable reports whether a failure status is an "Ign" rather than an "Err".
func IsIgnorable(status uint32) bool {
	return status == StatIdle || status == StatDone
}

type FetchRequest struct {
	URI          string
	Dest         string
	ETag         string
	LastModified string
	OnProgress   func(n int64)
}

type FetchResult struct {
	URI          string
	Path         string
	Size         int64
	SHA256       string
	StatusCode   int
	NotModified  bool
	ETag         string
	LastModified string
	Error        error
}

type FetchRecord struct {
	URI          string
	Filename     string
	ETag         string
	LastModified string
	SHA256       string
	Size         int64
	FetchedAt    time.Time
}
