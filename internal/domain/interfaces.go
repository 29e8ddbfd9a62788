package domain

import (
	"context"
	"os"
	"time"
)

// Progress receives the lifecycle of one package-list refresh. Calls are
// never concurrent.
type Progress interface {
	PulseInterval() time.Duration
	Start()
	Hit(id uint32, description string)
	Fetch(id uint32, description string, size uint64)
	Fail(id uint32, description string, status uint32, errorText string)
	Pulse(workers []Worker, percent float32, totalBytes, currentBytes, currentCPS uint64)
	Done()
	Stop(fetchedBytes, elapsedTime, currentCPS uint64, pendingErrors bool)
}

type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) FetchResult
}

type ListStore interface {
	Path(filename string) string
	Has(filename string) bool
	Create(filename string) (*os.File, error)
	Store(filename, src string) (string, error)
	Remove(filename string) error
	Prune(keep map[string]bool) ([]string, error)
	Size() (int64, error)
	Clear() error
}

type StateStore interface {
	Get(uri string) (*FetchRecord, error)
	Put(rec *FetchRecord) error
	Remove(uri string) error
	List() ([]FetchRecord, error)
	Close() error
}
