package acquire

import (
	"slices"
	"sync"
	"time"

	"github.com/teamcutter/aptcache/internal/domain"
)

type snapshot struct {
	workers []domain.Worker
	percent float32
	total   uint64
	current uint64
	cps     uint64
}

// tracker follows in-flight transfers for pulses.
type tracker struct {
	mu       sync.Mutex
	started  time.Time
	items    int
	finished int
	workers  map[uint32]*domain.Worker
	total    uint64
	current  uint64
	fetched  uint64
}

func newTracker(items int) *tracker {
	return &tracker{
		started: time.Now(),
		items:   items,
		workers: make(map[uint32]*domain.Worker),
	}
}

func (t *tracker) begin(id uint32, desc, status string, size uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if w, ok := t.workers[id]; ok {
		t.total -= w.TotalSize
		t.current -= w.CurrentSize
	}
	t.workers[id] = &domain.Worker{ID: id, Description: desc, Status: status, TotalSize: size}
	t.total += size
}

func (t *tracker) advance(id uint32, n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.workers[id]
	if !ok || n <= 0 {
		return
	}
	w.CurrentSize += uint64(n)
	t.current += uint64(n)
	if w.CurrentSize > w.TotalSize && w.TotalSize > 0 {
		t.total += w.CurrentSize - w.TotalSize
		w.TotalSize = w.CurrentSize
	}
}

func (t *tracker) finish(id uint32, fetched uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.workers, id)
	t.finished++
	t.fetched += fetched
}

func (t *tracker) fetchedBytes() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fetched
}

func (t *tracker) snapshot() snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := snapshot{total: t.total, current: t.current}

	progress := float64(t.finished)
	for _, w := range t.workers {
		s.workers = append(s.workers, *w)
		if w.TotalSize > 0 {
			progress += float64(w.CurrentSize) / float64(w.TotalSize)
		}
	}
	slices.SortFunc(s.workers, func(a, b domain.Worker) int { return int(a.ID) - int(b.ID) })

	if t.items > 0 {
		s.percent = float32(progress / float64(t.items) * 100)
	}
	if secs := time.Since(t.started).Seconds(); secs > 0 {
		s.cps = uint64(float64(t.current) / secs)
	}
	return s
}
