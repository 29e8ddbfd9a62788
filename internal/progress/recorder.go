package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/teamcutter/aptcache/internal/domain"
)

// Nop ignores every event.
type Nop struct{}

func (Nop) PulseInterval() time.Duration                           { return 0 }
func (Nop) Start()                                                 {}
func (Nop) Hit(uint32, string)                                     {}
func (Nop) Fetch(uint32, string, uint64)                           {}
func (Nop) Fail(uint32, string, uint32, string)                    {}
func (Nop) Pulse([]domain.Worker, float32, uint64, uint64, uint64) {}
func (Nop) Done()                                                  {}
func (Nop) Stop(uint64, uint64, uint64, bool)                      {}

type Event struct {
	Kind        string
	ID          uint32
	Description string
	Size        uint64
	Status      uint32
	Text        string

	FetchedBytes  uint64
	PendingErrors bool
}

func (e Event) String() string {
	switch e.Kind {
	case "hit":
		return fmt.Sprintf("hit %d %s", e.ID, e.Description)
	case "fetch":
		return fmt.Sprintf("fetch %d %s %d", e.ID, e.Description, e.Size)
	case "fail":
		return fmt.Sprintf("fail %d %s status=%d %s", e.ID, e.Description, e.Status, e.Text)
	case "stop":
		return fmt.Sprintf("stop fetched=%d pending=%t", e.FetchedBytes, e.PendingErrors)
	default:
		return e.Kind
	}
}

// Recorder keeps every non-pulse event in order. Pulses are only counted.
type Recorder struct {
	Interval time.Duration

	mu     sync.Mutex
	events []Event
	pulses int
}

func (r *Recorder) PulseInterval() time.Duration { return r.Interval }

func (r *Recorder) Start() { r.add(Event{Kind: "start"}) }

func (r *Recorder) Hit(id uint32, description string) {
	r.add(Event{Kind: "hit", ID: id, Description: description})
}

func (r *Recorder) Fetch(id uint32, description string, size uint64) {
	r.add(Event{Kind: "fetch", ID: id, Description: description, Size: size})
}

func (r *Recorder) Fail(id uint32, description string, status uint32, errorText string) {
	r.add(Event{Kind: "fail", ID: id, Description: description, Status: status, Text: errorText})
}

func (r *Recorder) Pulse([]domain.Worker, float32, uint64, uint64, uint64) {
	r.mu.Lock()
	r.pulses++
	r.mu.Unlock()
}

func (r *Recorder) Done() { r.add(Event{Kind: "done"}) }

func (r *Recorder) Stop(fetchedBytes, elapsedTime, currentCPS uint64, pendingErrors bool) {
	r.add(Event{Kind: "stop", FetchedBytes: fetchedBytes, PendingErrors: pendingErrors})
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Kinds() []string {
	var kinds []string
	for _, e := range r.Events() {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (r *Recorder) Pulses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pulses
}
