package acquire

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teamcutter/aptcache/internal/domain"
)

// reporter serializes callbacks from parallel workers into the caller's
// Progress and keeps a panicking callback from taking the refresh down.
type reporter struct {
	mu     sync.Mutex
	p      domain.Progress
	log    logrus.FieldLogger
	failed []domain.FailedItem
}

func newReporter(p domain.Progress, log logrus.FieldLogger) *reporter {
	return &reporter{p: p, log: log}
}

func (r *reporter) call(event string, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithField("event", event).Errorf("progress callback panicked: %v", rec)
		}
	}()
	fn()
}

func (r *reporter) pulseInterval() time.Duration {
	var d time.Duration
	r.call("pulse_interval", func() { d = r.p.PulseInterval() })
	if d < 0 {
		d = 0
	}
	return d
}

func (r *reporter) start() {
	r.call("start", r.p.Start)
}

func (r *reporter) hit(id uint32, desc string) {
	r.call("hit", func() { r.p.Hit(id, desc) })
}

func (r *reporter) fetch(id uint32, desc string, size uint64) {
	r.call("fetch", func() { r.p.Fetch(id, desc, size) })
}

func (r *reporter) fail(id uint32, desc string, status uint32, text string) {
	r.call("fail", func() {
		if !domain.IsIgnorable(status) {
			r.failed = append(r.failed, domain.FailedItem{ID: id, Description: desc, Status: status, Text: text})
		}
		r.p.Fail(id, desc, status, text)
	})
}

func (r *reporter) pulse(s snapshot) {
	r.call("pulse", func() {
		r.p.Pulse(s.workers, s.percent, s.total, s.current, s.cps)
	})
}

func (r *reporter) done() {
	r.call("done", r.p.Done)
}

func (r *reporter) stop(fetched, elapsed, cps uint64, pending bool) {
	r.call("stop", func() { r.p.Stop(fetched, elapsed, cps, pending) })
}

func (r *reporter) failures() []domain.FailedItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.FailedItem(nil), r.failed...)
}
