package progress

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/teamcutter/aptcache/internal/domain"
)

func init() {
	color.NoColor = true
}

func TestTextLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewText(&buf, 0)

	p.Start()
	p.Hit(1, "http://deb.example.org stable InRelease")
	p.Fetch(2, "http://deb.example.org stable/main amd64 Packages", 1536)
	p.Fail(3, "http://deb.example.org stable/contrib amd64 Packages", domain.StatIdle, "not listed in Release")
	p.Fail(4, "http://other.example.org stable InRelease", domain.StatError, "404 Not Found")
	p.Done()
	p.Stop(1536, 2, 768, true)

	out := buf.String()
	assert.Contains(t, out, "Hit:1 http://deb.example.org stable InRelease\n")
	assert.Contains(t, out, "Get:2 http://deb.example.org stable/main amd64 Packages [1.54 KB]\n")
	assert.Contains(t, out, "Ign:3 http://deb.example.org stable/contrib amd64 Packages\n")
	assert.NotContains(t, out, "not listed in Release")
	assert.Contains(t, out, "Err:4 http://other.example.org stable InRelease\n  404 Not Found\n")
	assert.Contains(t, out, "Fetched 1.54 KB in 2s (768 B/s)")
	assert.Contains(t, out, "Some index files failed to download")
}

func TestTextShowIgnoredErrors(t *testing.T) {
	var buf bytes.Buffer
	p := NewText(&buf, 0)
	p.ShowIgnoredErrors = true

	p.Fail(1, "desc", domain.StatDone, "reason")
	assert.Equal(t, "Ign:1 desc\n  reason\n", buf.String())
}

func TestTextNothingFetched(t *testing.T) {
	var buf bytes.Buffer
	p := NewText(&buf, 0)

	p.Stop(0, 0, 0, false)
	assert.Equal(t, "All package lists are up to date.\n", buf.String())
}

func TestTextPulseBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewText(&buf, 0)

	workers := []domain.Worker{{ID: 2, Status: "Packages", CurrentSize: 10, TotalSize: 100}}
	p.Pulse(workers, 10, 100, 10, 5)
	p.Pulse(workers, 50, 200, 100, 5)
	assert.NotNil(t, p.bar)
	assert.Equal(t, uint64(200), p.barMax)

	p.Done()
	assert.Nil(t, p.bar)
}

func TestPulseDescription(t *testing.T) {
	d := pulseDescription([]domain.Worker{
		{ID: 1, Status: "InRelease"},
		{ID: 2},
		{ID: 3, Status: "Packages"},
	}, 42)
	assert.Equal(t, "42% [1 InRelease] [3 Packages]", d)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Start()
	r.Hit(1, "a")
	r.Pulse(nil, 0, 0, 0, 0)
	r.Done()
	r.Stop(0, 0, 0, false)

	assert.Equal(t, []string{"start", "hit", "done", "stop"}, r.Kinds())
	assert.Equal(t, 1, r.Pulses())
	assert.Equal(t, "hit 1 a", r.Events()[1].String())
}

func TestNopSatisfiesProgress(t *testing.T) {
	var p domain.Progress = Nop{}
	p.Start()
	p.Stop(0, 0, 0, false)
}
