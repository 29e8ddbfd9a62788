package progress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/teamcutter/aptcache/internal/domain"
	"github.com/teamcutter/aptcache/internal/units"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Text prints apt-style item lines ("Hit:1", "Get:2", "Ign:3", "Err:4")
// and draws a byte progress bar from pulses.
type Text struct {
	// ShowIgnoredErrors prints the error text under "Ign" lines too.
	ShowIgnoredErrors bool

	out      io.Writer
	interval time.Duration
	bar      *progressbar.ProgressBar
	barMax   uint64
}

func NewText(out io.Writer, interval time.Duration) *Text {
	return &Text{out: out, interval: interval}
}

func (t *Text) PulseInterval() time.Duration {
	return t.interval
}

func (t *Text) Start() {}

func (t *Text) Hit(id uint32, description string) {
	t.line("%s %s", dim(fmt.Sprintf("Hit:%d", id)), description)
}

func (t *Text) Fetch(id uint32, description string, size uint64) {
	if size > 0 {
		t.line("%s %s [%s]", green(fmt.Sprintf("Get:%d", id)), description, units.Str(size, units.Decimal))
		return
	}
	t.line("%s %s", green(fmt.Sprintf("Get:%d", id)), description)
}

func (t *Text) Fail(id uint32, description string, status uint32, errorText string) {
	if domain.IsIgnorable(status) {
		t.line("%s %s", yellow(fmt.Sprintf("Ign:%d", id)), description)
		if t.ShowIgnoredErrors && errorText != "" {
			t.line("  %s", errorText)
		}
		return
	}

	t.line("%s %s", red(fmt.Sprintf("Err:%d", id)), description)
	if errorText != "" {
		t.line("  %s", errorText)
	}
}

func (t *Text) Pulse(workers []domain.Worker, percent float32, totalBytes, currentBytes, currentCPS uint64) {
	if totalBytes == 0 {
		return
	}

	if t.bar == nil {
		t.bar = progressbar.NewOptions64(int64(totalBytes),
			progressbar.OptionSetWriter(t.out),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
		t.barMax = totalBytes
	} else if totalBytes != t.barMax {
		t.bar.ChangeMax64(int64(totalBytes))
		t.barMax = totalBytes
	}

	t.bar.Describe(pulseDescription(workers, percent))
	t.bar.Set64(int64(min(currentBytes, totalBytes)))
}

func pulseDescription(workers []domain.Worker, percent float32) string {
	parts := []string{fmt.Sprintf("%.0f%%", percent)}
	for _, w := range workers {
		if w.Status == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%d %s]", w.ID, w.Status))
		if len(parts) > 3 {
			break
		}
	}
	return strings.Join(parts, " ")
}

func (t *Text) Done() {
	t.clearBar()
}

func (t *Text) Stop(fetchedBytes, elapsedTime, currentCPS uint64, pendingErrors bool) {
	t.clearBar()

	if fetchedBytes == 0 {
		t.line("%s", bold("All package lists are up to date."))
	} else {
		t.line("Fetched %s in %s (%s/s)",
			units.Str(fetchedBytes, units.Decimal),
			units.Time(elapsedTime),
			units.Str(currentCPS, units.Decimal))
	}

	if pendingErrors {
		t.line("%s", red("W: Some index files failed to download. They have been ignored, or old ones used instead."))
	}
}

func (t *Text) clearBar() {
	if t.bar == nil {
		return
	}
	t.bar.Finish()
	t.bar = nil
	t.barMax = 0
}

func (t *Text) line(format string, args ...any) {
	if t.bar != nil {
		t.bar.Clear()
	}
	fmt.Fprintf(t.out, format+"\n", args...)
}
