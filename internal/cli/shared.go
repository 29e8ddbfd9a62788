package cli

import (
	"context"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/teamcutter/aptcache/internal/cache"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func withSpinner(ctx context.Context, w io.Writer, desc string) (stop func()) {
	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				spinner.Finish()
				return
			default:
				spinner.Add(1)
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()
	return func() {
		close(done)
		spinner.Finish()
	}
}

// lookup resolves a package argument, reporting a miss as an error.
func lookup(c *cache.Cache, name string) (cache.Package, error) {
	p, ok := c.Get(name)
	if !ok {
		return cache.Package{}, &notFoundError{name: name}
	}
	return p, nil
}

type notFoundError struct {
	name string
}

func (e *notFoundError) Error() string {
	return "unable to locate package " + e.name
}

// archiveOf names where the candidate comes from, e.g. "stable".
func archiveOf(v cache.Version) string {
	for _, f := range v.PackageFiles() {
		if f.Archive != "" && f.Archive != "now" {
			return f.Archive
		}
	}
	return "now"
}
