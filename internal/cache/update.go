package cache

import (
	"context"
	"errors"

	"github.com/teamcutter/aptcache/internal/acquire"
	"github.com/teamcutter/aptcache/internal/domain"
	"github.com/teamcutter/aptcache/internal/fetcher"
	"github.com/teamcutter/aptcache/internal/lists"
	"github.com/teamcutter/aptcache/internal/state"
)

var ErrUpdateInProgress = errors.New("an update is already running on this cache")

// Update refreshes the package lists of every configured source, reporting
// through p. It blocks until the run has finished and does not change c:
// call Reopen to see the new lists. Errors are *domain.FetchError.
func (c *Cache) Update(ctx context.Context, p domain.Progress) error {
	if !c.updating.TryLock() {
		return &domain.FetchError{Err: ErrUpdateInProgress}
	}
	defer c.updating.Unlock()

	if len(c.targets) == 0 {
		return &domain.FetchError{Err: domain.ErrNoSources}
	}

	dir, err := lists.New(c.cfg.ListsDir)
	if err != nil {
		return &domain.FetchError{Err: err}
	}

	var st domain.StateStore
	if c.cfg.StateDB != "" {
		db, err := state.NewSQLite(c.cfg.StateDB)
		if err != nil {
			c.log.WithError(err).Warn("fetch state unavailable, conditional requests disabled")
		} else {
			defer db.Close()
			st = db
		}
	}

	f := fetcher.New(fetcher.Options{
		Timeout:  c.cfg.Timeout,
		Retries:  c.cfg.Retries,
		LimitKiB: c.cfg.DownloadLimit,
		Logger:   c.log,
	})

	acq := acquire.New(f, dir, st, acquire.Options{
		MaxParallel: c.cfg.MaxParallel,
		Logger:      c.log,
	})
	return acq.Run(ctx, c.targets, p)
}
