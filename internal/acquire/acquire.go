package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/teamcutter/aptcache/internal/decompress"
	"github.com/teamcutter/aptcache/internal/domain"
	"github.com/teamcutter/aptcache/internal/fetcher"
	"github.com/teamcutter/aptcache/internal/logging"
	"github.com/teamcutter/aptcache/internal/progress"
	"github.com/teamcutter/aptcache/internal/release"
)

type Options struct {
	MaxParallel int
	Logger      logrus.FieldLogger
}

// Acquire refreshes the index files of the configured sources and drives
// a domain.Progress through the whole run.
type Acquire struct {
	fetcher  domain.Fetcher
	lists    domain.ListStore
	state    domain.StateStore
	log      logrus.FieldLogger
	parallel int
}

// New builds an Acquire. state may be nil, in which case no conditional
// requests are made.
func New(f domain.Fetcher, lists domain.ListStore, state domain.StateStore, opts Options) *Acquire {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	parallel := opts.MaxParallel
	if parallel <= 0 {
		parallel = 1
	}

	return &Acquire{
		fetcher:  f,
		lists:    lists,
		state:    state,
		log:      log,
		parallel: parallel,
	}
}

type item struct {
	id     uint32
	target domain.IndexTarget
}

type outcome struct {
	hit    bool
	size   uint64
	status uint32
	err    error
}

func fetched(size int64) outcome {
	return outcome{size: uint64(size)}
}

func failed(status uint32, err error) outcome {
	return outcome{status: status, err: err}
}

type run struct {
	*Acquire
	rep *reporter
	tr  *tracker
	// pulseEach is set when the caller wants a pulse for every chunk.
	pulseEach bool

	mu       sync.Mutex
	releases map[string]*release.Release
}

// Run fetches every target. Release files go first so that package
// indexes can be checked against them. It returns a *domain.FetchError when
// the run could not start or when any item failed hard.
func (a *Acquire) Run(ctx context.Context, targets []domain.IndexTarget, p domain.Progress) error {
	if len(targets) == 0 {
		return &domain.FetchError{Err: domain.ErrNoSources}
	}
	if p == nil {
		p = progress.Nop{}
	}

	var relItems, pkgItems []item
	for i, t := range targets {
		it := item{id: uint32(i + 1), target: t}
		if t.Kind == domain.TargetRelease {
			relItems = append(relItems, it)
		} else {
			pkgItems = append(pkgItems, it)
		}
	}

	rep := newReporter(p, a.log)
	interval := rep.pulseInterval()
	r := &run{
		Acquire:   a,
		rep:       rep,
		tr:        newTracker(len(targets)),
		pulseEach: interval == 0,
		releases:  make(map[string]*release.Release),
	}

	started := time.Now()
	rep.start()

	pulseCtx, stopPulse := context.WithCancel(context.Background())
	var pulses sync.WaitGroup
	if interval > 0 {
		pulses.Add(1)
		go func() {
			defer pulses.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-pulseCtx.Done():
					return
				case <-ticker.C:
					rep.pulse(r.tr.snapshot())
				}
			}
		}()
	}

	r.phase(ctx, relItems, r.fetchRelease)
	r.phase(ctx, pkgItems, r.fetchIndex)

	stopPulse()
	pulses.Wait()
	rep.done()

	elapsed := time.Since(started)
	total := r.tr.fetchedBytes()
	var cps uint64
	if secs := elapsed.Seconds(); secs > 0 {
		cps = uint64(float64(total) / secs)
	}
	fails := rep.failures()
	rep.stop(total, uint64(elapsed/time.Second), cps, len(fails) > 0)

	a.prune(targets)

	if len(fails) > 0 {
		return &domain.FetchError{Items: fails}
	}
	return nil
}

func (r *run) phase(ctx context.Context, items []item, fn func(context.Context, item) outcome) {
	if len(items) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(items), r.parallel))

	for _, it := range items {
		g.Go(func() error {
			r.report(it, r.guard(gctx, it, fn))
			return nil
		})
	}
	_ = g.Wait()
}

func (r *run) guard(ctx context.Context, it item, fn func(context.Context, item) outcome) (out outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithFields(logging.TargetFields(it.target.URI, it.target.Filename)).Errorf("fetch panicked: %v", rec)
			out = failed(domain.StatError, fmt.Errorf("internal error: %v", rec))
		}
	}()
	return fn(ctx, it)
}

func (r *run) report(it item, out outcome) {
	desc := it.target.Description
	switch {
	case out.hit:
		r.tr.finish(it.id, 0)
		r.rep.hit(it.id, desc)
	case out.err == nil:
		r.tr.finish(it.id, out.size)
		r.rep.fetch(it.id, desc, out.size)
	default:
		r.tr.finish(it.id, 0)
		r.rep.fail(it.id, desc, out.status, out.err.Error())
	}
}

func (r *run) fetchRelease(ctx context.Context, it item) outcome {
	t := it.target
	log := r.log.WithFields(logging.TargetFields(t.URI, t.Filename))

	rec := r.record(t.URI)
	conditional := rec != nil && r.lists.Has(t.Filename)

	res, tmp := r.download(ctx, it, t.URI, "InRelease", 0, rec, conditional)
	if res.StatusCode == http.StatusNotFound && strings.HasSuffix(t.URI, "/InRelease") {
		log.Debug("InRelease missing, trying Release")
		res, tmp = r.download(ctx, it, strings.TrimSuffix(t.URI, "InRelease")+"Release", "Release", 0, nil, false)
	}

	if res.NotModified {
		rel, err := release.Load(r.lists.Path(t.Filename))
		if err == nil {
			r.setRelease(t.Filename, rel)
			return outcome{hit: true}
		}
		log.WithError(err).Warn("cached release file unreadable, fetching again")
		res, tmp = r.download(ctx, it, t.URI, "InRelease", 0, nil, false)
	}

	if res.Error != nil {
		return failed(classify(ctx, res), res.Error)
	}

	if r.unchanged(t.Filename, rec, res.SHA256) {
		os.Remove(tmp)
		if rel, err := release.Load(r.lists.Path(t.Filename)); err == nil {
			r.setRelease(t.Filename, rel)
			return outcome{hit: true}
		}
		return failed(domain.StatError, errors.New("cached release file unreadable"))
	}

	rel, err := release.Load(tmp)
	if err != nil {
		os.Remove(tmp)
		return failed(domain.StatError, fmt.Errorf("invalid release file: %w", err))
	}
	if _, err := r.lists.Store(t.Filename, tmp); err != nil {
		os.Remove(tmp)
		return failed(domain.StatError, err)
	}

	r.remember(&domain.FetchRecord{
		URI:          t.URI,
		Filename:     t.Filename,
		ETag:         res.ETag,
		LastModified: res.LastModified,
		SHA256:       res.SHA256,
		Size:         res.Size,
	})
	r.setRelease(t.Filename, rel)
	return fetched(res.Size)
}

// unchanged reports whether a downloaded file matches the stored list
// file, by the fetch record when there is one and by hashing the list file
// otherwise.
func (r *run) unchanged(filename string, rec *domain.FetchRecord, sha string) bool {
	if !r.lists.Has(filename) {
		return false
	}
	if rec != nil {
		return rec.SHA256 == sha
	}
	sum, _, err := fetcher.FileSHA256(r.lists.Path(filename))
	return err == nil && sum == sha
}

func (r *run) fetchIndex(ctx context.Context, it item) outcome {
	t := it.target
	log := r.log.WithFields(logging.TargetFields(t.URI, t.Filename))

	rel := r.release(t.ReleaseFilename)
	if rel == nil {
		return failed(domain.StatIdle, errors.New("no usable Release file for this index"))
	}

	variants := rel.Variants(t.MetaKey)
	if len(variants) == 0 {
		if err := r.lists.Remove(t.Filename); err != nil {
			log.WithError(err).Warn("removing unlisted index")
		}
		return failed(domain.StatIdle, fmt.Errorf("%s is not listed in the Release file", t.MetaKey))
	}

	if r.upToDate(t, rel, variants) {
		return outcome{hit: true}
	}

	base := strings.TrimSuffix(t.URI, t.MetaKey)
	var last outcome
	for _, v := range variants {
		res, tmp := r.download(ctx, it, base+v.Path, path.Base(v.Path), uint64(v.Size), nil, false)
		if res.Error != nil {
			last = failed(classify(ctx, res), res.Error)
			if res.StatusCode == http.StatusNotFound {
				log.WithField("variant", v.Path).Debug("variant missing, trying next")
				continue
			}
			return last
		}

		if res.SHA256 != v.SHA256 || res.Size != v.Size {
			os.Remove(tmp)
			return failed(domain.StatError, errors.New("hash sum mismatch"))
		}

		if err := r.install(t, rel, tmp); err != nil {
			return failed(domain.StatError, err)
		}

		r.remember(&domain.FetchRecord{
			URI:          t.URI,
			Filename:     t.Filename,
			ETag:         res.ETag,
			LastModified: res.LastModified,
			SHA256:       v.SHA256,
			Size:         res.Size,
		})
		return fetched(res.Size)
	}
	return last
}

// upToDate reports whether the local copy of t already matches rel.
func (r *run) upToDate(t domain.IndexTarget, rel *release.Release, variants []release.FileHash) bool {
	if !r.lists.Has(t.Filename) {
		return false
	}

	if h, ok := rel.Lookup(t.MetaKey); ok {
		sum, size, err := fetcher.FileSHA256(r.lists.Path(t.Filename))
		return err == nil && sum == h.SHA256 && size == h.Size
	}

	rec := r.record(t.URI)
	if rec == nil {
		return false
	}
	for _, v := range variants {
		if v.SHA256 == rec.SHA256 {
			return true
		}
	}
	return false
}

// install decompresses a verified download into the lists directory.
func (r *run) install(t domain.IndexTarget, rel *release.Release, tmp string) error {
	defer os.Remove(tmp)

	src, err := decompress.OpenFile(tmp)
	if err != nil {
		return fmt.Errorf("opening download: %w", err)
	}
	defer src.Close()

	out, err := r.lists.Create(t.Filename)
	if err != nil {
		return err
	}

	hw := fetcher.NewHashingWriter()
	_, err = io.Copy(io.MultiWriter(out, hw), src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out.Name())
		return fmt.Errorf("decompressing index: %w", err)
	}

	if h, ok := rel.Lookup(t.MetaKey); ok && (hw.Sum() != h.SHA256 || hw.Size() != h.Size) {
		os.Remove(out.Name())
		return errors.New("hash sum mismatch after decompression")
	}

	if _, err := r.lists.Store(t.Filename, out.Name()); err != nil {
		os.Remove(out.Name())
		return err
	}
	return nil
}

// download fetches uri into a fresh partial file. The returned path is
// only meaningful when the result carries no error and is not NotModified.
func (r *run) download(ctx context.Context, it item, uri, status string, size uint64, rec *domain.FetchRecord, conditional bool) (domain.FetchResult, string) {
	tmp, err := r.lists.Create(it.target.Filename)
	if err != nil {
		return domain.FetchResult{URI: uri, Error: err}, ""
	}
	dest := tmp.Name()
	tmp.Close()

	r.tr.begin(it.id, it.target.Description, status, size)

	req := domain.FetchRequest{
		URI:  uri,
		Dest: dest,
		OnProgress: func(n int64) {
			r.tr.advance(it.id, n)
			if r.pulseEach {
				r.rep.pulse(r.tr.snapshot())
			}
		},
	}
	if conditional && rec != nil {
		req.ETag = rec.ETag
		req.LastModified = rec.LastModified
	}

	res := r.fetcher.Fetch(ctx, req)
	if res.Error != nil || res.NotModified {
		os.Remove(dest)
	}
	return res, dest
}

func (r *run) setRelease(filename string, rel *release.Release) {
	r.mu.Lock()
	r.releases[filename] = rel
	r.mu.Unlock()
}

func (r *run) release(filename string) *release.Release {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releases[filename]
}

func (a *Acquire) record(uri string) *domain.FetchRecord {
	if a.state == nil {
		return nil
	}
	rec, err := a.state.Get(uri)
	if err != nil {
		a.log.WithError(err).WithField("uri", uri).Warn("reading fetch state")
		return nil
	}
	return rec
}

func (a *Acquire) remember(rec *domain.FetchRecord) {
	if a.state == nil {
		return
	}
	if err := a.state.Put(rec); err != nil {
		a.log.WithError(err).WithField("uri", rec.URI).Warn("saving fetch state")
	}
}

// prune drops list files and fetch records for targets no longer configured.
func (a *Acquire) prune(targets []domain.IndexTarget) {
	keep := make(map[string]bool, len(targets))
	for _, t := range targets {
		keep[t.Filename] = true
	}

	removed, err := a.lists.Prune(keep)
	if err != nil {
		a.log.WithError(err).Warn("pruning lists")
	}
	for _, name := range removed {
		a.log.WithField("filename", name).Info("removed stale list")
	}

	if a.state == nil {
		return
	}
	recs, err := a.state.List()
	if err != nil {
		a.log.WithError(err).Warn("listing fetch state")
		return
	}
	for _, rec := range recs {
		if keep[rec.Filename] {
			continue
		}
		if err := a.state.Remove(rec.URI); err != nil {
			a.log.WithError(err).WithField("uri", rec.URI).Warn("removing fetch state")
		}
	}
}

func classify(ctx context.Context, res domain.FetchResult) uint32 {
	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return domain.StatAuthError
	case res.StatusCode == 0 && ctx.Err() == nil:
		return domain.StatTransientNetworkError
	default:
		return domain.StatError
	}
}
