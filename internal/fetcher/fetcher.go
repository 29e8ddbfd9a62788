package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/teamcutter/aptcache/internal/domain"
	"github.com/teamcutter/aptcache/internal/logging"
	"github.com/teamcutter/aptcache/internal/version"
)

type Options struct {
	Timeout time.Duration
	Retries int
	// LimitKiB caps the combined download rate in KiB/s; 0 disables it.
	LimitKiB int
	Logger   logrus.FieldLogger
}

type HTTPFetcher struct {
	client    *retryablehttp.Client
	limiter   *rate.Limiter
	userAgent string
}

func New(opts Options) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.Retries
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 10 * time.Second
	client.HTTPClient.Timeout = opts.Timeout
	if opts.Logger != nil {
		client.Logger = logging.RetryLogger{Logger: opts.Logger}
	} else {
		client.Logger = nil
	}

	var limiter *rate.Limiter
	if opts.LimitKiB > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.LimitKiB*1024), 32*1024)
	}

	return &HTTPFetcher{
		client:    client,
		limiter:   limiter,
		userAgent: version.UserAgent(),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req domain.FetchRequest) domain.FetchResult {
	u, err := url.Parse(req.URI)
	if err != nil {
		return domain.FetchResult{URI: req.URI, Error: err}
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, req)
	case "file":
		return f.fetchFile(ctx, req, u.Path)
	default:
		return domain.FetchResult{URI: req.URI, Error: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
}

func (f *HTTPFetcher) fetchHTTP(ctx context.Context, req domain.FetchRequest) domain.FetchResult {
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, req.URI, nil)
	if err != nil {
		return domain.FetchResult{URI: req.URI, Error: err}
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	if req.ETag != "" {
		httpReq.Header.Set("If-None-Match", req.ETag)
	}
	if req.LastModified != "" {
		httpReq.Header.Set("If-Modified-Since", req.LastModified)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return domain.FetchResult{URI: req.URI, Error: err}
	}
	defer resp.Body.Close()

	result := domain.FetchResult{
		URI:          req.URI,
		StatusCode:   resp.StatusCode,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}

	if resp.StatusCode == http.StatusNotModified {
		result.NotModified = true
		return result
	}

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return result
	}

	size, sum, err := f.copyTo(ctx, req, resp.Body)
	if err != nil {
		result.Error = err
		return result
	}

	result.Path = req.Dest
	result.Size = size
	result.SHA256 = sum
	return result
}

func (f *HTTPFetcher) fetchFile(ctx context.Context, req domain.FetchRequest, path string) domain.FetchResult {
	result := domain.FetchResult{URI: req.URI}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.StatusCode = http.StatusNotFound
		result.Error = fmt.Errorf("%d %s", http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return result
	}
	if err != nil {
		result.Error = err
		return result
	}

	result.StatusCode = http.StatusOK
	result.LastModified = info.ModTime().UTC().Format(http.TimeFormat)
	if req.LastModified != "" && req.LastModified == result.LastModified {
		result.StatusCode = http.StatusNotModified
		result.NotModified = true
		return result
	}

	src, err := os.Open(path)
	if err != nil {
		result.Error = err
		return result
	}
	defer src.Close()

	size, sum, err := f.copyTo(ctx, req, src)
	if err != nil {
		result.Error = err
		return result
	}

	result.Path = req.Dest
	result.Size = size
	result.SHA256 = sum
	return result
}

func (f *HTTPFetcher) copyTo(ctx context.Context, req domain.FetchRequest, body io.Reader) (int64, string, error) {
	if err := os.MkdirAll(filepath.Dir(req.Dest), 0755); err != nil {
		return 0, "", err
	}

	file, err := os.Create(req.Dest)
	if err != nil {
		return 0, "", err
	}
	defer file.Close()

	if f.limiter != nil {
		body = &limitedReader{ctx: ctx, r: body, lim: f.limiter}
	}

	h := sha256.New()
	w := io.MultiWriter(file, h, progressWriter(req.OnProgress))

	n, err := io.Copy(w, &contextReader{ctx: ctx, r: body})
	if err != nil {
		os.Remove(req.Dest)
		return n, "", err
	}

	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// FileSHA256 hashes the file at path.
func FileSHA256(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	return ReaderSHA256(f)
}

func ReaderSHA256(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashingWriter tees writes into a sha256 digest and counts them.
type HashingWriter struct {
	h hash.Hash
	n int64
}

func NewHashingWriter() *HashingWriter {
	return &HashingWriter{h: sha256.New()}
}

func (w *HashingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return w.h.Write(p)
}

func (w *HashingWriter) Sum() string {
	return hex.EncodeToString(w.h.Sum(nil))
}

func (w *HashingWriter) Size() int64 {
	return w.n
}

type progressWriter func(n int64)

func (p progressWriter) Write(b []byte) (int, error) {
	if p != nil {
		p(int64(len(b)))
	}
	return len(b), nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type limitedReader struct {
	ctx context.Context
	r   io.Reader
	lim *rate.Limiter
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if b := l.lim.Burst(); len(p) > b {
		p = p[:b]
	}
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.lim.WaitN(l.ctx, n); werr != nil && !errors.Is(err, io.EOF) {
			return n, werr
		}
	}
	return n, err
}
