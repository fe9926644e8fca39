// Package fetch downloads corpus files into a local cache and verifies
// their content hashes. The cache is append-once: a file is installed
// only after its digest matches the registry, so cached content can be
// read concurrently without locking.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/krankdata/krank/internal/model"
)

const fetchMaxRetries = 3

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// Fetcher downloads remote corpus files with hash verification and an
// on-disk cache.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	cacheDir   string
	limiter    *hostLimiter
}

// New creates a Fetcher that caches under cacheDir.
func New(cfg model.HTTPConfig, cacheDir string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: newProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		cacheDir:  cacheDir,
		limiter:   newHostLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}
}

// CacheDir returns the cache root.
func (f *Fetcher) CacheDir() string {
	return f.cacheDir
}

// Fetch returns the local path of the file for rawURL, downloading only
// when the cached copy is absent or no longer matches wantHash. The hash
// is verified on every access; a mismatch after download is an
// IntegrityError and is not retried here.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, wantHash, filename string) (string, error) {
	path := filepath.Join(f.cacheDir, filename)

	if _, err := os.Stat(path); err == nil {
		err := VerifyFile(path, wantHash)
		if err == nil {
			return path, nil
		}
		var integrityErr *model.IntegrityError
		if !errors.As(err, &integrityErr) {
			return "", err // unreadable file or bad hash spec
		}
		// Stale or corrupted cache entry: fall through and re-download.
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat cache file: %w", err)
	}

	tmp, err := f.downloadWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if err := VerifyFile(tmp, wantHash); err != nil {
		_ = os.Remove(tmp)
		var integrityErr *model.IntegrityError
		if errors.As(err, &integrityErr) {
			integrityErr.URL = rawURL
		}
		return "", err
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("install cache file: %w", err)
	}
	return path, nil
}

// downloadWithRetry retries transient failures with exponential backoff.
// Integrity failures are never retried; only network-level errors and
// retryable HTTP statuses are.
func (f *Fetcher) downloadWithRetry(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		tmp, err := f.download(ctx, rawURL)
		if err == nil {
			return tmp, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return "", err
		}
		if attempt < fetchMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			fetchSleepFunc(backoff)
		}
	}
	return "", lastErr
}

// download streams the URL into a temp file in the cache directory and
// returns the temp path.
func (f *Fetcher) download(ctx context.Context, rawURL string) (string, error) {
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv,text/plain,application/octet-stream;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(f.cacheDir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	_, err = io.Copy(tmp, io.LimitReader(resp.Body, f.maxBytes))
	closeErr := tmp.Close()
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("read body: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", closeErr)
	}
	return tmp.Name(), nil
}

// isRetryableFetchError returns true for transient failures worth retrying.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "unexpected status:") {
		return strings.Contains(s, "unexpected status: 5") ||
			strings.Contains(s, "unexpected status: 429")
	}
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
