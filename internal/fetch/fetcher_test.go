package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/krankdata/krank/internal/model"
)

const testBody = "ID,Text\n1,hello\n2,world\n"

func sha256Of(s string) string {
	sum := sha256.Sum256([]byte(s))
	return "sha256:" + hex.EncodeToString(sum[:])
}

func newTestFetcher(cacheDir string) *Fetcher {
	cfg := model.HTTPConfig{
		Timeout:           5 * time.Second,
		UserAgent:         "krank-test",
		MaxBodyBytes:      1 << 20,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}
	return New(cfg, cacheDir)
}

func TestFetch_DownloadsAndCaches(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, testBody)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t.TempDir())
	path, err := fetcher.Fetch(context.Background(), server.URL, sha256Of(testBody), "demo_v1.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Read cached file: %v", err)
	}
	if string(data) != testBody {
		t.Errorf("Cached content mismatch: %q", data)
	}

	// Second fetch must be served from cache.
	again, err := fetcher.Fetch(context.Background(), server.URL, sha256Of(testBody), "demo_v1.csv")
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}
	if again != path {
		t.Errorf("Expected same cache path, got %q and %q", path, again)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 server hit, got %d", hits.Load())
	}
}

func TestFetch_RedownloadsCorruptedCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, testBody)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	corrupted := filepath.Join(cacheDir, "demo_v1.csv")
	if err := os.WriteFile(corrupted, []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}

	fetcher := newTestFetcher(cacheDir)
	path, err := fetcher.Fetch(context.Background(), server.URL, sha256Of(testBody), "demo_v1.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != testBody {
		t.Errorf("Corrupted cache was not replaced, content: %q", data)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 server hit, got %d", hits.Load())
	}
}

func TestFetch_IntegrityError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "not the expected content")
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	fetcher := newTestFetcher(cacheDir)
	_, err := fetcher.Fetch(context.Background(), server.URL, sha256Of(testBody), "demo_v1.csv")
	var integrityErr *model.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("Expected IntegrityError, got %v", err)
	}
	if integrityErr.URL != server.URL {
		t.Errorf("IntegrityError missing URL, got %q", integrityErr.URL)
	}
	// Nothing may be installed into the cache on failure.
	if _, err := os.Stat(filepath.Join(cacheDir, "demo_v1.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Error("Unverified file was installed into the cache")
	}
}

func TestFetch_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, testBody)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := newTestFetcher(t.TempDir())
	_, err := fetcher.Fetch(context.Background(), server.URL, sha256Of(testBody), "demo_v1.csv")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetch_PermanentFailureNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := newTestFetcher(t.TempDir())
	_, err := fetcher.Fetch(context.Background(), server.URL, sha256Of(testBody), "demo_v1.csv")
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt for 404, got %d", attempts.Load())
	}
}

func TestParseHash(t *testing.T) {
	tests := []struct {
		in       string
		algo     string
		digest   string
		wantErr  bool
	}{
		{"sha256:ABCDEF", "sha256", "abcdef", false},
		{"md5:0011", "md5", "0011", false},
		{"abcdef", "", "", true},
		{"sha1:abcdef", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			algo, digest, err := ParseHash(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHash(%q) failed: %v", tt.in, err)
			}
			if algo != tt.algo || digest != tt.digest {
				t.Errorf("ParseHash(%q) = %q, %q; want %q, %q", tt.in, algo, digest, tt.algo, tt.digest)
			}
		})
	}
}

func TestVerifyFile_MD5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.csv")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	// md5("hello")
	if err := VerifyFile(path, "md5:5d41402abc4b2a76b9719d911017c592"); err != nil {
		t.Errorf("VerifyFile failed on matching md5: %v", err)
	}
	err := VerifyFile(path, "md5:00000000000000000000000000000000")
	var integrityErr *model.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Errorf("Expected IntegrityError on mismatch, got %v", err)
	}
}
