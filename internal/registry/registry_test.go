package registry

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/krankdata/krank/internal/model"
)

const testRegistry = `
corpora:
  demo:
    title: Demo corpus
    description: A demo corpus.
    environment: lab
    probe: serial awakening
    citations:
      - "Demo citation (2020)."
    column_map:
      report: Text
      author: ID
      sex: Sex
    author_columns:
      - sex
    latest: "2"
    versions:
      "1":
        download_url: https://example.com/demo_v1.csv
        hash: md5:aaa111
      "2":
        download_url: https://example.com/demo_v2.csv
        hash: sha256:bbb222
      "10":
        download_url: https://example.com/demo_v10.csv
        hash: sha256:ccc333
  alpha:
    title: Alpha corpus
    description: Another corpus.
    column_map:
      report: Report
      author: Author
    latest: "1"
    versions:
      "1":
        download_url: https://example.com/alpha_v1.csv
        hash: sha256:ddd444
collections:
  lab:
    title: Lab corpora
    corpora:
      - demo
`

func mustParse(t *testing.T) *Store {
	t.Helper()
	store, err := Parse([]byte(testRegistry))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return store
}

func TestResolve_Latest(t *testing.T) {
	store := mustParse(t)

	meta, err := store.Resolve("demo", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if meta.Version != "2" {
		t.Errorf("Expected latest version 2, got %q", meta.Version)
	}
	if meta.DownloadURL != "https://example.com/demo_v2.csv" {
		t.Errorf("Unexpected download URL: %s", meta.DownloadURL)
	}
	if meta.Hash != "sha256:bbb222" {
		t.Errorf("Unexpected hash: %s", meta.Hash)
	}
	if meta.Name != "demo" {
		t.Errorf("Expected name demo, got %q", meta.Name)
	}
}

func TestResolve_ExplicitVersion(t *testing.T) {
	store := mustParse(t)

	meta, err := store.Resolve("demo", "1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if meta.Version != "1" {
		t.Errorf("Expected version 1, got %q", meta.Version)
	}
	if meta.Hash != "md5:aaa111" {
		t.Errorf("Unexpected hash: %s", meta.Hash)
	}
}

func TestResolve_UnknownCorpus(t *testing.T) {
	store := mustParse(t)

	_, err := store.Resolve("doesnotexist", "")
	var unknownErr *model.UnknownCorpusError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected UnknownCorpusError, got %v", err)
	}
	if unknownErr.Name != "doesnotexist" {
		t.Errorf("Unexpected name in error: %q", unknownErr.Name)
	}
}

func TestResolve_UnknownVersion(t *testing.T) {
	store := mustParse(t)

	_, err := store.Resolve("demo", "999")
	var unknownErr *model.UnknownVersionError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected UnknownVersionError, got %v", err)
	}
	if unknownErr.Version != "999" {
		t.Errorf("Unexpected version in error: %q", unknownErr.Version)
	}
}

func TestResolve_Memoized(t *testing.T) {
	store := mustParse(t)

	first, err := store.Resolve("demo", "1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := store.Resolve("demo", "1")
	if err != nil {
		t.Fatalf("Second resolve failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Resolved metadata mismatch (-first +second):\n%s", diff)
	}
	// Returned copies must be independent: mutating one must not leak.
	first.ColumnMap["report"] = "mutated"
	third, _ := store.Resolve("demo", "1")
	if third.ColumnMap["report"] != "Text" {
		t.Error("Mutation of a resolved copy leaked into the store")
	}
}

func TestListNames_Alphabetical(t *testing.T) {
	store := mustParse(t)

	want := []string{"alpha", "demo"}
	if diff := cmp.Diff(want, store.ListNames()); diff != "" {
		t.Errorf("ListNames mismatch (-want +got):\n%s", diff)
	}
}

func TestListVersions_NumericOrder(t *testing.T) {
	store := mustParse(t)

	versions, err := store.ListVersions("demo")
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	want := []string{"1", "2", "10"}
	if diff := cmp.Diff(want, versions); diff != "" {
		t.Errorf("ListVersions mismatch (-want +got):\n%s", diff)
	}
}

func TestListVersions_UnknownCorpus(t *testing.T) {
	store := mustParse(t)

	_, err := store.ListVersions("doesnotexist")
	var unknownErr *model.UnknownCorpusError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected UnknownCorpusError, got %v", err)
	}
}

func TestParse_RejectsBadLatest(t *testing.T) {
	bad := `
corpora:
  broken:
    title: Broken
    column_map:
      report: Text
      author: ID
    latest: "3"
    versions:
      "1":
        download_url: https://example.com/broken_v1.csv
        hash: md5:zzz
`
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatal("Expected error for latest not among versions")
	}
}

func TestEmbeddedRegistry_Loads(t *testing.T) {
	store, err := Load("")
	if err != nil {
		t.Fatalf("Load of embedded registry failed: %v", err)
	}
	names := store.ListNames()
	if len(names) == 0 {
		t.Fatal("Embedded registry has no corpora")
	}
	for _, name := range names {
		if _, err := store.Resolve(name, ""); err != nil {
			t.Errorf("Resolve(%q) failed: %v", name, err)
		}
	}
}

func TestCollections(t *testing.T) {
	store := mustParse(t)

	if diff := cmp.Diff([]string{"lab"}, store.ListCollections()); diff != "" {
		t.Errorf("ListCollections mismatch (-want +got):\n%s", diff)
	}
	corpora, err := store.CollectionCorpora("lab")
	if err != nil {
		t.Fatalf("CollectionCorpora failed: %v", err)
	}
	if diff := cmp.Diff([]string{"demo"}, corpora); diff != "" {
		t.Errorf("CollectionCorpora mismatch (-want +got):\n%s", diff)
	}
}
