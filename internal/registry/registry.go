// Package registry loads the corpus catalog and resolves names and
// versions to fully-populated corpus metadata.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"

	gocache "github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"

	"github.com/krankdata/krank/internal/model"
)

//go:embed data/registry.yaml
var embeddedRegistry []byte

// Store is the read-only corpus catalog. Loaded once and treated as
// immutable for the process lifetime; share a single Store by reference
// rather than reloading.
type Store struct {
	corpora     map[string]corpusEntry
	collections map[string]collectionEntry
	memo        *gocache.Cache // resolved name@version → model.CorpusMetadata
}

type registryFile struct {
	Corpora     map[string]corpusEntry     `yaml:"corpora"`
	Collections map[string]collectionEntry `yaml:"collections"`
}

type corpusEntry struct {
	Title            string                  `yaml:"title"`
	Description      string                  `yaml:"description"`
	Environment      string                  `yaml:"environment"`
	Probe            string                  `yaml:"probe"`
	Citations        []string                `yaml:"citations"`
	ColumnMap        map[string]string       `yaml:"column_map"`
	AuthorColumns    []string                `yaml:"author_columns"`
	IncludesNorecall bool                    `yaml:"includes_norecall"`
	Latest           string                  `yaml:"latest"`
	Versions         map[string]versionEntry `yaml:"versions"`
}

type versionEntry struct {
	DownloadURL string `yaml:"download_url"`
	Hash        string `yaml:"hash"`
	DOI         string `yaml:"doi"`
}

type collectionEntry struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Corpora     []string `yaml:"corpora"`
}

// Load reads the registry from the given YAML file, or the embedded
// default registry when path is empty.
func Load(path string) (*Store, error) {
	if path == "" {
		return Parse(embeddedRegistry)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(data)
}

// Parse builds a Store from registry YAML.
func Parse(data []byte) (*Store, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if len(file.Corpora) == 0 {
		return nil, fmt.Errorf("parse registry: no corpora defined")
	}
	for name, entry := range file.Corpora {
		if len(entry.Versions) == 0 {
			return nil, fmt.Errorf("parse registry: corpus %q has no versions", name)
		}
		if _, ok := entry.Versions[entry.Latest]; !ok {
			return nil, fmt.Errorf("parse registry: corpus %q latest %q not among its versions", name, entry.Latest)
		}
	}
	return &Store{
		corpora:     file.Corpora,
		collections: file.Collections,
		memo:        gocache.New(gocache.NoExpiration, 0),
	}, nil
}

// Resolve returns the metadata for name at the given version. An empty
// version selects the corpus's latest. The returned value is a copy and
// safe to hold.
func (s *Store) Resolve(name, version string) (*model.CorpusMetadata, error) {
	entry, ok := s.corpora[name]
	if !ok {
		return nil, &model.UnknownCorpusError{Name: name, Available: s.ListNames()}
	}
	if version == "" {
		version = entry.Latest
	}

	key := name + "@" + version
	if cached, found := s.memo.Get(key); found {
		meta := cached.(model.CorpusMetadata)
		return cloneMetadata(&meta), nil
	}

	ver, ok := entry.Versions[version]
	if !ok {
		available, _ := s.ListVersions(name)
		return nil, &model.UnknownVersionError{Name: name, Version: version, Available: available}
	}

	meta := model.CorpusMetadata{
		Name:             name,
		Title:            entry.Title,
		Description:      entry.Description,
		Environment:      entry.Environment,
		Probe:            entry.Probe,
		Citations:        append([]string(nil), entry.Citations...),
		ColumnMap:        copyMap(entry.ColumnMap),
		AuthorColumns:    append([]string(nil), entry.AuthorColumns...),
		IncludesNorecall: entry.IncludesNorecall,
		Version:          version,
		DownloadURL:      ver.DownloadURL,
		Hash:             ver.Hash,
		DOI:              ver.DOI,
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("registry entry invalid: %w", err)
	}

	s.memo.Set(key, meta, gocache.NoExpiration)
	return cloneMetadata(&meta), nil
}

// cloneMetadata deep-copies so callers can never mutate the memoized
// entry through a returned pointer.
func cloneMetadata(meta *model.CorpusMetadata) *model.CorpusMetadata {
	out := *meta
	out.Citations = append([]string(nil), meta.Citations...)
	out.ColumnMap = copyMap(meta.ColumnMap)
	out.AuthorColumns = append([]string(nil), meta.AuthorColumns...)
	return &out
}

// ListNames returns all corpus names, alphabetical.
func (s *Store) ListNames() []string {
	names := make([]string, 0, len(s.corpora))
	for name := range s.corpora {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListVersions returns the version identifiers for a corpus, oldest
// first. Numeric identifiers sort numerically, anything else sorts
// lexicographically after them.
func (s *Store) ListVersions(name string) ([]string, error) {
	entry, ok := s.corpora[name]
	if !ok {
		return nil, &model.UnknownCorpusError{Name: name, Available: s.ListNames()}
	}
	versions := make([]string, 0, len(entry.Versions))
	for v := range entry.Versions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versionLess(versions[i], versions[j])
	})
	return versions, nil
}

// ListCollections returns all collection names, alphabetical.
func (s *Store) ListCollections() []string {
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CollectionCorpora returns the corpus names belonging to a collection.
func (s *Store) CollectionCorpora(name string) ([]string, error) {
	entry, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", name)
	}
	out := append([]string(nil), entry.Corpora...)
	sort.Strings(out)
	return out, nil
}

func versionLess(a, b string) bool {
	na, aerr := strconv.Atoi(a)
	nb, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return na < nb
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
