// Package store loads FHIR resources from an input directory tree.
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gofhir/expander/pkg/resource"
)

// Snapshot is the result of scanning an input directory once.
type Snapshot struct {
	// Resources holds every successfully parsed document, in sorted
	// path order.
	Resources []*resource.Resource

	// Invalid counts files that did not parse as FHIR resources.
	Invalid int
}

// Store reads resources from a directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the input directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load walks the directory recursively, parsing every *.json file.
// Files that are not FHIR resources are skipped and counted, never fatal.
func (s *Store) Load() (*Snapshot, error) {
	root, err := filepath.Abs(s.dir)
	if err != nil {
		return nil, fmt.Errorf("resolve input directory %q: %w", s.dir, err)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan input directory %q: %w", s.dir, err)
	}
	sort.Strings(paths)

	snapshot := &Snapshot{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Str("file", path).Err(err).Msg("cannot read file, skipping")
			snapshot.Invalid++
			continue
		}

		res, err := resource.Parse(data, path)
		if err != nil {
			log.Warn().Str("file", path).Err(err).Msg("not a FHIR resource, skipping")
			snapshot.Invalid++
			continue
		}

		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			res.Rel = rel
		}
		snapshot.Resources = append(snapshot.Resources, res)
	}

	log.Info().Int("resources", len(snapshot.Resources)).Int("invalid", snapshot.Invalid).
		Str("dir", s.dir).Msg("input snapshot loaded")
	return snapshot, nil
}
