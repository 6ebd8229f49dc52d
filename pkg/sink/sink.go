// Package sink writes expansion results to an output directory.
//
// The merged root is serialized as CapabilityStatement-{id}.json (the id
// already carries the -expanded suffix); every collected resource is copied
// byte-for-byte from its origin file, preserving its relative path.
package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/gofhir/expander/pkg/expand"
)

// Report summarizes what a Write produced.
type Report struct {
	// MergedFile is the path of the serialized merged root.
	MergedFile string

	// Copied counts resource files copied into the output directory.
	Copied int

	// Skipped counts resources without an origin file (built in memory).
	Skipped int
}

// Sink writes results under one output directory.
type Sink struct {
	dir   string
	clean bool
}

// New creates a Sink for dir. With clean set, the directory is emptied
// before the first write.
func New(dir string, clean bool) *Sink {
	return &Sink{dir: dir, clean: clean}
}

// Write persists a result: the merged root document plus a copy of every
// collected resource file.
func (s *Sink) Write(result *expand.Result) (*Report, error) {
	if s.clean {
		if err := os.RemoveAll(s.dir); err != nil {
			return nil, fmt.Errorf("clean output directory %q: %w", s.dir, err)
		}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", s.dir, err)
	}

	report := &Report{}

	mergedFile, err := s.writeMerged(result)
	if err != nil {
		return nil, err
	}
	report.MergedFile = mergedFile

	for _, res := range result.Resources {
		if res.Origin == "" {
			report.Skipped++
			continue
		}
		rel := res.Rel
		if rel == "" {
			rel = filepath.Base(res.Origin)
		}
		if err := s.copyFile(res.Origin, filepath.Join(s.dir, rel)); err != nil {
			return nil, err
		}
		report.Copied++
	}

	log.Info().Str("merged", report.MergedFile).Int("copied", report.Copied).
		Msg("expansion written")
	return report, nil
}

// writeMerged serializes the merged root with two-space indentation.
func (s *Sink) writeMerged(result *expand.Result) (string, error) {
	merged := result.Merged
	data, err := json.MarshalIndent(merged.Data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize merged document: %w", err)
	}

	name := fmt.Sprintf("%s-%s.json", merged.Type, merged.ID)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write merged document: %w", err)
	}
	return path, nil
}

func (s *Sink) copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %q: %w", filepath.Dir(dst), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %q: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %q: %w", src, err)
	}
	return out.Close()
}
