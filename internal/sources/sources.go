package sources

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceSpec describes one entity whose third-party dependencies must be
// attributed. Name doubles as the subdirectory name in the staging tree.
type SourceSpec struct {
	Name              string   `yaml:"name"`
	Origin            string   `yaml:"origin"`
	PinnedRevision    string   `yaml:"revision"`
	ManifestPath      string   `yaml:"manifest"`
	ExtraLicenseFiles []string `yaml:"license-files"`
}

// ProjectSpec names the primary project's own manifest and license files.
// Its license files land at the top of the staging tree, not in a per-source
// subdirectory.
type ProjectSpec struct {
	Dir          string   `yaml:"dir"`
	ManifestPath string   `yaml:"manifest"`
	LicenseFiles []string `yaml:"license-files"`
}

// File is the parsed sources file: the primary project plus the ordered
// vendored sources to scan. Order only affects log/output determinism.
type File struct {
	Project ProjectSpec  `yaml:"project"`
	Sources []SourceSpec `yaml:"sources"`
}

// Remote reports whether the origin is a repository URL rather than a local
// path.
func (s *SourceSpec) Remote() bool {
	return strings.HasPrefix(s.Origin, "http://") ||
		strings.HasPrefix(s.Origin, "https://") ||
		strings.HasPrefix(s.Origin, "ssh://") ||
		strings.HasPrefix(s.Origin, "file://") ||
		strings.HasPrefix(s.Origin, "git@")
}

// Validate rejects specs that would break the reproducibility contract.
// A remote origin without a pinned revision is a moving target and must be
// refused before any fetch happens.
func (s *SourceSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source has no name (origin %q)", s.Origin)
	}
	if s.Origin == "" {
		return fmt.Errorf("source %q has no origin", s.Name)
	}
	if s.ManifestPath == "" {
		return fmt.Errorf("source %q has no manifest path", s.Name)
	}
	if s.Remote() && s.PinnedRevision == "" {
		return fmt.Errorf("source %q: remote origin %q requires a pinned revision", s.Name, s.Origin)
	}
	return nil
}

// Validate checks the whole file: project block present, every source valid,
// no duplicate staging subdirectory names.
func (f *File) Validate() error {
	if f.Project.Dir == "" {
		return fmt.Errorf("project dir is required")
	}
	seen := make(map[string]bool, len(f.Sources))
	for i := range f.Sources {
		s := &f.Sources[i]
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Load parses and validates a sources file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}
