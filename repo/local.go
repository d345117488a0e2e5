package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dimes/zprovision/copyutil"
	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"

	yaml "gopkg.in/yaml.v2"
)

const (
	// LocalSourceType is the type identifier for filesystem-backed sources
	LocalSourceType = "local"

	// MetadataFileName is the per-artifact version metadata document
	MetadataFileName = "metadata.yaml"
)

// ArtifactMetadata is the version metadata document stored next to an
// artifact's version directories
type ArtifactMetadata struct {
	Group    string   `yaml:"group"`
	Artifact string   `yaml:"artifact"`
	Versions []string `yaml:"versions"`
}

// LocalSource serves artifacts from a filesystem repository laid out as
// <root>/<group path>/<artifact>/<version>/<artifact>-<version>.<ext>
type LocalSource struct {
	root    string
	session *Session
}

// NewLocalSource returns a version source backed by a filesystem repository
func NewLocalSource(root string, session *Session) (*LocalSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("Error opening repository root %s: %+v", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("Repository root %s is not a directory", root)
	}

	return &LocalSource{
		root:    root,
		session: session,
	}, nil
}

// Type returns the local source type
func (l *LocalSource) Type() string {
	return LocalSourceType
}

// Setup is a no-op for filesystem repositories
func (l *LocalSource) Setup() error {
	return nil
}

// GetAllVersions lists the published versions for the coordinate. The
// metadata document is preferred; when absent the version directories are
// listed directly.
func (l *LocalSource) GetAllVersions(coordinate model.Coordinate) ([]string, error) {
	artifactDir := filepath.Join(l.root, GroupPath(coordinate.Group), coordinate.Artifact)
	metadataPath := filepath.Join(artifactDir, MetadataFileName)
	if metadataBytes, err := os.ReadFile(metadataPath); err == nil {
		metadata := &ArtifactMetadata{}
		if err := yaml.Unmarshal(metadataBytes, metadata); err != nil {
			return nil, fmt.Errorf("Error parsing %s: %+v", metadataPath, err)
		}
		l.session.RecordProbe(coordinate, metadata.Versions)
		return metadata.Versions, nil
	}

	entries, err := os.ReadDir(artifactDir)
	if err != nil {
		provlog.Debugf("No versions published for %s in %s", coordinate.String(), l.root)
		return nil, nil
	}

	versions := make([]string, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		versions = append(versions, entry.Name())
	}

	l.session.RecordProbe(coordinate, versions)
	return versions, nil
}

// ResolveArtifact copies the artifact file into the session's artifact cache
func (l *LocalSource) ResolveArtifact(coordinate model.Coordinate) (*model.ResolvedArtifact, error) {
	if !coordinate.HasVersion() {
		return nil, fmt.Errorf("Cannot resolve %s without a version", coordinate.String())
	}

	cachePath := l.session.CachePath(coordinate)
	if _, err := os.Stat(cachePath); err == nil {
		provlog.Debugf("Using cached artifact %s", cachePath)
		return &model.ResolvedArtifact{Coordinate: coordinate, LocalPath: cachePath}, nil
	}

	sourcePath := filepath.Join(l.root, GroupPath(coordinate.Group), coordinate.Artifact,
		coordinate.Version, FileName(coordinate))
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("Artifact %s not found at %s: %w", coordinate.String(),
			sourcePath, ErrArtifactNotFound)
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return nil, fmt.Errorf("Error creating cache directory for %s: %+v", coordinate.String(), err)
	}

	if err := copyutil.Copy(sourcePath, cachePath); err != nil {
		return nil, fmt.Errorf("Error copying %s into artifact cache: %+v", coordinate.String(), err)
	}

	return &model.ResolvedArtifact{Coordinate: coordinate, LocalPath: cachePath}, nil
}
