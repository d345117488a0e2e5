// Package repo contains artifact repository backends used for version probing
// and artifact materialization
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"

	yaml "gopkg.in/yaml.v2"
)

var (
	// ErrArtifactNotFound is returned when an artifact is not found in the
	// backing repository
	ErrArtifactNotFound = errors.New("artifact not found")
)

// VersionSource implementations query a single backing artifact repository
// for available versions of a coordinate and fetch a specific version's file.
// Implementations are stateless per query and share a resolution Session.
type VersionSource interface {
	Type() string

	// Setup idempotently creates any structures the source needs, e.g.
	// Dynamo tables or S3 buckets
	Setup() error

	// GetAllVersions returns all published versions for the coordinate's
	// identity. An empty result means no versions are published and is not
	// an error.
	GetAllVersions(coordinate model.Coordinate) ([]string, error)

	// ResolveArtifact materializes the exact-version coordinate into the
	// session's artifact cache and returns the local file
	ResolveArtifact(coordinate model.Coordinate) (*model.ResolvedArtifact, error)
}

// Session holds the two resolution contexts of a provisioning run. Version
// probing writes metadata into the probe cache under the build directory so
// that it never contaminates the artifact cache used to materialize files.
type Session struct {
	probeDir       string
	materializeDir string
}

const probeCacheDirName = "versions-resolution-cache"

// NewSession returns a session rooted at the given build directory. When
// localCache is empty, a default cache directory inside the build directory
// is used for materialization.
func NewSession(buildDir, localCache string) (*Session, error) {
	probeDir := filepath.Join(buildDir, probeCacheDirName)
	if err := os.MkdirAll(probeDir, 0755); err != nil {
		return nil, fmt.Errorf("Error creating probe cache %s: %+v", probeDir, err)
	}

	materializeDir := localCache
	if materializeDir == "" {
		materializeDir = filepath.Join(buildDir, "artifact-cache")
	}
	if err := os.MkdirAll(materializeDir, 0755); err != nil {
		return nil, fmt.Errorf("Error creating artifact cache %s: %+v", materializeDir, err)
	}

	return &Session{
		probeDir:       probeDir,
		materializeDir: materializeDir,
	}, nil
}

// ProbeDir is the metadata cache used for version probing
func (s *Session) ProbeDir() string {
	return s.probeDir
}

// MaterializeDir is the local artifact cache resolved files are written to
func (s *Session) MaterializeDir() string {
	return s.materializeDir
}

// CachePath returns the path inside the artifact cache the coordinate
// materializes to
func (s *Session) CachePath(coordinate model.Coordinate) string {
	return filepath.Join(s.materializeDir, GroupPath(coordinate.Group), coordinate.Artifact,
		coordinate.Version, FileName(coordinate))
}

// RecordProbe caches the versions observed for a coordinate identity in the
// probe cache. Probe metadata never touches the artifact cache. Failures are
// logged and swallowed since the cache is advisory.
func (s *Session) RecordProbe(coordinate model.Coordinate, versions []string) {
	metadata := &ArtifactMetadata{
		Group:    coordinate.Group,
		Artifact: coordinate.Artifact,
		Versions: versions,
	}

	metadataBytes, err := yaml.Marshal(metadata)
	if err != nil {
		provlog.Debugf("Error serializing probe metadata for %s: %+v", coordinate.String(), err)
		return
	}

	metadataDir := filepath.Join(s.probeDir, GroupPath(coordinate.Group), coordinate.Artifact)
	if err := os.MkdirAll(metadataDir, 0755); err != nil {
		provlog.Debugf("Error creating probe cache for %s: %+v", coordinate.String(), err)
		return
	}

	metadataPath := filepath.Join(metadataDir, MetadataFileName)
	if err := os.WriteFile(metadataPath, metadataBytes, 0644); err != nil {
		provlog.Debugf("Error writing probe metadata %s: %+v", metadataPath, err)
	}
}

// GroupPath converts a dotted group id into a repository path
func GroupPath(group string) string {
	return filepath.Join(strings.Split(group, ".")...)
}

// FileName returns the repository file name for an exact-version coordinate
func FileName(coordinate model.Coordinate) string {
	name := fmt.Sprintf("%s-%s", coordinate.Artifact, coordinate.Version)
	if coordinate.Classifier != "" {
		name += "-" + coordinate.Classifier
	}
	return name + "." + coordinate.ExtensionOrDefault()
}
