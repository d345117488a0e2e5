package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dimes/zprovision/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	session, err := NewSession(t.TempDir(), "")
	require.NoError(t, err)
	return session
}

func publishLocal(t *testing.T, root string, coordinate model.Coordinate, contents string) {
	versionDir := filepath.Join(root, GroupPath(coordinate.Group), coordinate.Artifact,
		coordinate.Version)
	require.NoError(t, os.MkdirAll(versionDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(versionDir, FileName(coordinate)),
		[]byte(contents), 0644))
}

func TestGetAllVersionsFromDirectories(t *testing.T) {
	root := t.TempDir()
	coordinate := model.Coordinate{Group: "com.example", Artifact: "core", Version: "1.0.0"}
	publishLocal(t, root, coordinate, "v1")
	coordinate.Version = "1.4.0"
	publishLocal(t, root, coordinate, "v2")

	source, err := NewLocalSource(root, newTestSession(t))
	require.NoError(t, err)

	versions, err := source.GetAllVersions(coordinate)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1.0.0", "1.4.0"}, versions)
}

func TestGetAllVersionsPrefersMetadata(t *testing.T) {
	root := t.TempDir()
	coordinate := model.Coordinate{Group: "com.example", Artifact: "core", Version: "1.0.0"}
	publishLocal(t, root, coordinate, "v1")

	artifactDir := filepath.Join(root, GroupPath(coordinate.Group), coordinate.Artifact)
	require.NoError(t, os.WriteFile(filepath.Join(artifactDir, MetadataFileName), []byte(`group: com.example
artifact: core
versions:
  - 1.0.0
  - 2.0.0
`), 0644))

	source, err := NewLocalSource(root, newTestSession(t))
	require.NoError(t, err)

	versions, err := source.GetAllVersions(coordinate)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "2.0.0"}, versions)
}

func TestGetAllVersionsUnpublished(t *testing.T) {
	source, err := NewLocalSource(t.TempDir(), newTestSession(t))
	require.NoError(t, err)

	versions, err := source.GetAllVersions(model.Coordinate{Group: "com.example", Artifact: "core"})
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestProbeMetadataStaysOutOfArtifactCache(t *testing.T) {
	root := t.TempDir()
	session := newTestSession(t)
	coordinate := model.Coordinate{Group: "com.example", Artifact: "core", Version: "1.0.0"}
	publishLocal(t, root, coordinate, "v1")

	source, err := NewLocalSource(root, session)
	require.NoError(t, err)

	_, err = source.GetAllVersions(coordinate)
	require.NoError(t, err)

	probeMetadata := filepath.Join(session.ProbeDir(), "com", "example", "core", MetadataFileName)
	assert.FileExists(t, probeMetadata)
	assert.NoFileExists(t, filepath.Join(session.MaterializeDir(), "com", "example", "core",
		MetadataFileName))
}

func TestResolveArtifactCopiesIntoCache(t *testing.T) {
	root := t.TempDir()
	session := newTestSession(t)
	coordinate := model.Coordinate{Group: "com.example", Artifact: "core", Version: "1.0.0"}
	publishLocal(t, root, coordinate, "pack-bytes")

	source, err := NewLocalSource(root, session)
	require.NoError(t, err)

	resolved, err := source.ResolveArtifact(coordinate)
	require.NoError(t, err)
	assert.Equal(t, session.CachePath(coordinate), resolved.LocalPath)

	contents, err := os.ReadFile(resolved.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "pack-bytes", string(contents))
}

func TestResolveArtifactNotFound(t *testing.T) {
	source, err := NewLocalSource(t.TempDir(), newTestSession(t))
	require.NoError(t, err)

	_, err = source.ResolveArtifact(model.Coordinate{
		Group: "com.example", Artifact: "core", Version: "9.9.9",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArtifactNotFound))
}

func TestResolveArtifactRequiresVersion(t *testing.T) {
	source, err := NewLocalSource(t.TempDir(), newTestSession(t))
	require.NoError(t, err)

	_, err = source.ResolveArtifact(model.Coordinate{Group: "com.example", Artifact: "core"})
	require.Error(t, err)
}

func TestNewLocalSourceRejectsMissingRoot(t *testing.T) {
	_, err := NewLocalSource(filepath.Join(t.TempDir(), "missing"), newTestSession(t))
	require.Error(t, err)
}
