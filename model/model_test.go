package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateIdentityAndKey(t *testing.T) {
	coordinate := Coordinate{Group: "com.example", Artifact: "core", Version: "1.0.0"}
	identity := coordinate.Identity()
	assert.Empty(t, identity.Version)
	assert.Equal(t, coordinate.Key(), identity.Key())
	assert.Equal(t, "com.example:core::tar.gz", coordinate.Key())
	assert.Equal(t, "tar.gz", identity.ExtensionOrDefault())
}

func TestCoordinateString(t *testing.T) {
	coordinate := Coordinate{Group: "com.example", Artifact: "core"}
	assert.Equal(t, "com.example:core", coordinate.String())

	coordinate.Classifier = "dist"
	coordinate.Version = "1.0.0"
	assert.Equal(t, "com.example:core:dist:1.0.0", coordinate.String())
}

func TestCoordinateStringDistinguishesClassifierFromVersion(t *testing.T) {
	classifierOnly := Coordinate{Group: "com.example", Artifact: "core", Classifier: "dist"}
	versionOnly := Coordinate{Group: "com.example", Artifact: "core", Version: "dist"}

	assert.Equal(t, "com.example:core:dist", classifierOnly.String())
	assert.Equal(t, "com.example:core::dist", versionOnly.String())
	assert.NotEqual(t, classifierOnly.String(), versionOnly.String())
}

func TestStreamMatches(t *testing.T) {
	stream := Stream{Group: "com.example", Artifact: "core"}
	assert.True(t, stream.Matches(Coordinate{Group: "com.example", Artifact: "core"}))
	assert.True(t, stream.Matches(Coordinate{Group: "com.example", Artifact: "core", Classifier: "dist"}))
	assert.False(t, stream.Matches(Coordinate{Group: "com.example", Artifact: "other"}))

	stream.Classifier = "dist"
	assert.False(t, stream.Matches(Coordinate{Group: "com.example", Artifact: "core"}))
	assert.True(t, stream.Matches(Coordinate{Group: "com.example", Artifact: "core", Classifier: "dist"}))

	stream = Stream{Group: "com.example", Artifact: "core", Extension: "tar.gz"}
	assert.True(t, stream.Matches(Coordinate{Group: "com.example", Artifact: "core"}))
	assert.False(t, stream.Matches(Coordinate{Group: "com.example", Artifact: "core", Extension: "yaml"}))
}

func TestParseProvisionfile(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, ProvisionfileName)
	require.NoError(t, os.WriteFile(specPath, []byte(`feature-packs:
  - group: com.example
    artifact: core
configs:
  - layers:
      - web-server
channels:
  manifests:
    - url: channels/main.yaml
  disable-latest-resolution: true
repository:
  type: local
  path: repository
`), 0644))

	parsed, err := ParseProvisionfile(specPath)
	require.NoError(t, err)

	require.Len(t, parsed.FeaturePacks, 1)
	assert.True(t, parsed.FeaturePacks[0].HasCoordinates())
	require.Len(t, parsed.Configs, 1)
	assert.Equal(t, []string{"web-server"}, parsed.Configs[0].Layers)
	require.Len(t, parsed.Channels.Manifests, 1)
	assert.True(t, parsed.Channels.DisableLatestResolution)
	assert.Equal(t, "local", parsed.Repository.Type)

	assert.Equal(t, dir, parsed.AbsoluteWorkingDir)
	assert.Equal(t, filepath.Join(dir, "target"), parsed.AbsoluteTargetDir)
	assert.NotEmpty(t, parsed.RawProvisionfile)
}

func TestParseProvisionfileMissing(t *testing.T) {
	_, err := ParseProvisionfile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/abs/path", ResolvePath("/base", "/abs/path"))
	assert.Equal(t, filepath.Join("/base", "rel"), ResolvePath("/base", "rel"))
}

func TestConfigIDModelOnly(t *testing.T) {
	assert.True(t, ConfigID{Model: "standalone"}.ModelOnly())
	assert.False(t, ConfigID{Model: "standalone", Name: "standalone.yaml"}.ModelOnly())
}
