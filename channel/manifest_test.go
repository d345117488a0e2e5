package channel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dimes/zprovision/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestYaml = `name: main
streams:
  - group: com.example
    artifact: core
    version: 1.0.0
  - group: com.example
    artifact: extra
    version-range: ">=2.0.0"
`

func writeManifest(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadChannelFromFile(t *testing.T) {
	path := writeManifest(t, manifestYaml)

	ch, err := LoadChannel(model.ChannelCoordinate{URL: path}, newFakeSource(t))
	require.NoError(t, err)
	assert.Equal(t, "main", ch.Name())
	require.Len(t, ch.Manifest().Streams, 2)
}

func TestLoadChannelFromFileURL(t *testing.T) {
	path := writeManifest(t, manifestYaml)

	ch, err := LoadChannel(model.ChannelCoordinate{URL: "file://" + path}, newFakeSource(t))
	require.NoError(t, err)
	assert.Equal(t, "main", ch.Name())
}

func TestParseManifestRejectsBothVersionAndRange(t *testing.T) {
	path := writeManifest(t, `name: bad
streams:
  - group: com.example
    artifact: core
    version: 1.0.0
    version-range: ">=1.0.0"
`)

	_, err := LoadChannel(model.ChannelCoordinate{URL: path}, newFakeSource(t))
	require.Error(t, err)

	loadErr := &LoadError{}
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Error(), "both")
}

func TestParseManifestRejectsEmptyStream(t *testing.T) {
	path := writeManifest(t, `name: bad
streams:
  - group: com.example
    artifact: core
`)

	_, err := LoadChannel(model.ChannelCoordinate{URL: path}, newFakeSource(t))
	require.Error(t, err)
}

func TestLoadChannelsAllOrNothing(t *testing.T) {
	good := writeManifest(t, manifestYaml)
	coordinates := []model.ChannelCoordinate{
		{URL: good},
		{URL: filepath.Join(t.TempDir(), "missing.yaml")},
	}

	channels, err := LoadChannels(coordinates, newFakeSource(t))
	require.Error(t, err)
	assert.Nil(t, channels)
}

func TestLoadChannelFromCoordinate(t *testing.T) {
	source := newFakeSource(t)
	manifestCoordinate := model.Coordinate{
		Group:      "com.example",
		Artifact:   "channels",
		Classifier: ManifestClassifier,
		Extension:  ManifestExtension,
	}
	source.versions[manifestCoordinate.Key()] = []string{"1.0.0", "1.1.0"}
	source.files[manifestCoordinate.Key()+":1.1.0"] = []byte(manifestYaml)

	ch, err := LoadChannel(model.ChannelCoordinate{
		Group:    "com.example",
		Artifact: "channels",
	}, source)
	require.NoError(t, err)
	assert.Equal(t, "main", ch.Name())

	// The versionless coordinate resolves to the highest published manifest
	require.NotEmpty(t, source.resolved)
	assert.Contains(t, source.resolved[len(source.resolved)-1], "1.1.0")
}

func TestLoadChannelRequiresLocation(t *testing.T) {
	_, err := LoadChannel(model.ChannelCoordinate{}, newFakeSource(t))
	require.Error(t, err)
}
