package channel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dimes/zprovision/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUpdatesInPlace(t *testing.T) {
	recorder := NewRecorder()
	first := model.Coordinate{Group: "com.example", Artifact: "core", Version: "1.0.0"}
	second := model.Coordinate{Group: "com.example", Artifact: "extra", Version: "2.0.0"}

	require.NoError(t, recorder.Record(first))
	require.NoError(t, recorder.Record(second))

	first.Version = "1.5.0"
	require.NoError(t, recorder.Record(first))

	assert.Equal(t, 2, recorder.Len())

	manifest := recorder.Manifest()
	require.Len(t, manifest.Streams, 2)
	assert.Equal(t, "core", manifest.Streams[0].Artifact)
	assert.Equal(t, "1.5.0", manifest.Streams[0].Version)
	assert.Equal(t, "extra", manifest.Streams[1].Artifact)
}

func TestRecordRequiresVersion(t *testing.T) {
	recorder := NewRecorder()
	err := recorder.Record(model.Coordinate{Group: "com.example", Artifact: "core"})
	require.Error(t, err)
}

func TestFlushTwiceFails(t *testing.T) {
	recorder := NewRecorder()
	home := t.TempDir()

	require.NoError(t, recorder.Flush(home))
	assert.ErrorIs(t, recorder.Flush(home), ErrRecorderFlushed)
}

func TestRecordAfterFlushFails(t *testing.T) {
	recorder := NewRecorder()
	require.NoError(t, recorder.Flush(t.TempDir()))

	err := recorder.Record(model.Coordinate{Group: "com.example", Artifact: "core", Version: "1.0.0"})
	assert.ErrorIs(t, err, ErrRecorderFlushed)
}

func TestFlushedRecordReloadsAsPinnedChannel(t *testing.T) {
	recorder := NewRecorder()
	require.NoError(t, recorder.Record(model.Coordinate{
		Group: "com.example", Artifact: "core", Version: "1.4.0",
	}))
	require.NoError(t, recorder.Record(model.Coordinate{
		Group: "com.example", Artifact: "extra", Classifier: "channel",
		Extension: "yaml", Version: "2.0.0",
	}))

	home := t.TempDir()
	require.NoError(t, recorder.Flush(home))

	recordPath := filepath.Join(home, RecordDirName, RecordFileName)
	require.FileExists(t, recordPath)

	reloaded, err := LoadChannel(model.ChannelCoordinate{URL: recordPath}, newFakeSource(t))
	require.NoError(t, err)
	assert.Equal(t, RecordedChannelName, reloaded.Name())

	streams := reloaded.Manifest().Streams
	require.Len(t, streams, 2)
	for _, stream := range streams {
		assert.NotEmpty(t, stream.Version)
		assert.Empty(t, stream.VersionRange)
	}
	assert.Equal(t, "channel", streams[1].Classifier)
}

func TestFlushWritesInsideInstallation(t *testing.T) {
	recorder := NewRecorder()
	home := t.TempDir()
	require.NoError(t, recorder.Flush(home))

	entries, err := os.ReadDir(filepath.Join(home, RecordDirName))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, RecordFileName, entries[0].Name())
}
