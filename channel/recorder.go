package channel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"

	yaml "gopkg.in/yaml.v2"
)

const (
	// RecordDirName is the hidden directory inside the installation tree the
	// resolution record is written to
	RecordDirName = ".channels"

	// RecordFileName is the resolution record document name
	RecordFileName = "channels.yaml"

	// RecordedChannelName names the persisted record when reloaded as a
	// pinned channel
	RecordedChannelName = "resolved"
)

var (
	// ErrRecorderFlushed is returned when a recorder is used after its
	// record has been persisted
	ErrRecorderFlushed = errors.New("resolution record already flushed")
)

// Recorder accumulates the (coordinate, version) pairs actually used during a
// resolution session. Recording the same coordinate again updates its version
// in place, so the record holds exactly one entry per coordinate identity.
// The record is flushed exactly once at the end of a run.
type Recorder struct {
	entries map[string]model.Stream
	order   []string
	flushed bool
}

// NewRecorder returns an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{
		entries: make(map[string]model.Stream),
	}
}

// Record notes that the coordinate resolved to its current version. It is an
// error to record after the record has been flushed.
func (r *Recorder) Record(coordinate model.Coordinate) error {
	if r.flushed {
		return ErrRecorderFlushed
	}

	if !coordinate.HasVersion() {
		return fmt.Errorf("Cannot record %s without a resolved version", coordinate.String())
	}

	key := coordinate.Key()
	if _, ok := r.entries[key]; !ok {
		r.order = append(r.order, key)
	}

	r.entries[key] = model.Stream{
		Group:      coordinate.Group,
		Artifact:   coordinate.Artifact,
		Classifier: coordinate.Classifier,
		Extension:  coordinate.Extension,
		Version:    coordinate.Version,
	}

	return nil
}

// Len returns the number of recorded coordinate identities
func (r *Recorder) Len() int {
	return len(r.order)
}

// Manifest returns the recorded resolutions as a pinned exact-version channel
// manifest, in first-recorded order
func (r *Recorder) Manifest() *model.ChannelManifest {
	streams := make([]model.Stream, 0, len(r.order))
	for _, key := range r.order {
		streams = append(streams, r.entries[key])
	}

	return &model.ChannelManifest{
		Name:    RecordedChannelName,
		Streams: streams,
	}
}

// Flush serializes the record into the installation tree at home. Flushing
// twice is an error.
func (r *Recorder) Flush(home string) error {
	if r.flushed {
		return ErrRecorderFlushed
	}
	r.flushed = true

	recordDir := filepath.Join(home, RecordDirName)
	if err := os.MkdirAll(recordDir, 0755); err != nil {
		return fmt.Errorf("Error creating record directory %s: %+v", recordDir, err)
	}

	recordBytes, err := yaml.Marshal(r.Manifest())
	if err != nil {
		return fmt.Errorf("Error serializing resolution record: %+v", err)
	}

	recordPath := filepath.Join(recordDir, RecordFileName)
	if err := os.WriteFile(recordPath, recordBytes, 0644); err != nil {
		return fmt.Errorf("Error writing resolution record to %s: %+v", recordPath, err)
	}

	provlog.Debugf("Recorded %d resolved artifacts in %s", len(r.order), recordPath)
	return nil
}
