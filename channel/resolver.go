package channel

import (
	"fmt"
	"strings"

	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"
	"github.com/dimes/zprovision/repo"
)

// UnresolvedArtifactError is returned when no channel and no fallback could
// resolve a coordinate
type UnresolvedArtifactError struct {
	Coordinate model.Coordinate
	Channels   []string
}

func (e *UnresolvedArtifactError) Error() string {
	if len(e.Channels) == 0 {
		return fmt.Sprintf("artifact %s could not be resolved: no channels configured and no version declared",
			e.Coordinate.String())
	}
	return fmt.Sprintf("artifact %s could not be resolved through channels [%s]",
		e.Coordinate.String(), strings.Join(e.Channels, ", "))
}

// OverlayResolver resolves artifact coordinates through an ordered channel
// list, falling back to direct resolution through the default source. Every
// resolution decision is recorded for later replay.
//
// The resolver is single threaded: the provisioning engine issues one
// artifact request at a time and blocks on the result.
type OverlayResolver struct {
	channels      []*Channel
	fallback      repo.VersionSource
	recorder      *Recorder
	disableLatest bool
}

// NewOverlayResolver returns a resolver over the given ordered channel list.
// The fallback source handles coordinates no channel governs. When
// disableLatest is set, channels resolve exact declared versions instead of
// the latest version satisfying their constraints.
func NewOverlayResolver(channels []*Channel, fallback repo.VersionSource,
	disableLatest bool) *OverlayResolver {
	return &OverlayResolver{
		channels:      channels,
		fallback:      fallback,
		recorder:      NewRecorder(),
		disableLatest: disableLatest,
	}
}

// Recorder returns the resolver's resolution recorder
func (r *OverlayResolver) Recorder() *Recorder {
	return r.recorder
}

// Resolve returns a resolved artifact for the coordinate. The first channel
// declaring a matching constraint wins; later channels are never consulted
// once one yields a version, even if materializing that version then fails.
// A coordinate no channel governs falls back to direct resolution when it
// carries an explicit version.
func (r *OverlayResolver) Resolve(coordinate model.Coordinate) (*model.ResolvedArtifact, error) {
	for _, ch := range r.channels {
		version, found, err := r.channelVersion(ch, coordinate)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}

		if coordinate.HasVersion() && coordinate.Version != version {
			provlog.Infof("Updated %s to version %s through channel %s",
				coordinate.String(), version, ch.Name())
		}
		coordinate.Version = version

		// The version decision is final. A download failure here is a
		// hard failure, not a fall-through to the next channel.
		resolved, err := ch.source.ResolveArtifact(coordinate)
		if err != nil {
			return nil, fmt.Errorf("Error materializing %s dictated by channel %s: %+v",
				coordinate.String(), ch.Name(), err)
		}

		if err := r.recorder.Record(resolved.Coordinate); err != nil {
			return nil, err
		}
		return resolved, nil
	}

	if coordinate.HasVersion() {
		provlog.Infof("No channel governs %s, resolving directly", coordinate.String())
		resolved, err := r.fallback.ResolveArtifact(coordinate)
		if err != nil {
			provlog.Errorf("Direct resolution of %s failed: %+v", coordinate.String(), err)
			return nil, &UnresolvedArtifactError{
				Coordinate: coordinate,
				Channels:   r.channelNames(),
			}
		}

		if err := r.recorder.Record(resolved.Coordinate); err != nil {
			return nil, err
		}
		return resolved, nil
	}

	return nil, &UnresolvedArtifactError{
		Coordinate: coordinate,
		Channels:   r.channelNames(),
	}
}

// channelVersion applies a single channel's constraint to the coordinate.
// found is false when the channel has no entry for the coordinate or its
// range matches no published version.
func (r *OverlayResolver) channelVersion(ch *Channel, coordinate model.Coordinate) (version string,
	found bool, err error) {
	if !r.disableLatest {
		return ch.ResolveVersion(coordinate)
	}

	stream, ok := ch.FindStream(coordinate)
	if !ok {
		return "", false, nil
	}

	// Exact mode: the coordinate's own version must agree with the pin
	if stream.Version != "" {
		if coordinate.HasVersion() && coordinate.Version != stream.Version {
			return "", false, fmt.Errorf("Channel %s pins %s to version %s but version %s was requested",
				ch.Name(), coordinate.Identity().String(), stream.Version, coordinate.Version)
		}
		return stream.Version, true, nil
	}

	// A ranged stream cannot dictate an exact version; the coordinate's own
	// declared version is used as long as it exists
	if !coordinate.HasVersion() {
		return "", false, nil
	}
	return coordinate.Version, true, nil
}

func (r *OverlayResolver) channelNames() []string {
	names := make([]string, 0, len(r.channels))
	for _, ch := range r.channels {
		names = append(names, ch.Name())
	}
	return names
}
