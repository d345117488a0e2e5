// Package channel implements channel-based artifact version resolution.
// A channel overlays version constraints on top of a backing artifact
// repository; an ordered list of channels is consulted before falling back to
// direct resolution.
package channel

import (
	"fmt"

	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"
	"github.com/dimes/zprovision/repo"

	"github.com/Masterminds/semver/v3"
)

// Channel is a named, ordered collection of version constraints plus the
// version source its constraints are resolved against. Channels are immutable
// once loaded.
type Channel struct {
	manifest *model.ChannelManifest
	source   repo.VersionSource
}

// NewChannel returns a channel for the given manifest, backed by source
func NewChannel(manifest *model.ChannelManifest, source repo.VersionSource) *Channel {
	return &Channel{
		manifest: manifest,
		source:   source,
	}
}

// Name returns the channel's declared name
func (c *Channel) Name() string {
	return c.manifest.Name
}

// Manifest returns the channel's manifest document
func (c *Channel) Manifest() *model.ChannelManifest {
	return c.manifest
}

// FindStream returns the first constraint entry matching the coordinate's
// identity, or false when the channel has no entry for it
func (c *Channel) FindStream(coordinate model.Coordinate) (model.Stream, bool) {
	for _, stream := range c.manifest.Streams {
		if stream.Matches(coordinate) {
			return stream, true
		}
	}
	return model.Stream{}, false
}

// ResolveVersion applies the matching stream's constraint to the coordinate
// and returns the version the channel dictates. A pinned stream returns the
// pin; a ranged stream probes the channel's source for the highest version
// satisfying the range. A ranged stream with no published version in range
// returns found=false, meaning the channel has no answer.
func (c *Channel) ResolveVersion(coordinate model.Coordinate) (version string, found bool, err error) {
	stream, ok := c.FindStream(coordinate)
	if !ok {
		return "", false, nil
	}

	if stream.Version != "" {
		return stream.Version, true, nil
	}

	constraint, err := semver.NewConstraint(stream.VersionRange)
	if err != nil {
		return "", false, fmt.Errorf("Error parsing version range %q in channel %s: %+v",
			stream.VersionRange, c.Name(), err)
	}

	versions, err := c.source.GetAllVersions(coordinate)
	if err != nil {
		return "", false, fmt.Errorf("Error listing versions of %s through channel %s: %+v",
			coordinate.String(), c.Name(), err)
	}

	highest, ok := HighestMatching(versions, constraint)
	if !ok {
		provlog.Debugf("Channel %s has no version of %s in range %s",
			c.Name(), coordinate.String(), stream.VersionRange)
		return "", false, nil
	}

	return highest, true, nil
}

// HighestMatching returns the highest version among versions satisfying the
// constraint. Versions that do not parse as semantic versions are skipped.
// A nil constraint matches everything.
func HighestMatching(versions []string, constraint *semver.Constraints) (string, bool) {
	var highest *semver.Version
	highestRaw := ""
	for _, raw := range versions {
		version, err := semver.NewVersion(raw)
		if err != nil {
			provlog.Debugf("Skipping unparseable version %q", raw)
			continue
		}

		if constraint != nil && !constraint.Check(version) {
			continue
		}

		if highest == nil || version.GreaterThan(highest) {
			highest = version
			highestRaw = raw
		}
	}

	return highestRaw, highest != nil
}
