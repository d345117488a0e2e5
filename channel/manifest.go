package channel

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"
	"github.com/dimes/zprovision/repo"

	yaml "gopkg.in/yaml.v2"
)

const (
	// ManifestExtension is the extension channel manifest artifacts are
	// published under
	ManifestExtension = "yaml"

	// ManifestClassifier marks a coordinate-located manifest artifact
	ManifestClassifier = "channel"
)

// LoadError is returned when a channel manifest could not be fetched or
// parsed. It is fatal for the run that declared the channel.
type LoadError struct {
	Reference string
	Cause     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("channel %s could not be loaded: %+v", e.Reference, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// LoadChannels loads every channel named by the config, in order. Any failure
// aborts the whole load so that no partial channel list is ever used.
func LoadChannels(coordinates []model.ChannelCoordinate, source repo.VersionSource) ([]*Channel, error) {
	channels := make([]*Channel, 0, len(coordinates))
	for _, coordinate := range coordinates {
		channel, err := LoadChannel(coordinate, source)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, nil
}

// LoadChannel loads a single channel manifest. A coordinate with a URL is
// fetched directly; otherwise the manifest artifact is resolved through the
// source, using the highest published version when none is declared.
func LoadChannel(coordinate model.ChannelCoordinate, source repo.VersionSource) (*Channel, error) {
	if coordinate.URL != "" {
		manifest, err := loadManifestURL(coordinate.URL)
		if err != nil {
			return nil, &LoadError{Reference: coordinate.URL, Cause: err}
		}
		return NewChannel(manifest, source), nil
	}

	if coordinate.Group == "" || coordinate.Artifact == "" {
		return nil, &LoadError{
			Reference: fmt.Sprintf("%s:%s", coordinate.Group, coordinate.Artifact),
			Cause:     fmt.Errorf("channel coordinate requires a url or a group and artifact"),
		}
	}

	manifestCoordinate := model.Coordinate{
		Group:      coordinate.Group,
		Artifact:   coordinate.Artifact,
		Classifier: ManifestClassifier,
		Extension:  ManifestExtension,
		Version:    coordinate.Version,
	}

	if !manifestCoordinate.HasVersion() {
		versions, err := source.GetAllVersions(manifestCoordinate)
		if err != nil {
			return nil, &LoadError{Reference: manifestCoordinate.String(), Cause: err}
		}

		highest, ok := HighestMatching(versions, nil)
		if !ok {
			return nil, &LoadError{
				Reference: manifestCoordinate.String(),
				Cause:     fmt.Errorf("no published manifest versions"),
			}
		}
		manifestCoordinate.Version = highest
		provlog.Debugf("Resolved channel manifest %s from metadata", manifestCoordinate.String())
	}

	resolved, err := source.ResolveArtifact(manifestCoordinate)
	if err != nil {
		return nil, &LoadError{Reference: manifestCoordinate.String(), Cause: err}
	}

	manifest, err := loadManifestFile(resolved.LocalPath)
	if err != nil {
		return nil, &LoadError{Reference: manifestCoordinate.String(), Cause: err}
	}

	return NewChannel(manifest, source), nil
}

func loadManifestURL(url string) (*model.ChannelManifest, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		response, err := http.Get(url)
		if err != nil {
			return nil, fmt.Errorf("Error fetching %s: %+v", url, err)
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("Error fetching %s: status %s", url, response.Status)
		}

		manifestBytes, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, fmt.Errorf("Error reading %s: %+v", url, err)
		}

		return parseManifest(manifestBytes)
	}

	return loadManifestFile(strings.TrimPrefix(url, "file://"))
}

func loadManifestFile(path string) (*model.ChannelManifest, error) {
	manifestBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error reading %s: %+v", path, err)
	}
	return parseManifest(manifestBytes)
}

func parseManifest(manifestBytes []byte) (*model.ChannelManifest, error) {
	manifest := &model.ChannelManifest{}
	if err := yaml.Unmarshal(manifestBytes, manifest); err != nil {
		return nil, fmt.Errorf("Error parsing channel manifest: %+v", err)
	}

	for _, stream := range manifest.Streams {
		if stream.Version == "" && stream.VersionRange == "" {
			return nil, fmt.Errorf("Stream %s:%s declares neither a version nor a version range",
				stream.Group, stream.Artifact)
		}
		if stream.Version != "" && stream.VersionRange != "" {
			return nil, fmt.Errorf("Stream %s:%s declares both a version and a version range",
				stream.Group, stream.Artifact)
		}
	}

	return manifest, nil
}
