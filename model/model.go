// Package model contains the types that represent zprovision's data model
package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dimes/zprovision/provlog"

	yaml "gopkg.in/yaml.v2"
)

const (
	// ProvisionfileName is the name of the declarative provisioning spec file
	ProvisionfileName = "provision.yaml"

	// DefaultExtension is assumed when a coordinate does not declare one
	DefaultExtension = "tar.gz"

	targetDir = "target"
)

// Coordinate identifies an artifact. Identity is (group, artifact, classifier,
// extension); the version may be empty, meaning "resolve a version for me".
type Coordinate struct {
	Group      string `yaml:"group"`
	Artifact   string `yaml:"artifact"`
	Classifier string `yaml:"classifier,omitempty"`
	Extension  string `yaml:"extension,omitempty"`
	Version    string `yaml:"version,omitempty"`
}

// Identity returns the coordinate with its version stripped
func (c Coordinate) Identity() Coordinate {
	c.Version = ""
	return c
}

// Key returns a map key for the coordinate's identity
func (c Coordinate) Key() string {
	return fmt.Sprintf("%s:%s:%s:%s", c.Group, c.Artifact, c.Classifier, c.ExtensionOrDefault())
}

// ExtensionOrDefault returns the declared extension, or the default one
func (c Coordinate) ExtensionOrDefault() string {
	if c.Extension == "" {
		return DefaultExtension
	}
	return c.Extension
}

// HasVersion returns whether the coordinate declares a version
func (c Coordinate) HasVersion() bool {
	return c.Version != ""
}

// String returns a human readable string representing this coordinate. The
// classifier slot is kept in place when a version is present so that
// classifier-only and version-only coordinates render distinctly.
func (c Coordinate) String() string {
	s := fmt.Sprintf("%s:%s", c.Group, c.Artifact)
	if c.Version != "" {
		return s + ":" + c.Classifier + ":" + c.Version
	}
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	return s
}

// ResolvedArtifact is a coordinate with its version filled in plus the local
// file the artifact was materialized to. Produced once per resolution call.
type ResolvedArtifact struct {
	Coordinate Coordinate
	LocalPath  string
}

// ChannelManifest is the document defining a channel's version constraints
type ChannelManifest struct {
	Name    string   `yaml:"name"`
	Streams []Stream `yaml:"streams"`
}

// Stream is a single version-constraint entry of a channel manifest. Exactly
// one of Version (exact pin) and VersionRange (semver constraint) is set.
type Stream struct {
	Group        string `yaml:"group"`
	Artifact     string `yaml:"artifact"`
	Classifier   string `yaml:"classifier,omitempty"`
	Extension    string `yaml:"extension,omitempty"`
	Version      string `yaml:"version,omitempty"`
	VersionRange string `yaml:"version-range,omitempty"`
}

// Matches returns whether the stream constrains the given coordinate identity.
// An empty stream classifier/extension matches any.
func (s Stream) Matches(c Coordinate) bool {
	if s.Group != c.Group || s.Artifact != c.Artifact {
		return false
	}
	if s.Classifier != "" && s.Classifier != c.Classifier {
		return false
	}
	if s.Extension != "" && s.Extension != c.ExtensionOrDefault() {
		return false
	}
	return true
}

// ChannelCoordinate identifies how to locate a channel manifest: either a
// literal URL (file path or http(s) URL), or a coordinate whose manifest
// artifact must itself be resolved before the channel can be loaded.
type ChannelCoordinate struct {
	URL      string `yaml:"url,omitempty"`
	Group    string `yaml:"group,omitempty"`
	Artifact string `yaml:"artifact,omitempty"`
	Version  string `yaml:"version,omitempty"`
}

// ChannelsConfig configures channel-based resolution for a provisioning run
type ChannelsConfig struct {
	Manifests []ChannelCoordinate `yaml:"manifests,omitempty"`

	// LocalCache overrides the local artifact cache directory
	LocalCache string `yaml:"local-cache,omitempty"`

	// DisableLatestResolution pins resolution to exact declared versions
	DisableLatestResolution bool `yaml:"disable-latest-resolution,omitempty"`
}

// RepositoryConfig selects and configures the backing artifact repository.
// Local repositories are plain directories; remote repositories are S3
// buckets with an optional DynamoDB version index.
type RepositoryConfig struct {
	Type string `yaml:"type,omitempty"`

	// Path is the root directory of a local repository
	Path string `yaml:"path,omitempty"`

	Bucket  string `yaml:"bucket,omitempty"`
	Table   string `yaml:"table,omitempty"`
	Region  string `yaml:"region,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// DeploymentConfig describes the application deployment installed into the
// provisioned server when packaging
type DeploymentConfig struct {
	Artifact     string   `yaml:"artifact"`
	Name         string   `yaml:"name,omitempty"`
	RuntimeName  string   `yaml:"runtime-name,omitempty"`
	ServerGroups []string `yaml:"server-groups,omitempty"`

	// ConfigName selects the server configuration the deployment commands
	// run against
	ConfigName string `yaml:"config-name,omitempty"`
}

// ConfigID identifies a default configuration of a feature pack. A ConfigID
// with an empty name refers to the whole config model.
type ConfigID struct {
	Model string `yaml:"model"`
	Name  string `yaml:"name,omitempty"`
}

// ModelOnly returns whether the id refers to a config model rather than a
// single named configuration
func (c ConfigID) ModelOnly() bool {
	return c.Name == ""
}

// FeaturePackRef references a feature pack to install. Exactly one of
// Location, the (Group, Artifact) coordinates, or Path must be set.
type FeaturePackRef struct {
	Location   string `yaml:"location,omitempty"`
	Group      string `yaml:"group,omitempty"`
	Artifact   string `yaml:"artifact,omitempty"`
	Classifier string `yaml:"classifier,omitempty"`
	Type       string `yaml:"type,omitempty"`
	Version    string `yaml:"version,omitempty"`
	Path       string `yaml:"path,omitempty"`

	InheritConfigs   *bool      `yaml:"inherit-configs,omitempty"`
	InheritPackages  *bool      `yaml:"inherit-packages,omitempty"`
	IncludedConfigs  []ConfigID `yaml:"included-configs,omitempty"`
	ExcludedConfigs  []ConfigID `yaml:"excluded-configs,omitempty"`
	IncludedPackages []string   `yaml:"included-packages,omitempty"`
	ExcludedPackages []string   `yaml:"excluded-packages,omitempty"`
	Transitive       bool       `yaml:"transitive,omitempty"`
}

// HasCoordinates returns whether the ref carries usable artifact coordinates
func (f FeaturePackRef) HasCoordinates() bool {
	return f.Group != "" && f.Artifact != ""
}

// String returns a human readable string representing this feature pack ref
func (f FeaturePackRef) String() string {
	if f.Location != "" {
		return f.Location
	}
	if f.Path != "" {
		return f.Path
	}
	coord := Coordinate{
		Group:      f.Group,
		Artifact:   f.Artifact,
		Classifier: f.Classifier,
		Version:    f.Version,
	}
	return coord.String()
}

// ConfigSpec describes one configuration to generate, optionally built from
// included and excluded layers
type ConfigSpec struct {
	Model          string   `yaml:"model,omitempty"`
	Name           string   `yaml:"name,omitempty"`
	Layers         []string `yaml:"layers,omitempty"`
	ExcludedLayers []string `yaml:"excluded-layers,omitempty"`
}

// Provisionfile is what a project's provisioning spec file is parsed into
type Provisionfile struct {
	FeaturePacks        []FeaturePackRef  `yaml:"feature-packs,omitempty"`
	FeaturePackLocation string            `yaml:"feature-pack-location,omitempty"`
	Configs             []ConfigSpec      `yaml:"configs,omitempty"`
	Options             map[string]string `yaml:"options,omitempty"`

	// PlanFile points at a pre-authored plan in the engine's native format,
	// used when no feature packs are declared
	PlanFile string `yaml:"plan-file,omitempty"`

	Channels         ChannelsConfig    `yaml:"channels,omitempty"`
	Repository       RepositoryConfig  `yaml:"repository,omitempty"`
	Deployment       *DeploymentConfig `yaml:"deployment,omitempty"`
	ExtraContentDirs []string          `yaml:"extra-content-dirs,omitempty"`

	// ProvisionDir is the directory name inside the target dir the server
	// is provisioned into
	ProvisionDir string `yaml:"provision-dir,omitempty"`
	RecordState  bool   `yaml:"record-state,omitempty"`
}

// ParsedProvisionfile is like a Provisionfile but contains meta-information
// about the input spec file
type ParsedProvisionfile struct {
	Provisionfile

	AbsoluteWorkingDir string
	AbsoluteTargetDir  string

	RawProvisionfile []byte // The raw provision.yaml bytes
}

// NewParsedProvisionfile constructs an instance of ParsedProvisionfile
func NewParsedProvisionfile(provisionfile *Provisionfile, absoluteWorkingDir string,
	rawProvisionfile []byte) *ParsedProvisionfile {
	return &ParsedProvisionfile{
		Provisionfile:      *provisionfile,
		AbsoluteWorkingDir: absoluteWorkingDir,
		AbsoluteTargetDir:  filepath.Join(absoluteWorkingDir, targetDir),
		RawProvisionfile:   rawProvisionfile,
	}
}

// ParseProvisionfile parses the spec file at the provided location and returns
// a ParsedProvisionfile
func ParseProvisionfile(provisionfilePath string) (*ParsedProvisionfile, error) {
	provlog.Debugf("Reading provisioning spec %s", provisionfilePath)
	provisionfileBytes, err := os.ReadFile(provisionfilePath)
	if err != nil {
		return nil, fmt.Errorf("Error reading %s: %+v", provisionfilePath, err)
	}

	provlog.Debugf("Parsing provisioning spec %s", provisionfilePath)
	provisionfile := &Provisionfile{}
	if err = yaml.Unmarshal(provisionfileBytes, provisionfile); err != nil {
		return nil, fmt.Errorf("Error parsing %s: %+v", provisionfilePath, err)
	}

	absoluteProvisionfilePath, err := filepath.Abs(provisionfilePath)
	if err != nil {
		return nil, fmt.Errorf("Error determining working directory: %+v", err)
	}

	absoluteWorkingDir := filepath.Dir(absoluteProvisionfilePath)
	return NewParsedProvisionfile(provisionfile, absoluteWorkingDir, provisionfileBytes), nil
}

// ResolvePath resolves path against base when path is not absolute
func ResolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
