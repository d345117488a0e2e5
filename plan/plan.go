// Package plan builds the immutable provisioning plan a run hands to the
// provisioning engine
package plan

import (
	"fmt"
	"strings"

	"github.com/dimes/zprovision/model"
)

const (
	// DefaultConfigModel is used when a config spec declares no model
	DefaultConfigModel = "standalone"

	// DefaultConfigName is used when a config spec declares no name
	DefaultConfigName = "standalone.yaml"

	// DomainConfigModel marks managed-domain configurations
	DomainConfigModel = "domain"

	// OptionOptionalPackages controls how optional packages of included
	// layers are selected
	OptionOptionalPackages = "optional-packages"

	// OptionalPackagesPassive is the passive-inclusion policy injected as
	// the default when layers are used
	OptionalPackagesPassive = "passive+"

	// OptionForkEmbedded requests that engine and script execution run in a
	// forked process per run
	OptionForkEmbedded = "fork-embedded"
)

// InvalidSpecError is returned when the declarative spec violates a
// structural invariant. It is always detected before any network I/O.
type InvalidSpecError struct {
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return "invalid provisioning spec: " + e.Reason
}

// FeaturePackDep is a feature-pack reference converted into a plan dependency
// entry
type FeaturePackDep struct {
	Location   string            `yaml:"location,omitempty"`
	Coordinate *model.Coordinate `yaml:"coordinate,omitempty"`
	Path       string            `yaml:"path,omitempty"`

	InheritConfigs   *bool            `yaml:"inherit-configs,omitempty"`
	InheritPackages  *bool            `yaml:"inherit-packages,omitempty"`
	IncludedConfigs  []model.ConfigID `yaml:"included-configs,omitempty"`
	ExcludedConfigs  []model.ConfigID `yaml:"excluded-configs,omitempty"`
	IncludedPackages []string         `yaml:"included-packages,omitempty"`
	ExcludedPackages []string         `yaml:"excluded-packages,omitempty"`
	Transitive       bool             `yaml:"transitive,omitempty"`
}

// ResolveCoordinate returns the artifact coordinate this dependency resolves
// through. Location strings have the form group:artifact[:version].
func (f FeaturePackDep) ResolveCoordinate() (model.Coordinate, error) {
	if f.Coordinate != nil {
		return *f.Coordinate, nil
	}

	if f.Location == "" {
		return model.Coordinate{}, fmt.Errorf("Feature-pack %s has no resolvable coordinate", f.String())
	}

	parts := strings.Split(f.Location, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return model.Coordinate{}, fmt.Errorf("Location %q is not of the form group:artifact[:version]", f.Location)
	}

	coordinate := model.Coordinate{
		Group:    parts[0],
		Artifact: parts[1],
	}
	if len(parts) > 2 {
		coordinate.Version = parts[2]
	}

	return coordinate, nil
}

// String returns a human readable string representing this dependency
func (f FeaturePackDep) String() string {
	if f.Location != "" {
		return f.Location
	}
	if f.Path != "" {
		return f.Path
	}
	if f.Coordinate != nil {
		return f.Coordinate.String()
	}
	return "<empty feature pack>"
}

// ConfigModel is a config spec converted into a plan configuration entry
type ConfigModel struct {
	Model          string   `yaml:"model"`
	Name           string   `yaml:"name"`
	IncludedLayers []string `yaml:"included-layers,omitempty"`
	ExcludedLayers []string `yaml:"excluded-layers,omitempty"`
}

// ProvisioningPlan is the fully resolved, immutable description of what to
// install. Each provisioning run constructs exactly one.
type ProvisioningPlan struct {
	featurePacks []FeaturePackDep
	configs      []ConfigModel
	options      map[string]string
}

// FeaturePacks returns the plan's ordered feature-pack dependencies
func (p *ProvisioningPlan) FeaturePacks() []FeaturePackDep {
	deps := make([]FeaturePackDep, len(p.featurePacks))
	copy(deps, p.featurePacks)
	return deps
}

// Configs returns the plan's configuration entries
func (p *ProvisioningPlan) Configs() []ConfigModel {
	configs := make([]ConfigModel, len(p.configs))
	copy(configs, p.configs)
	return configs
}

// Options returns a copy of the plan's merged option map
func (p *ProvisioningPlan) Options() map[string]string {
	options := make(map[string]string, len(p.options))
	for key, value := range p.options {
		options[key] = value
	}
	return options
}

// Option returns a single option value
func (p *ProvisioningPlan) Option(key string) (string, bool) {
	value, ok := p.options[key]
	return value, ok
}

// HasLayers returns whether any plan configuration includes layers
func (p *ProvisioningPlan) HasLayers() bool {
	for _, config := range p.configs {
		if len(config.IncludedLayers) > 0 {
			return true
		}
	}
	return false
}

// String returns a short human readable description of the plan
func (p *ProvisioningPlan) String() string {
	return fmt.Sprintf("plan with %d feature-packs and %d configs",
		len(p.featurePacks), len(p.configs))
}
