package plan

import (
	"fmt"
	"os"

	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"
)

// Spec is the declarative input a plan is built from
type Spec struct {
	FeaturePacks        []model.FeaturePackRef
	FeaturePackLocation string
	Configs             []model.ConfigSpec
	Options             map[string]string

	// PlanFile is the path to a pre-authored plan used when no feature
	// packs are declared
	PlanFile string
}

// Build produces exactly one provisioning plan from the spec. All structural
// validation happens here, before any network or repository I/O. The caller's
// option map is never mutated; defaults are merged into a new map with caller
// values winning.
func Build(spec Spec) (*ProvisioningPlan, error) {
	featurePacks, err := normalizeFeaturePacks(spec)
	if err != nil {
		return nil, err
	}

	hasLayers := false
	for _, config := range spec.Configs {
		if len(config.Layers) > 0 {
			hasLayers = true
			break
		}
	}

	if hasLayers && len(featurePacks) == 0 {
		return nil, &InvalidSpecError{
			Reason: "layers are declared but no feature-pack provides them, set a feature-pack-location or a feature-pack list",
		}
	}

	planFileExists := false
	if spec.PlanFile != "" {
		if _, err := os.Stat(spec.PlanFile); err == nil {
			planFileExists = true
		}
	}

	if len(featurePacks) == 0 {
		if !planFileExists {
			return nil, &InvalidSpecError{
				Reason: "no provisioning source, set a feature-pack-location, a feature-pack list or a plan file",
			}
		}
		provlog.Infof("Provisioning using plan file %s", spec.PlanFile)
		return LoadPlanFile(spec.PlanFile)
	}

	if planFileExists {
		provlog.Warningf("Plan file %s is ignored, the declared feature-pack list is used", spec.PlanFile)
	}

	deps := make([]FeaturePackDep, 0, len(featurePacks))
	for _, ref := range featurePacks {
		deps = append(deps, convertFeaturePack(ref))
	}

	configs := make([]ConfigModel, 0, len(spec.Configs))
	for _, config := range spec.Configs {
		configs = append(configs, convertConfig(config))
	}

	return &ProvisioningPlan{
		featurePacks: deps,
		configs:      configs,
		options:      mergeOptions(spec.Options, hasLayers),
	}, nil
}

// normalizeFeaturePacks expands the single-location shorthand and validates
// every reference
func normalizeFeaturePacks(spec Spec) ([]model.FeaturePackRef, error) {
	if spec.FeaturePackLocation != "" {
		if len(spec.FeaturePacks) > 0 {
			return nil, &InvalidSpecError{
				Reason: "feature-pack-location cannot be used together with a feature-pack list",
			}
		}
		return []model.FeaturePackRef{{Location: spec.FeaturePackLocation}}, nil
	}

	for _, ref := range spec.FeaturePacks {
		if ref.Location == "" && !ref.HasCoordinates() && ref.Path == "" {
			return nil, &InvalidSpecError{
				Reason: "feature-pack entry is missing a location, artifact coordinates or local path",
			}
		}
	}

	return spec.FeaturePacks, nil
}

// convertFeaturePack carries the reference's inclusion and exclusion sets
// into the dependency entry verbatim
func convertFeaturePack(ref model.FeaturePackRef) FeaturePackDep {
	dep := FeaturePackDep{
		InheritConfigs:   ref.InheritConfigs,
		InheritPackages:  ref.InheritPackages,
		IncludedConfigs:  ref.IncludedConfigs,
		ExcludedConfigs:  ref.ExcludedConfigs,
		IncludedPackages: ref.IncludedPackages,
		ExcludedPackages: ref.ExcludedPackages,
		Transitive:       ref.Transitive,
	}

	switch {
	case ref.Path != "":
		dep.Path = ref.Path
	case ref.HasCoordinates():
		dep.Coordinate = &model.Coordinate{
			Group:      ref.Group,
			Artifact:   ref.Artifact,
			Classifier: ref.Classifier,
			Extension:  ref.Type,
			Version:    ref.Version,
		}
	default:
		dep.Location = ref.Location
	}

	return dep
}

func convertConfig(config model.ConfigSpec) ConfigModel {
	converted := ConfigModel{
		Model:          config.Model,
		Name:           config.Name,
		IncludedLayers: config.Layers,
		ExcludedLayers: config.ExcludedLayers,
	}
	if converted.Model == "" {
		converted.Model = DefaultConfigModel
	}
	if converted.Name == "" {
		converted.Name = DefaultConfigName
	}
	return converted
}

// mergeOptions returns a new option map: the caller's entries plus the
// optional-packages default when layers are in play and the caller did not
// choose a policy
func mergeOptions(options map[string]string, hasLayers bool) map[string]string {
	merged := make(map[string]string, len(options)+1)
	for key, value := range options {
		merged[key] = value
	}

	if hasLayers {
		if _, ok := merged[OptionOptionalPackages]; !ok {
			merged[OptionOptionalPackages] = OptionalPackagesPassive
		}
	}

	return merged
}

// Validate reports whether a loaded plan is structurally usable
func Validate(p *ProvisioningPlan) error {
	if len(p.featurePacks) == 0 {
		return &InvalidSpecError{Reason: "plan declares no feature-packs"}
	}
	for _, dep := range p.featurePacks {
		if dep.Location == "" && dep.Coordinate == nil && dep.Path == "" {
			return &InvalidSpecError{
				Reason: fmt.Sprintf("plan feature-pack entry %s has no resolvable source", dep.String()),
			}
		}
	}
	return nil
}
