package plan

import (
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"
)

const (
	// StateDirName is the hidden directory inside the installation tree
	// holding provisioning state
	StateDirName = ".zprovision"

	// PlanFileName is the plan-description document name
	PlanFileName = "provisioning.yaml"
)

// planDocument is the plan's native serialized form
type planDocument struct {
	FeaturePacks []FeaturePackDep  `yaml:"feature-packs"`
	Configs      []ConfigModel     `yaml:"configs,omitempty"`
	Options      map[string]string `yaml:"options,omitempty"`
}

// LoadPlanFile parses a plan-description document and uses it as-is
func LoadPlanFile(path string) (*ProvisioningPlan, error) {
	planBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error reading plan file %s: %+v", path, err)
	}

	document := &planDocument{}
	if err := yaml.Unmarshal(planBytes, document); err != nil {
		return nil, fmt.Errorf("Error parsing plan file %s: %+v", path, err)
	}

	loaded := &ProvisioningPlan{
		featurePacks: document.FeaturePacks,
		configs:      document.Configs,
		options:      document.Options,
	}
	if loaded.options == nil {
		loaded.options = make(map[string]string)
	}

	if err := Validate(loaded); err != nil {
		return nil, err
	}

	return loaded, nil
}

// SavePlanFile writes the plan-description document into the installation
// tree at home
func SavePlanFile(p *ProvisioningPlan, home string) error {
	document := &planDocument{
		FeaturePacks: p.featurePacks,
		Configs:      p.configs,
		Options:      p.options,
	}

	planBytes, err := yaml.Marshal(document)
	if err != nil {
		return fmt.Errorf("Error serializing plan: %+v", err)
	}

	stateDir := filepath.Join(home, StateDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("Error creating state directory %s: %+v", stateDir, err)
	}

	planPath := filepath.Join(stateDir, PlanFileName)
	if err := os.WriteFile(planPath, planBytes, 0644); err != nil {
		return fmt.Errorf("Error writing plan to %s: %+v", planPath, err)
	}

	return nil
}
