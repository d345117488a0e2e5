package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dimes/zprovision/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationShorthandExpands(t *testing.T) {
	p, err := Build(Spec{FeaturePackLocation: "com.example:core:1.0.0"})
	require.NoError(t, err)

	deps := p.FeaturePacks()
	require.Len(t, deps, 1)
	assert.Equal(t, "com.example:core:1.0.0", deps[0].Location)
}

func TestLocationAndListMutuallyExclusive(t *testing.T) {
	_, err := Build(Spec{
		FeaturePackLocation: "com.example:core",
		FeaturePacks:        []model.FeaturePackRef{{Location: "com.example:extra"}},
	})
	require.Error(t, err)

	invalid := &InvalidSpecError{}
	assert.ErrorAs(t, err, &invalid)
}

func TestLayersRequireFeaturePacks(t *testing.T) {
	_, err := Build(Spec{
		Configs: []model.ConfigSpec{{Layers: []string{"web-server"}}},
	})
	require.Error(t, err)

	invalid := &InvalidSpecError{}
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "layers")
}

func TestOptionalPackagesInjectedWithLayers(t *testing.T) {
	p, err := Build(Spec{
		FeaturePackLocation: "com.example:core",
		Configs:             []model.ConfigSpec{{Layers: []string{"web-server"}}},
	})
	require.NoError(t, err)

	value, ok := p.Option(OptionOptionalPackages)
	require.True(t, ok)
	assert.Equal(t, OptionalPackagesPassive, value)
}

func TestCallerOptionalPackagesWins(t *testing.T) {
	p, err := Build(Spec{
		FeaturePackLocation: "com.example:core",
		Configs:             []model.ConfigSpec{{Layers: []string{"web-server"}}},
		Options:             map[string]string{OptionOptionalPackages: "passive"},
	})
	require.NoError(t, err)

	value, _ := p.Option(OptionOptionalPackages)
	assert.Equal(t, "passive", value)
}

func TestNoInjectionWithoutLayers(t *testing.T) {
	p, err := Build(Spec{FeaturePackLocation: "com.example:core"})
	require.NoError(t, err)

	_, ok := p.Option(OptionOptionalPackages)
	assert.False(t, ok)
}

func TestCallerOptionsNotMutated(t *testing.T) {
	options := map[string]string{"jboss-fork-embedded": "true"}
	_, err := Build(Spec{
		FeaturePackLocation: "com.example:core",
		Configs:             []model.ConfigSpec{{Layers: []string{"web-server"}}},
		Options:             options,
	})
	require.NoError(t, err)
	assert.Len(t, options, 1)
}

func TestMissingIdentityRejected(t *testing.T) {
	_, err := Build(Spec{
		FeaturePacks: []model.FeaturePackRef{{Classifier: "dist"}},
	})
	require.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	p, err := Build(Spec{
		FeaturePackLocation: "com.example:core",
		Configs:             []model.ConfigSpec{{}},
	})
	require.NoError(t, err)

	configs := p.Configs()
	require.Len(t, configs, 1)
	assert.Equal(t, DefaultConfigModel, configs[0].Model)
	assert.Equal(t, DefaultConfigName, configs[0].Name)
}

func TestNoProvisioningSource(t *testing.T) {
	_, err := Build(Spec{})
	require.Error(t, err)

	invalid := &InvalidSpecError{}
	assert.ErrorAs(t, err, &invalid)
}

func TestPlanFileUsedWhenNoFeaturePacks(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "provisioning.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte(`feature-packs:
  - location: com.example:core:1.0.0
`), 0644))

	p, err := Build(Spec{PlanFile: planPath})
	require.NoError(t, err)

	deps := p.FeaturePacks()
	require.Len(t, deps, 1)
	assert.Equal(t, "com.example:core:1.0.0", deps[0].Location)
}

func TestFeaturePackListWinsOverPlanFile(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "provisioning.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte(`feature-packs:
  - location: com.example:ignored:1.0.0
`), 0644))

	p, err := Build(Spec{
		FeaturePackLocation: "com.example:core",
		PlanFile:            planPath,
	})
	require.NoError(t, err)

	deps := p.FeaturePacks()
	require.Len(t, deps, 1)
	assert.Equal(t, "com.example:core", deps[0].Location)
}

func TestCoordinatesCarriedIntoDependency(t *testing.T) {
	p, err := Build(Spec{
		FeaturePacks: []model.FeaturePackRef{{
			Group:    "com.example",
			Artifact: "core",
			Version:  "1.0.0",
			Type:     "tar.gz",
		}},
	})
	require.NoError(t, err)

	deps := p.FeaturePacks()
	require.Len(t, deps, 1)
	require.NotNil(t, deps[0].Coordinate)
	assert.Equal(t, "com.example", deps[0].Coordinate.Group)
	assert.Equal(t, "tar.gz", deps[0].Coordinate.Extension)
}

func TestResolveCoordinateFromLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     model.Coordinate
		wantErr  bool
	}{
		{
			name:     "with version",
			location: "com.example:core:1.0.0",
			want:     model.Coordinate{Group: "com.example", Artifact: "core", Version: "1.0.0"},
		},
		{
			name:     "without version",
			location: "com.example:core",
			want:     model.Coordinate{Group: "com.example", Artifact: "core"},
		},
		{
			name:     "missing artifact",
			location: "com.example",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep := FeaturePackDep{Location: tt.location}
			got, err := dep.ResolveCoordinate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanAccessorsReturnCopies(t *testing.T) {
	p, err := Build(Spec{
		FeaturePackLocation: "com.example:core",
		Options:             map[string]string{"key": "value"},
	})
	require.NoError(t, err)

	options := p.Options()
	options["key"] = "changed"
	value, _ := p.Option("key")
	assert.Equal(t, "value", value)

	deps := p.FeaturePacks()
	deps[0].Location = "changed"
	assert.Equal(t, "com.example:core", p.FeaturePacks()[0].Location)
}
