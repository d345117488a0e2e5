package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFileRoundTrip(t *testing.T) {
	built, err := Build(Spec{
		FeaturePackLocation: "com.example:core:1.0.0",
		Options:             map[string]string{"key": "value"},
	})
	require.NoError(t, err)

	home := t.TempDir()
	require.NoError(t, SavePlanFile(built, home))

	planPath := filepath.Join(home, StateDirName, PlanFileName)
	require.FileExists(t, planPath)

	loaded, err := LoadPlanFile(planPath)
	require.NoError(t, err)
	assert.Equal(t, built.FeaturePacks(), loaded.FeaturePacks())
	assert.Equal(t, built.Options(), loaded.Options())
}

func TestLoadPlanFileRejectsEmptyPlan(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "provisioning.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte("options:\n  key: value\n"), 0644))

	_, err := LoadPlanFile(planPath)
	require.Error(t, err)

	invalid := &InvalidSpecError{}
	assert.ErrorAs(t, err, &invalid)
}

func TestLoadPlanFileMissing(t *testing.T) {
	_, err := LoadPlanFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
