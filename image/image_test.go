package image

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationImageName(t *testing.T) {
	tests := []struct {
		name       string
		info       Info
		artifactID string
		want       string
	}{
		{
			name:       "defaults",
			info:       Info{},
			artifactID: "My-App",
			want:       "my-app:latest",
		},
		{
			name:       "full name",
			info:       Info{Registry: "quay.io", Group: "team", Name: "app", Tag: "1.0"},
			artifactID: "ignored",
			want:       "quay.io/team/app:1.0",
		},
		{
			name:       "group without registry",
			info:       Info{Group: "team"},
			artifactID: "app",
			want:       "team/app:latest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.ApplicationImageName(tt.artifactID))
		})
	}
}

func TestRuntimeBaseImage(t *testing.T) {
	assert.Contains(t, RuntimeBaseImage("17"), "jdk17")
	assert.Contains(t, RuntimeBaseImage("11"), "jdk11")
	assert.Contains(t, RuntimeBaseImage(""), "jdk11")
}

func TestArgVectors(t *testing.T) {
	assert.Equal(t, []string{"build", "-t", "app:latest", "."}, BuildArgs("app:latest"))
	assert.Equal(t, []string{"push", "app:latest"}, PushArgs("app:latest"))
	assert.Equal(t, []string{"login", "-u", "user", "--password-stdin", "quay.io"},
		LoginArgs("quay.io", "user"))
}

func TestGenerateDockerfile(t *testing.T) {
	contextDir := t.TempDir()
	require.NoError(t, GenerateDockerfile(contextDir, RuntimeBaseImage("17"), "server"))

	contents, err := os.ReadFile(filepath.Join(contextDir, "Dockerfile"))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "FROM "+RuntimeBaseImage("17"))
	assert.Contains(t, string(contents), "COPY --chown=server:root server $SERVER_HOME")
}
