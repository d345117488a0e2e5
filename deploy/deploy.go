// Package deploy generates the ordered management CLI commands that deploy
// an application into a provisioned server
package deploy

import (
	"fmt"
	"os"
	"strings"

	"github.com/dimes/zprovision/plan"
)

// PreconditionError is returned when a deployment cannot be attempted, e.g.
// the deployment artifact is absent or a managed-domain deployment names no
// server groups. It is reported before any CLI interaction.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "deployment precondition failed: " + e.Reason
}

// GetDeploymentCommands returns the ordered CLI commands deploying the
// artifact at artifactPath. configName selects standalone vs. managed-domain
// mode; domain deployments require at least one server group.
func GetDeploymentCommands(artifactPath, name, runtimeName string, serverGroups []string,
	configName string) ([]string, error) {
	if _, err := os.Stat(artifactPath); err != nil {
		return nil, &PreconditionError{
			Reason: fmt.Sprintf("deployment artifact %s could not be found", artifactPath),
		}
	}

	domain := IsDomainConfig(configName)
	if domain && len(serverGroups) == 0 {
		return nil, &PreconditionError{
			Reason: "managed-domain deployment requires at least one server group",
		}
	}

	command := fmt.Sprintf("deploy %s --force", artifactPath)
	if name != "" {
		command += " --name=" + name
	}
	if runtimeName != "" {
		command += " --runtime-name=" + runtimeName
	}
	if domain {
		command += " --server-groups=" + strings.Join(serverGroups, ",")
	}

	return []string{command}, nil
}

// WrapForOfflineExecution brackets the commands with embed and un-embed
// directives so they run against an embedded server instead of a live one
func WrapForOfflineExecution(commands []string, configName string) []string {
	wrapped := make([]string, 0, len(commands)+2)
	if IsDomainConfig(configName) {
		wrapped = append(wrapped, fmt.Sprintf("embed-host-controller --domain-config=%s --std-out=discard", configName))
		wrapped = append(wrapped, commands...)
		wrapped = append(wrapped, "stop-embedded-host-controller")
		return wrapped
	}

	wrapped = append(wrapped, fmt.Sprintf("embed-server --server-config=%s --std-out=discard", configName))
	wrapped = append(wrapped, commands...)
	wrapped = append(wrapped, "stop-embedded-server")
	return wrapped
}

// IsDomainConfig returns whether the configuration name selects the managed
// domain model
func IsDomainConfig(configName string) bool {
	return strings.HasPrefix(configName, plan.DomainConfigModel)
}
