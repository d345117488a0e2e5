package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dimes/zprovision/cli/argv"
	"github.com/dimes/zprovision/copyutil"
	"github.com/dimes/zprovision/deploy"
	"github.com/dimes/zprovision/image"
	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/plan"
	"github.com/dimes/zprovision/provlog"

	yaml "gopkg.in/yaml.v2"
)

const deploymentsDir = "deployments"

type pkg struct{}

// imageSection is the optional application-image part of the spec file,
// parsed separately so the image config stays next to the code that uses it
type imageSection struct {
	Image *image.Info `yaml:"image,omitempty"`
}

func (p *pkg) Describe() string {
	return "Provisions a server and packages the application into it"
}

func (p *pkg) Exec(workingDir string, args ...string) error {
	var specPath string
	argSet := argv.NewArgSet()
	argSet.ExpectString(&specPath, "f", "", "path to the provisioning spec file")
	if _, err := argSet.Parse(args); err != nil {
		return fmt.Errorf("Error parsing args: %+v", err)
	}

	parsed, err := parseSpec(workingDir, specPath)
	if err != nil {
		return err
	}

	result, err := provisionFromSpec(parsed)
	if err != nil {
		return err
	}

	for _, contentDir := range parsed.ExtraContentDirs {
		resolved := model.ResolvePath(parsed.AbsoluteWorkingDir, contentDir)
		if err := copyExtraContent(resolved, result.Home); err != nil {
			return err
		}
	}

	if parsed.Deployment != nil {
		if err := installDeployment(parsed, result.Home); err != nil {
			return err
		}
	}

	return buildApplicationImage(parsed, result)
}

// copyExtraContent merges an extra content directory into the installation,
// warning when provisioned files get overridden
func copyExtraContent(contentDir, home string) error {
	if info, err := os.Stat(contentDir); err != nil || !info.IsDir() {
		return fmt.Errorf("Extra content directory %s does not exist", contentDir)
	}

	provlog.Infof("Copying extra content from %s", contentDir)
	err := filepath.Walk(contentDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relativePath, err := filepath.Rel(contentDir, path)
		if err != nil {
			return err
		}

		target := filepath.Join(home, relativePath)
		if _, err := os.Stat(target); err == nil {
			provlog.Warningf("Extra content overrides provisioned file %s", relativePath)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("Error inspecting extra content %s: %+v", contentDir, err)
	}

	return copyutil.Copy(contentDir, home)
}

// installDeployment copies the application artifact into the server's
// deployments directory and records the CLI commands that deploy it
func installDeployment(parsed *model.ParsedProvisionfile, home string) error {
	deployment := parsed.Deployment
	artifactPath := model.ResolvePath(parsed.AbsoluteWorkingDir, deployment.Artifact)

	name := deployment.Name
	if name == "" {
		name = filepath.Base(artifactPath)
	}

	configName := deployment.ConfigName
	if configName == "" {
		configName = plan.DefaultConfigName
	}

	commands, err := deploy.GetDeploymentCommands(artifactPath, name, deployment.RuntimeName,
		deployment.ServerGroups, configName)
	if err != nil {
		return err
	}

	configModel := plan.DefaultConfigModel
	if deploy.IsDomainConfig(configName) {
		configModel = plan.DomainConfigModel
	}

	deploymentTarget := filepath.Join(home, configModel, deploymentsDir, name)
	if err := os.MkdirAll(filepath.Dir(deploymentTarget), 0755); err != nil {
		return fmt.Errorf("Error creating deployments directory: %+v", err)
	}

	provlog.Infof("Deploying %s", artifactPath)
	if err := copyutil.Copy(artifactPath, deploymentTarget); err != nil {
		return err
	}

	wrapped := deploy.WrapForOfflineExecution(commands, configName)
	scriptPath := filepath.Join(home, plan.StateDirName, "deploy.cli")
	if err := os.MkdirAll(filepath.Dir(scriptPath), 0755); err != nil {
		return fmt.Errorf("Error creating state directory: %+v", err)
	}

	script := strings.Join(wrapped, "\n") + "\n"
	if err := os.WriteFile(scriptPath, []byte(script), 0644); err != nil {
		return fmt.Errorf("Error writing deployment script %s: %+v", scriptPath, err)
	}

	return nil
}

// buildApplicationImage builds the application container image when the spec
// requests one
func buildApplicationImage(parsed *model.ParsedProvisionfile, result *provisionResult) error {
	section := &imageSection{}
	if err := yaml.Unmarshal(parsed.RawProvisionfile, section); err != nil {
		return fmt.Errorf("Error parsing image configuration: %+v", err)
	}

	if section.Image == nil || !section.Image.Build {
		return nil
	}

	if err := image.CheckBinary(); err != nil {
		return err
	}

	artifactID := "application"
	if parsed.Deployment != nil {
		base := filepath.Base(parsed.Deployment.Artifact)
		artifactID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return section.Image.BuildAndPush(parsed.AbsoluteTargetDir, artifactID, result.ProvisionDir)
}
