package commands

import (
	"fmt"

	"github.com/dimes/zprovision/cli/argv"
	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"
	"github.com/dimes/zprovision/repo"
)

type publish struct{}

func (p *publish) Describe() string {
	return "Publishes an artifact to the remote repository"
}

func (p *publish) Exec(workingDir string, args ...string) error {
	var specPath string
	var file string
	var group string
	var artifact string
	var version string
	var classifier string
	var extension string
	argSet := argv.NewArgSet()
	argSet.ExpectString(&specPath, "f", "", "path to the provisioning spec file")
	argSet.ExpectString(&file, "file", "", "the artifact file to publish")
	argSet.ExpectString(&group, "group", "", "the artifact group id")
	argSet.ExpectString(&artifact, "artifact", "", "the artifact id")
	argSet.ExpectString(&version, "version", "", "the artifact version")
	argSet.ExpectString(&classifier, "classifier", "", "the optional artifact classifier")
	argSet.ExpectString(&extension, "type", "", "the optional artifact type")
	if _, err := argSet.Parse(args); err != nil {
		return fmt.Errorf("Error parsing args: %+v", err)
	}

	if file == "" {
		return fmt.Errorf("An artifact file is required")
	}

	coordinate := model.Coordinate{
		Group:      group,
		Artifact:   artifact,
		Classifier: classifier,
		Extension:  extension,
		Version:    version,
	}

	if err := repo.IsValid(coordinate); err != nil {
		return err
	}

	if !coordinate.HasVersion() {
		return fmt.Errorf("A version is required to publish %s", coordinate.String())
	}

	parsed, err := parseSpec(workingDir, specPath)
	if err != nil {
		return err
	}

	if parsed.Repository.Type != repo.RemoteSourceType {
		return fmt.Errorf("Publishing requires a remote repository, got type %q",
			parsed.Repository.Type)
	}

	session, err := repo.NewSession(parsed.AbsoluteTargetDir, "")
	if err != nil {
		return err
	}

	source, err := newRemoteSource(parsed.Repository, session)
	if err != nil {
		return err
	}

	sourcePath := model.ResolvePath(workingDir, file)
	provlog.Infof("Publishing %s as %s", sourcePath, coordinate.String())
	if err := source.Publish(coordinate, sourcePath); err != nil {
		return fmt.Errorf("Error publishing %s: %+v", coordinate.String(), err)
	}

	provlog.Infof("Published %s", coordinate.String())
	return nil
}
