package commands

import (
	"fmt"

	"github.com/dimes/zprovision/cli/argv"
	"github.com/dimes/zprovision/provlog"
)

type provision struct{}

func (p *provision) Describe() string {
	return "Provisions a server from the provisioning spec"
}

func (p *provision) Exec(workingDir string, args ...string) error {
	var specPath string
	argSet := argv.NewArgSet()
	argSet.ExpectString(&specPath, "f", "", "path to the provisioning spec file")
	rest, err := argSet.Parse(args)
	if err != nil {
		return fmt.Errorf("Error parsing args: %+v", err)
	}

	if len(rest) > 0 {
		provlog.Warningf("Ignoring extra arguments %+v", rest)
	}

	parsed, err := parseSpec(workingDir, specPath)
	if err != nil {
		return err
	}

	_, err = provisionFromSpec(parsed)
	return err
}
