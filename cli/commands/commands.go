// Package commands contains the commands exposed by the zprovision CLI
package commands

import (
	"github.com/dimes/zprovision/provlog"

	"github.com/manifoldco/promptui"
)

var (
	// Provision is the command that provisions a server from a spec file
	Provision Command = &provision{}

	// Package is the command that provisions a server and packages the
	// application into it
	Package Command = &pkg{}

	// Update is the command that re-provisions an existing installation
	Update Command = &update{}

	// InitRepo is the command that initializes a remote artifact repository
	InitRepo Command = &initRepo{}

	// Publish is the command that publishes an artifact to a remote
	// repository
	Publish Command = &publish{}
)

// Command is an interface for commands
type Command interface {
	Describe() string
	Exec(workingDir string, args ...string) error
}

func readLineWithPrompt(label string, validate promptui.ValidateFunc, defaultVal string) string {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
		Default:  defaultVal,
	}

	result, err := prompt.Run()
	if err != nil {
		provlog.Fatalf("Error getting option for label %s: %+v", label, err)
	}

	return result
}

func getYnConfirmation(label string) (bool, error) {
	prompt := promptui.Select{
		Label: label,
		Items: []string{"Yes", "No"},
	}

	selectedIndex, _, err := prompt.Run()
	if err != nil {
		return false, err
	}

	return selectedIndex == 0, nil
}
