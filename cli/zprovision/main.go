package main

import (
	"os"

	"github.com/dimes/zprovision/cli/argv"
	"github.com/dimes/zprovision/cli/commands"
	"github.com/dimes/zprovision/engine"
	"github.com/dimes/zprovision/provlog"
)

var (
	knownCommands = map[string]commands.Command{
		"provision": commands.Provision,
		"package":   commands.Package,
		"update":    commands.Update,
		"init-repo": commands.InitRepo,
		"publish":   commands.Publish,
	}
)

func main() {
	var verbose bool
	argSet := argv.NewArgSet()
	argSet.ExpectBool(&verbose, "v", false, "enable verbose logging")
	rest, err := argSet.Parse(os.Args[1:])
	if err != nil {
		provlog.Fatalf("Error parsing args: %+v", err)
	}

	provlog.SetLogLevel(provlog.LevelInfo)
	if verbose {
		provlog.SetLogLevel(provlog.LevelDebug)
	}

	if err := engine.RegisterProvisioner(engine.NewTarProvisioner()); err != nil {
		provlog.Fatalf("Error registering provisioner: %+v", err)
	}

	if len(rest) == 0 {
		provlog.Errorf("No command specified")
		printUsage(argSet)
		os.Exit(1)
	}

	commandName := rest[0]
	command, ok := knownCommands[commandName]
	if !ok {
		provlog.Errorf("Unknown command %s", commandName)
		printUsage(argSet)
		os.Exit(1)
	}

	workingDir, err := os.Getwd()
	if err != nil {
		provlog.Fatalf("Error getting working directory: %+v", err)
	}

	if err := command.Exec(workingDir, rest[1:]...); err != nil {
		provlog.Fatalf("Error executing command %s: %+v", commandName, err)
	}
}

func printUsage(argSet *argv.ArgSet) {
	provlog.Infof("Usage: %s [command] [options]", os.Args[0])
	provlog.Infof("Valid commands are:")
	for commandName, command := range knownCommands {
		provlog.Infof("\t%s\t%s", commandName, command.Describe())
	}
	provlog.Infof("Valid options are:")
	argSet.PrintUsage()
}
