// Package image builds an application container image from a provisioned
// server by shelling out to an external container-build binary
package image

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dimes/zprovision/provlog"
)

const (
	// Binary is the container-build binary the package shells out to
	Binary = "docker"

	// DefaultTag is used when no image tag is configured
	DefaultTag = "latest"

	// DefaultRegistry is logged into when pushing without an explicit
	// registry
	DefaultRegistry = "docker.io"

	probeTimeout = 3 * time.Second
)

// UnavailableError is returned when the container-build binary is missing or
// fails its version probe
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s is not available: %+v", Binary, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Info configures the application image build
type Info struct {
	Build bool   `yaml:"build,omitempty"`
	Push  bool   `yaml:"push,omitempty"`
	JDK   string `yaml:"jdk,omitempty"`

	Group    string `yaml:"group,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Tag      string `yaml:"tag,omitempty"`
	Registry string `yaml:"registry,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// ApplicationImageName returns the full image name, defaulting the name part
// to the lower-cased artifact id
func (i *Info) ApplicationImageName(artifactID string) string {
	registry := ""
	if i.Registry != "" {
		registry = i.Registry + "/"
	}

	group := ""
	if i.Group != "" {
		group = i.Group + "/"
	}

	name := i.Name
	if name == "" {
		name = strings.ToLower(artifactID)
	}

	tag := i.Tag
	if tag == "" {
		tag = DefaultTag
	}

	return registry + group + name + ":" + tag
}

// RuntimeBaseImage returns the runtime base image for the configured JDK
// version. JDK 11 is the default.
func RuntimeBaseImage(jdkVersion string) string {
	switch jdkVersion {
	case "17":
		return "quay.io/zprovision/server-runtime-jdk17:latest"
	default:
		return "quay.io/zprovision/server-runtime-jdk11:latest"
	}
}

// CheckBinary probes the container-build binary with a version check under a
// fixed short timeout
func CheckBinary() error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, Binary, "-v")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return &UnavailableError{Cause: err}
	}

	return nil
}

// GenerateDockerfile writes the Dockerfile copying the provisioned server
// directory into the runtime base image
func GenerateDockerfile(contextDir, runtimeImage, serverDir string) error {
	dockerfile := fmt.Sprintf("FROM %s\nCOPY --chown=server:root %s $SERVER_HOME\nRUN chmod -R ug+rwX $SERVER_HOME\n",
		runtimeImage, serverDir)
	dockerfilePath := filepath.Join(contextDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(dockerfile), 0644); err != nil {
		return fmt.Errorf("Error writing %s: %+v", dockerfilePath, err)
	}
	return nil
}

// BuildAndPush builds the application image in contextDir and optionally
// pushes it to the configured registry
func (i *Info) BuildAndPush(contextDir, artifactID, serverDir string) error {
	runtimeImage := RuntimeBaseImage(i.JDK)
	if err := GenerateDockerfile(contextDir, runtimeImage, serverDir); err != nil {
		return err
	}

	imageName := i.ApplicationImageName(artifactID)
	provlog.Infof("Building application image %s using %s", imageName, Binary)
	provlog.Infof("Base image is %s", runtimeImage)

	if err := run(contextDir, nil, BuildArgs(imageName)...); err != nil {
		return fmt.Errorf("Error building image %s: %+v", imageName, err)
	}
	provlog.Infof("Successfully built application image %s", imageName)

	if !i.Push {
		return nil
	}

	registry := i.Registry
	if registry == "" {
		registry = DefaultRegistry
	}

	if i.User != "" {
		if err := run(contextDir, strings.NewReader(i.Password), LoginArgs(registry, i.User)...); err != nil {
			return fmt.Errorf("Error logging in to %s: %+v", registry, err)
		}
	}

	if err := run(contextDir, nil, PushArgs(imageName)...); err != nil {
		return fmt.Errorf("Error pushing image %s: %+v", imageName, err)
	}
	provlog.Infof("Successfully pushed application image %s", imageName)

	return nil
}

// BuildArgs is the argument vector that builds the image from the current
// directory
func BuildArgs(imageName string) []string {
	return []string{"build", "-t", imageName, "."}
}

// PushArgs is the argument vector that pushes the image
func PushArgs(imageName string) []string {
	return []string{"push", imageName}
}

// LoginArgs is the argument vector that logs in to the registry, reading the
// password from stdin
func LoginArgs(registry, user string) []string {
	return []string{"login", "-u", user, "--password-stdin", registry}
}

func run(dir string, stdin io.Reader, args ...string) error {
	provlog.Debugf("Executing %s %s", Binary, strings.Join(args, " "))
	cmd := exec.Command(Binary, args...)
	cmd.Dir = dir
	cmd.Stdin = stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
