package engine

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dimes/zprovision/plan"
	"github.com/dimes/zprovision/provlog"

	yaml "gopkg.in/yaml.v2"
)

const (
	// TarProvisionerType is the type identifier for the tarball engine
	TarProvisionerType = "tar"

	packagesDir      = "packages"
	packageContent   = "content"
	configurationDir = "configuration"
)

// TarProvisioner is the default engine. Feature packs are tar.gz artifacts
// whose packages/<name>/content trees are merged into the installation root;
// everything else in the pack lands under the installation state directory.
type TarProvisioner struct{}

// NewTarProvisioner returns a new instance of the tarball engine
func NewTarProvisioner() *TarProvisioner {
	return &TarProvisioner{}
}

// Type returns the type this provisioner should be registered under
func (t *TarProvisioner) Type() string {
	return TarProvisionerType
}

// Provision materializes the plan into home. Feature packs install in plan
// order; configurations are generated last.
func (t *TarProvisioner) Provision(home string, p *plan.ProvisioningPlan, resolver ArtifactResolver) error {
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("Error creating installation directory %s: %+v", home, err)
	}

	for _, dep := range p.FeaturePacks() {
		if err := t.installFeaturePack(home, dep, resolver); err != nil {
			return &Failure{Element: dep.String(), Cause: err}
		}
	}

	for _, config := range p.Configs() {
		if err := t.generateConfig(home, config); err != nil {
			return &Failure{Element: config.Model + "/" + config.Name, Cause: err}
		}
	}

	return nil
}

func (t *TarProvisioner) installFeaturePack(home string, dep plan.FeaturePackDep,
	resolver ArtifactResolver) error {
	packPath := ""
	packName := ""

	switch {
	case dep.Path != "":
		packPath = dep.Path
		packName = strings.TrimSuffix(filepath.Base(dep.Path), ".tar.gz")
	default:
		coordinate, err := dep.ResolveCoordinate()
		if err != nil {
			return err
		}

		resolved, err := resolver.Resolve(coordinate)
		if err != nil {
			return err
		}
		packPath = resolved.LocalPath
		packName = resolved.Coordinate.Artifact
	}

	provlog.Infof("Installing feature-pack %s", dep.String())
	return t.unpack(packPath, home, packName, dep)
}

// unpack extracts the feature-pack tarball. Entries under
// packages/<name>/content go into the installation root subject to the
// dependency's package selection; every other entry is kept under the state
// directory for layer and config lookup.
func (t *TarProvisioner) unpack(packPath, home, packName string, dep plan.FeaturePackDep) error {
	file, err := os.Open(packPath)
	if err != nil {
		return fmt.Errorf("Error opening feature-pack %s: %+v", packPath, err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("Error opening gzip reader for %s: %+v", packPath, err)
	}
	defer gzipReader.Close()

	stateDir := filepath.Join(home, plan.StateDirName, "feature-packs", packName)
	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}

		if err != nil {
			return fmt.Errorf("Error reading tar header in %s: %+v", packPath, err)
		}

		if header == nil {
			continue
		}

		name := filepath.Clean(filepath.FromSlash(header.Name))
		if name == "." || strings.HasPrefix(name, "..") {
			continue
		}

		destination, ok := t.destinationFor(name, home, stateDir, dep)
		if !ok {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destination, 0755); err != nil {
				return fmt.Errorf("Error creating directory %s: %+v", destination, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
				return fmt.Errorf("Error creating directory for %s: %+v", destination, err)
			}

			out, err := os.OpenFile(destination, os.O_CREATE|os.O_TRUNC|os.O_WRONLY,
				os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("Error opening file %s: %+v", destination, err)
			}

			if _, err := io.Copy(out, tarReader); err != nil {
				out.Close()
				return fmt.Errorf("Error copying file %s: %+v", destination, err)
			}
			out.Close()
		default:
			provlog.Debugf("Unknown header typeflag %.2x", header.Typeflag)
		}
	}
}

// destinationFor maps a tar entry to its installation path, or false when the
// entry's package is not selected by the dependency
func (t *TarProvisioner) destinationFor(name, home, stateDir string,
	dep plan.FeaturePackDep) (string, bool) {
	parts := strings.Split(name, string(os.PathSeparator))
	if parts[0] != packagesDir || len(parts) < 2 {
		return filepath.Join(stateDir, name), true
	}

	packageName := parts[1]
	if !packageSelected(packageName, dep) {
		return "", false
	}

	if len(parts) < 3 || parts[2] != packageContent {
		// Package metadata stays in the state directory
		return filepath.Join(stateDir, name), true
	}

	return filepath.Join(home, filepath.Join(parts[3:]...)), true
}

func packageSelected(packageName string, dep plan.FeaturePackDep) bool {
	for _, excluded := range dep.ExcludedPackages {
		if excluded == packageName {
			return false
		}
	}

	inherit := dep.InheritPackages == nil || *dep.InheritPackages
	if inherit {
		return true
	}

	for _, included := range dep.IncludedPackages {
		if included == packageName {
			return true
		}
	}
	return false
}

type configDocument struct {
	Model          string   `yaml:"model"`
	Name           string   `yaml:"name"`
	Layers         []string `yaml:"layers,omitempty"`
	ExcludedLayers []string `yaml:"excluded-layers,omitempty"`
}

func (t *TarProvisioner) generateConfig(home string, config plan.ConfigModel) error {
	document := &configDocument{
		Model:          config.Model,
		Name:           config.Name,
		Layers:         config.IncludedLayers,
		ExcludedLayers: config.ExcludedLayers,
	}

	configBytes, err := yaml.Marshal(document)
	if err != nil {
		return fmt.Errorf("Error serializing configuration %s: %+v", config.Name, err)
	}

	configDir := filepath.Join(home, config.Model, configurationDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("Error creating configuration directory %s: %+v", configDir, err)
	}

	configPath := filepath.Join(configDir, config.Name)
	if err := os.WriteFile(configPath, configBytes, 0644); err != nil {
		return fmt.Errorf("Error writing configuration %s: %+v", configPath, err)
	}

	provlog.Infof("Generated configuration %s", configPath)
	return nil
}
