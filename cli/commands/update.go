package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dimes/zprovision/channel"
	"github.com/dimes/zprovision/cli/argv"
	"github.com/dimes/zprovision/engine"
	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/plan"
	"github.com/dimes/zprovision/provlog"
	"github.com/dimes/zprovision/repo"
)

type update struct{}

func (u *update) Describe() string {
	return "Re-provisions an existing installation against the current channels"
}

// Exec re-runs provisioning over an existing installation. The plan recorded
// in the installation drives the run; channels decide which versions change.
// With -pinned the installation's own resolution record is used as the only
// channel, reproducing the previous run exactly.
func (u *update) Exec(workingDir string, args ...string) error {
	var specPath string
	var home string
	var pinned bool
	argSet := argv.NewArgSet()
	argSet.ExpectString(&specPath, "f", "", "path to the provisioning spec file")
	argSet.ExpectString(&home, "home", "", "path to the installation to update")
	argSet.ExpectBool(&pinned, "pinned", false, "resolve against the installation's resolution record")
	if _, err := argSet.Parse(args); err != nil {
		return fmt.Errorf("Error parsing args: %+v", err)
	}

	parsed, err := parseSpec(workingDir, specPath)
	if err != nil {
		return err
	}

	if home == "" {
		provisionDir := parsed.ProvisionDir
		if provisionDir == "" {
			provisionDir = DefaultProvisionDir
		}
		home = filepath.Join(parsed.AbsoluteTargetDir, provisionDir)
	} else {
		home = model.ResolvePath(workingDir, home)
	}

	if info, err := os.Stat(home); err != nil || !info.IsDir() {
		return fmt.Errorf("No installation found at %s", home)
	}

	p, err := loadInstalledPlan(home, parsed)
	if err != nil {
		return err
	}

	localCache := parsed.Channels.LocalCache
	if localCache != "" {
		localCache = model.ResolvePath(parsed.AbsoluteWorkingDir, localCache)
	}

	session, err := repo.NewSession(parsed.AbsoluteTargetDir, localCache)
	if err != nil {
		return err
	}

	source, err := newVersionSource(parsed, session)
	if err != nil {
		return err
	}

	channels, err := u.loadChannels(home, parsed, source, pinned)
	if err != nil {
		return err
	}

	resolver := channel.NewOverlayResolver(channels, source,
		parsed.Channels.DisableLatestResolution)

	provisioner := engine.GetProvisionerForType(engine.TarProvisionerType)
	if provisioner == nil {
		return fmt.Errorf("No provisioner registered for type %s", engine.TarProvisionerType)
	}

	provlog.Infof("Updating installation %s", home)
	if err := provisioner.Provision(home, p, resolver); err != nil {
		return err
	}

	if err := plan.SavePlanFile(p, home); err != nil {
		return err
	}

	// An update that resolved nothing must not clobber the installation's
	// existing resolution record with an empty one
	if len(channels) > 0 && resolver.Recorder().Len() > 0 {
		if err := resolver.Recorder().Flush(home); err != nil {
			return err
		}
	}

	provlog.Infof("Installation %s updated", home)
	return nil
}

// loadInstalledPlan prefers the plan recorded inside the installation, then
// the one saved next to it, then the spec's own plan declaration
func loadInstalledPlan(home string, parsed *model.ParsedProvisionfile) (*plan.ProvisioningPlan, error) {
	candidates := []string{
		filepath.Join(home, plan.StateDirName, plan.PlanFileName),
		filepath.Join(parsed.AbsoluteTargetDir, plan.StateDirName, plan.PlanFileName),
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			provlog.Debugf("Updating from recorded plan %s", candidate)
			return plan.LoadPlanFile(candidate)
		}
	}

	return buildPlan(parsed)
}

func (u *update) loadChannels(home string, parsed *model.ParsedProvisionfile,
	source repo.VersionSource, pinned bool) ([]*channel.Channel, error) {
	if !pinned {
		return channel.LoadChannels(parsed.Channels.Manifests, source)
	}

	recordPath := filepath.Join(home, channel.RecordDirName, channel.RecordFileName)
	if _, err := os.Stat(recordPath); err != nil {
		return nil, fmt.Errorf("Installation %s has no resolution record to pin to", home)
	}

	recorded, err := channel.LoadChannel(model.ChannelCoordinate{URL: recordPath}, source)
	if err != nil {
		return nil, err
	}

	return []*channel.Channel{recorded}, nil
}
