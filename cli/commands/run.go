package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dimes/zprovision/channel"
	"github.com/dimes/zprovision/engine"
	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/plan"
	"github.com/dimes/zprovision/provlog"
	"github.com/dimes/zprovision/repo"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
)

const (
	// DefaultProvisionDir is the directory inside the target dir the server
	// is provisioned into when the spec does not name one
	DefaultProvisionDir = "server"
)

// provisionResult is what a successful provisioning run leaves behind
type provisionResult struct {
	Home         string
	Plan         *plan.ProvisioningPlan
	ProvisionDir string
}

// provisionFromSpec runs the whole provisioning pipeline for a parsed spec:
// plan construction, channel loading, engine invocation, and finally the
// resolution record and plan persistence.
func provisionFromSpec(parsed *model.ParsedProvisionfile) (*provisionResult, error) {
	p, err := buildPlan(parsed)
	if err != nil {
		return nil, err
	}

	localCache := parsed.Channels.LocalCache
	if localCache != "" {
		localCache = model.ResolvePath(parsed.AbsoluteWorkingDir, localCache)
	}

	session, err := repo.NewSession(parsed.AbsoluteTargetDir, localCache)
	if err != nil {
		return nil, err
	}

	source, err := newVersionSource(parsed, session)
	if err != nil {
		return nil, err
	}

	channels, err := channel.LoadChannels(parsed.Channels.Manifests, source)
	if err != nil {
		return nil, err
	}

	resolver := channel.NewOverlayResolver(channels, source,
		parsed.Channels.DisableLatestResolution)

	provisionDir := parsed.ProvisionDir
	if provisionDir == "" {
		provisionDir = DefaultProvisionDir
	}

	home := filepath.Join(parsed.AbsoluteTargetDir, provisionDir)
	provisioner := engine.GetProvisionerForType(engine.TarProvisionerType)
	if provisioner == nil {
		return nil, fmt.Errorf("No provisioner registered for type %s", engine.TarProvisionerType)
	}

	provlog.Infof("Provisioning server in %s", home)
	if err := provisioner.Provision(home, p, resolver); err != nil {
		return nil, err
	}

	if info, err := os.Stat(home); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("Server was not provisioned at %s", home)
	}

	// The engine does not record its own provisioning state, so the plan
	// document always lands inside the installation tree
	if err := plan.SavePlanFile(p, home); err != nil {
		return nil, err
	}

	if !parsed.RecordState {
		// A build-tool copy next to the installation
		if err := plan.SavePlanFile(p, parsed.AbsoluteTargetDir); err != nil {
			return nil, err
		}
	}

	if len(channels) > 0 && resolver.Recorder().Len() > 0 {
		if err := resolver.Recorder().Flush(home); err != nil {
			return nil, err
		}
	}

	provlog.Infof("Server provisioned in %s", home)
	return &provisionResult{
		Home:         home,
		Plan:         p,
		ProvisionDir: provisionDir,
	}, nil
}

func buildPlan(parsed *model.ParsedProvisionfile) (*plan.ProvisioningPlan, error) {
	planFile := parsed.PlanFile
	if planFile != "" {
		planFile = model.ResolvePath(parsed.AbsoluteWorkingDir, planFile)
	}

	return plan.Build(plan.Spec{
		FeaturePacks:        parsed.FeaturePacks,
		FeaturePackLocation: parsed.FeaturePackLocation,
		Configs:             parsed.Configs,
		Options:             parsed.Options,
		PlanFile:            planFile,
	})
}

// newVersionSource constructs the repository backend declared by the spec.
// The default type is a local filesystem repository.
func newVersionSource(parsed *model.ParsedProvisionfile,
	session *repo.Session) (repo.VersionSource, error) {
	repository := parsed.Repository
	switch repository.Type {
	case "", repo.LocalSourceType:
		if repository.Path == "" {
			return nil, fmt.Errorf("Local repositories require a repository path")
		}
		root := model.ResolvePath(parsed.AbsoluteWorkingDir, repository.Path)
		return repo.NewLocalSource(root, session)
	case repo.RemoteSourceType:
		return newRemoteSource(repository, session)
	default:
		return nil, fmt.Errorf("Unknown repository type %s", repository.Type)
	}
}

func newRemoteSource(repository model.RepositoryConfig,
	session *repo.Session) (*repo.RemoteSource, error) {
	if repository.Bucket == "" {
		return nil, fmt.Errorf("Remote repositories require a bucket")
	}

	sess := NewSession(repository.Region, repository.Profile)
	store := repo.NewS3Store(s3.New(sess), repository.Bucket)

	var index *repo.DynamoIndex
	if repository.Table != "" {
		index = repo.NewDynamoIndex(dynamodb.New(sess), repository.Table)
	}

	return repo.NewRemoteSource(store, index, session), nil
}

func parseSpec(workingDir, specPath string) (*model.ParsedProvisionfile, error) {
	if specPath == "" {
		specPath = filepath.Join(workingDir, model.ProvisionfileName)
	} else {
		specPath = model.ResolvePath(workingDir, specPath)
	}
	return model.ParseProvisionfile(specPath)
}
