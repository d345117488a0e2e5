// Package engine contains the provisioning engine boundary: the interfaces
// the orchestration layer invokes and a registry of engine implementations
package engine

import (
	"fmt"

	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/plan"
	"github.com/dimes/zprovision/provlog"
)

var (
	provisioners = make(map[string]Provisioner)
)

// ArtifactResolver hands the engine a materialized artifact for a
// coordinate. The channel overlay resolver satisfies this interface.
type ArtifactResolver interface {
	Resolve(coordinate model.Coordinate) (*model.ResolvedArtifact, error)
}

// Provisioner materializes an installation tree from a provisioning plan.
// Artifact requests are issued one at a time through the resolver.
type Provisioner interface {
	Type() string
	Provision(home string, p *plan.ProvisioningPlan, resolver ArtifactResolver) error
}

// Failure wraps an error signaled by the provisioning engine with the plan
// element that triggered it
type Failure struct {
	Element string
	Cause   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("provisioning engine failed on %s: %+v", f.Element, f.Cause)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// RegisterProvisioner associates the given provisioner with its type. If the
// type already has a provisioner associated with it, then this method will
// return an error. This method is not safe for concurrent calls.
func RegisterProvisioner(provisioner Provisioner) error {
	if _, ok := provisioners[provisioner.Type()]; ok {
		return fmt.Errorf("Type %s is already registered", provisioner.Type())
	}

	provlog.Debugf("Associating type %s with %+v", provisioner.Type(), provisioner)
	provisioners[provisioner.Type()] = provisioner
	return nil
}

// GetProvisionerForType returns a provisioner for the given type, or nil if
// no such provisioner is registered
func GetProvisionerForType(provisionerType string) Provisioner {
	return provisioners[provisionerType]
}
