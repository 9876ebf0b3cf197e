package environment

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/corefleet/internal/config"
	"github.com/imamik/corefleet/internal/guestinfo"
	"github.com/imamik/corefleet/internal/platform/vsphere"
	"github.com/imamik/corefleet/internal/tracker"
	"github.com/imamik/corefleet/internal/util/naming"
)

// ErrVMNotFound is returned when a machine of the environment does not exist.
var ErrVMNotFound = errors.New("VM not found.") //nolint:revive,staticcheck // Shown verbatim as a step message

// Platform is the virtual machine surface of vCenter used by the Orchestrator.
type Platform interface {
	Lookup(ctx context.Context, name string, kind vsphere.Kind, ignoreMissing bool) (vsphere.Ref, error)
	DeployTemplate(ctx context.Context, spec vsphere.DeploySpec) (vsphere.Ref, error)
	Reconfigure(ctx context.Context, vm vsphere.Ref, settings []guestinfo.Setting) error
	PowerOn(ctx context.Context, vm vsphere.Ref) error
	PowerOff(ctx context.Context, vm vsphere.Ref) error
	ShutdownGuest(ctx context.Context, vm vsphere.Ref) error
	RebootGuest(ctx context.Context, vm vsphere.Ref) error
	Destroy(ctx context.Context, vm vsphere.Ref) error
	GuestNetworks(ctx context.Context, vm vsphere.Ref) ([]vsphere.NetworkInfo, error)
}

// Templates reports whether a channel template can be deployed.
type Templates interface {
	CheckDeployable(channel string) error
	LibraryID() (string, bool)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithChannel sets the release channel deployed from. Defaults to stable.
func WithChannel(channel string) Option {
	return func(o *Orchestrator) {
		if channel != "" {
			o.channel = channel
		}
	}
}

// WithSubstitutionMode sets how cloud-config tokens are replaced.
func WithSubstitutionMode(mode guestinfo.SubstitutionMode) Option {
	return func(o *Orchestrator) {
		o.mode = mode
	}
}

// Orchestrator runs lifecycle operations over every machine of an environment.
type Orchestrator struct {
	platform Platform
	tracker  *tracker.Tracker
	channel  string
	mode     guestinfo.SubstitutionMode
}

// New creates an Orchestrator reporting steps to t.
func New(p Platform, t *tracker.Tracker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		platform: p,
		tracker:  t,
		channel:  "stable",
		mode:     guestinfo.SubstituteFirst,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// target is the placement resolved for a deployment.
type target struct {
	pool      vsphere.Ref
	host      vsphere.Ref
	datastore vsphere.Ref
}

// Deploy creates every machine of env from the channel template, applies its
// guestinfo and powers it on. Under SkipIfExists an existing machine is left
// untouched; Force deploys without checking. Other policies are rejected.
func (o *Orchestrator) Deploy(ctx context.Context, env *config.EnvironmentDefinition, subnet *config.SubnetDefinition, host *config.HostDefinition, templates Templates, policy Policy) error {
	if err := checkPolicy("deploy", policy, DeployPolicies); err != nil {
		return err
	}
	for _, inst := range Instances(env) {
		cfg, err := BuildConfig(inst, subnet, o.mode)
		if err != nil {
			return err
		}

		o.tracker.StartStep(false, "Validate CoreOS can be deployed", "mag_right")
		if err := templates.CheckDeployable(o.channel); err != nil {
			return err
		}
		libraryID, _ := templates.LibraryID()

		tgt, err := o.resolveTarget(ctx, host)
		if err != nil {
			return err
		}

		if policy == SkipIfExists {
			existing, err := o.platform.Lookup(ctx, inst.Name, vsphere.KindVirtualMachine, true)
			if err != nil {
				return err
			}
			if !existing.IsZero() {
				o.tracker.FinishStep("VM already exists")
				continue
			}
		}
		o.tracker.FinishStep()

		template := naming.Template(o.channel)
		o.tracker.StartStep(false, fmt.Sprintf("Deploy OVA %s to VM %s", template, inst.Name), "unicorn_face")
		vm, err := o.platform.DeployTemplate(ctx, vsphere.DeploySpec{
			LibraryID:    libraryID,
			Template:     template,
			Name:         inst.Name,
			ResourcePool: tgt.pool,
			Host:         tgt.host,
			Datastore:    tgt.datastore,
		})
		if err != nil {
			return err
		}
		o.tracker.FinishStep("VM id: " + vm.ID)

		if err := o.reconfigure(ctx, vm, cfg); err != nil {
			return err
		}

		o.tracker.StartStep(false, "Turn on VM "+inst.Name, "bulb")
		if err := o.platform.PowerOn(ctx, vm); err != nil {
			return err
		}
		o.tracker.FinishStep()
	}
	return nil
}

func (o *Orchestrator) resolveTarget(ctx context.Context, host *config.HostDefinition) (target, error) {
	var (
		tgt target
		err error
	)
	if tgt.pool, err = o.platform.Lookup(ctx, host.ResourcePool, vsphere.KindResourcePool, false); err != nil {
		return tgt, err
	}
	if tgt.host, err = o.platform.Lookup(ctx, host.Host, vsphere.KindHostSystem, false); err != nil {
		return tgt, err
	}
	if tgt.datastore, err = o.platform.Lookup(ctx, host.Datastore, vsphere.KindDatastore, false); err != nil {
		return tgt, err
	}
	return tgt, nil
}

// Destroy hard powers off and destroys every machine of env. Under Force a
// missing machine aborts the run; SkipMissing skips it. Other policies are
// rejected.
func (o *Orchestrator) Destroy(ctx context.Context, env *config.EnvironmentDefinition, policy Policy) error {
	if err := checkPolicy("destroy", policy, DestroyPolicies); err != nil {
		return err
	}
	for _, inst := range Instances(env) {
		o.tracker.StartStep(false, "Turn off VM "+inst.Name, "bulb")
		vm, err := o.findVM(ctx, inst.Name)
		if errors.Is(err, ErrVMNotFound) && policy == SkipMissing {
			o.tracker.FinishStep("VM not found, skipped")
			continue
		}
		if err != nil {
			return err
		}
		if err := o.platform.PowerOff(ctx, vm); err != nil {
			return err
		}
		o.tracker.FinishStep()

		o.tracker.StartStep(false, "Destroy VM "+inst.Name, "boom")
		if err := o.platform.Destroy(ctx, vm); err != nil {
			return err
		}
		o.tracker.FinishStep()
	}
	return nil
}

// PowerOn powers on every machine of env.
func (o *Orchestrator) PowerOn(ctx context.Context, env *config.EnvironmentDefinition) error {
	return o.each(ctx, env, "Turn on VM ", func(ctx context.Context, vm vsphere.Ref) error {
		return o.platform.PowerOn(ctx, vm)
	})
}

// PowerOff asks the guest OS of every machine of env to shut down.
func (o *Orchestrator) PowerOff(ctx context.Context, env *config.EnvironmentDefinition) error {
	return o.each(ctx, env, "Guest shutdown VM ", func(ctx context.Context, vm vsphere.Ref) error {
		return o.platform.ShutdownGuest(ctx, vm)
	})
}

// Reconfigure rebuilds and reapplies the guestinfo of every machine of env,
// then reboots the guest so it is picked up.
func (o *Orchestrator) Reconfigure(ctx context.Context, env *config.EnvironmentDefinition, subnet *config.SubnetDefinition) error {
	for _, inst := range Instances(env) {
		cfg, err := BuildConfig(inst, subnet, o.mode)
		if err != nil {
			return err
		}

		o.tracker.StartStep(false, "Reconfigure VM "+inst.Name, "gear")
		vm, err := o.findVM(ctx, inst.Name)
		if err != nil {
			return err
		}
		if err := o.platform.Reconfigure(ctx, vm, cfg.Settings()); err != nil {
			return err
		}
		o.tracker.FinishStep()

		o.tracker.StartStep(false, "Guest reboot VM "+inst.Name, "bulb")
		if err := o.platform.RebootGuest(ctx, vm); err != nil {
			return err
		}
		o.tracker.FinishStep()
	}
	return nil
}

func (o *Orchestrator) reconfigure(ctx context.Context, vm vsphere.Ref, cfg *guestinfo.Config) error {
	o.tracker.StartStep(false, "Reconfigure VM "+vm.Name, "gear")
	if err := o.platform.Reconfigure(ctx, vm, cfg.Settings()); err != nil {
		return err
	}
	o.tracker.FinishStep()
	return nil
}

// each runs op on every machine of env inside a "<prefix><name>" step.
func (o *Orchestrator) each(ctx context.Context, env *config.EnvironmentDefinition, prefix string, op func(context.Context, vsphere.Ref) error) error {
	for _, inst := range Instances(env) {
		o.tracker.StartStep(false, prefix+inst.Name, "bulb")
		vm, err := o.findVM(ctx, inst.Name)
		if err != nil {
			return err
		}
		if err := op(ctx, vm); err != nil {
			return err
		}
		o.tracker.FinishStep()
	}
	return nil
}

func (o *Orchestrator) findVM(ctx context.Context, name string) (vsphere.Ref, error) {
	vm, err := o.platform.Lookup(ctx, name, vsphere.KindVirtualMachine, true)
	if err != nil {
		return vsphere.Ref{}, err
	}
	if vm.IsZero() {
		return vsphere.Ref{}, ErrVMNotFound
	}
	return vm, nil
}
