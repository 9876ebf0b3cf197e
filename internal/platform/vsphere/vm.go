package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vapi/vcenter"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/imamik/corefleet/internal/guestinfo"
)

// DeployTemplate deploys the library item named spec.Template as a new VM.
func (s *Session) DeployTemplate(ctx context.Context, spec DeploySpec) (Ref, error) {
	ids, err := s.findItem(ctx, spec.LibraryID, spec.Template)
	if err != nil {
		return Ref{}, err
	}
	if len(ids) == 0 {
		return Ref{}, &NotFoundError{Kind: "LibraryItem", Name: spec.Template}
	}

	ctx, cancel := withDeadline(ctx, s.deploy)
	defer cancel()

	ref, err := s.deployer.DeployLibraryItem(ctx, ids[0], vcenter.Deploy{
		DeploymentSpec: vcenter.DeploymentSpec{
			Name:                spec.Name,
			DefaultDatastoreID:  spec.Datastore.ID,
			AcceptAllEULA:       true,
			StorageProvisioning: "thin",
		},
		Target: vcenter.Target{
			ResourcePoolID: spec.ResourcePool.ID,
			HostID:         spec.Host.ID,
		},
	})
	if err != nil {
		return Ref{}, &PlatformTaskError{Op: "deploy", Object: spec.Name, Err: err}
	}

	vm := Ref{Kind: KindVirtualMachine, ID: ref.Value, Name: spec.Name}
	s.cache.put(vm)
	return vm, nil
}

// Reconfigure writes settings into the extra config of vm.
func (s *Session) Reconfigure(ctx context.Context, vm Ref, settings []guestinfo.Setting) error {
	extra := make([]types.BaseOptionValue, 0, len(settings))
	for _, setting := range settings {
		extra = append(extra, &types.OptionValue{Key: setting.Key, Value: setting.Value})
	}

	return s.runTask(ctx, "reconfigure", vm, func(ctx context.Context, obj *object.VirtualMachine) (*object.Task, error) {
		return obj.Reconfigure(ctx, types.VirtualMachineConfigSpec{ExtraConfig: extra})
	})
}

// PowerOn powers vm on and waits for the task.
func (s *Session) PowerOn(ctx context.Context, vm Ref) error {
	return s.runTask(ctx, "power on", vm, func(ctx context.Context, obj *object.VirtualMachine) (*object.Task, error) {
		return obj.PowerOn(ctx)
	})
}

// PowerOff hard powers vm off and waits for the task.
func (s *Session) PowerOff(ctx context.Context, vm Ref) error {
	return s.runTask(ctx, "power off", vm, func(ctx context.Context, obj *object.VirtualMachine) (*object.Task, error) {
		return obj.PowerOff(ctx)
	})
}

// ShutdownGuest asks the guest OS to shut down. It returns once the request
// is accepted.
func (s *Session) ShutdownGuest(ctx context.Context, vm Ref) error {
	ctx, cancel := s.taskContext(ctx)
	defer cancel()
	return taskError("guest shutdown", vm, s.vmObject(vm).ShutdownGuest(ctx))
}

// RebootGuest asks the guest OS to restart. It returns once the request is
// accepted.
func (s *Session) RebootGuest(ctx context.Context, vm Ref) error {
	ctx, cancel := s.taskContext(ctx)
	defer cancel()
	return taskError("guest reboot", vm, s.vmObject(vm).RebootGuest(ctx))
}

// Destroy deletes vm and drops it from the lookup cache.
func (s *Session) Destroy(ctx context.Context, vm Ref) error {
	err := s.runTask(ctx, "destroy", vm, func(ctx context.Context, obj *object.VirtualMachine) (*object.Task, error) {
		return obj.Destroy(ctx)
	})
	s.cache.invalidate(KindVirtualMachine, vm.Name)
	return err
}

// GuestNetworks returns the guest network adapters reported by VMware tools.
func (s *Session) GuestNetworks(ctx context.Context, vm Ref) ([]NetworkInfo, error) {
	var props mo.VirtualMachine
	if err := s.vmObject(vm).Properties(ctx, moref(vm), []string{"guest.net"}, &props); err != nil {
		return nil, fmt.Errorf("failed to read guest networks of %s: %w", vm.Name, err)
	}
	if props.Guest == nil {
		return nil, nil
	}

	nets := make([]NetworkInfo, 0, len(props.Guest.Net))
	for _, nic := range props.Guest.Net {
		nets = append(nets, NetworkInfo{
			Network:     nic.Network,
			MACAddress:  nic.MacAddress,
			IPAddresses: append([]string(nil), nic.IpAddress...),
		})
	}
	return nets, nil
}

func (s *Session) vmObject(vm Ref) *object.VirtualMachine {
	return object.NewVirtualMachine(s.vim, moref(vm))
}

func (s *Session) runTask(ctx context.Context, op string, vm Ref, start func(context.Context, *object.VirtualMachine) (*object.Task, error)) error {
	ctx, cancel := s.taskContext(ctx)
	defer cancel()

	task, err := start(ctx, s.vmObject(vm))
	if err != nil {
		s.dropStale(vm, err)
		return taskError(op, vm, err)
	}
	if err := task.Wait(ctx); err != nil {
		return taskError(op, vm, err)
	}
	s.log.V(1).Info("task completed", "op", op, "vm", vm.Name)
	return nil
}

// dropStale evicts a cached reference that vCenter no longer knows.
func (s *Session) dropStale(vm Ref, err error) {
	if !soap.IsSoapFault(err) {
		return
	}
	if _, ok := soap.ToSoapFault(err).VimFault().(types.ManagedObjectNotFound); ok {
		s.cache.invalidate(vm.Kind, vm.Name)
	}
}
