package vsphere

import (
	"context"

	"github.com/imamik/corefleet/internal/guestinfo"
)

// Kind is a vSphere managed object type.
type Kind string

// Managed object kinds resolved by Lookup.
const (
	KindVirtualMachine Kind = "VirtualMachine"
	KindHostSystem     Kind = "HostSystem"
	KindDatastore      Kind = "Datastore"
	KindResourcePool   Kind = "ResourcePool"
)

// Ref identifies a managed object.
type Ref struct {
	Kind Kind
	ID   string // Managed object reference value, e.g. vm-42
	Name string
}

// IsZero reports whether r refers to nothing.
func (r Ref) IsZero() bool {
	return r.ID == ""
}

// DeploySpec describes a library item deployment.
type DeploySpec struct {
	LibraryID    string
	Template     string
	Name         string
	ResourcePool Ref
	Host         Ref
	Datastore    Ref
}

// ItemUpload describes an OVF item pushed into a content library. The hooks
// are optional and let callers report progress per file.
type ItemUpload struct {
	LibraryID   string
	Name        string
	Description string
	Dir         string
	Files       []string // Uploaded in order, relative to Dir

	BeforeFile func(name string, size int64)
	Progress   func(n int64)
	AfterFile  func(name string)
}

// NetworkInfo is one guest network adapter as reported by VMware tools.
type NetworkInfo struct {
	Network     string
	MACAddress  string
	IPAddresses []string
}

// Platform is the vCenter surface used by the library manager and the
// environment orchestrator.
type Platform interface {
	Disconnect(ctx context.Context) error

	FindLibrary(ctx context.Context, name string) (id string, found bool, err error)
	CreateLibrary(ctx context.Context, name, description string, datastore Ref) (string, error)
	LibraryItemExists(ctx context.Context, libraryID, name string) (bool, error)
	UploadLibraryItem(ctx context.Context, upload ItemUpload) (string, error)

	// Lookup resolves an object by exact name. With ignoreMissing an absent
	// object yields a zero Ref instead of a NotFoundError.
	Lookup(ctx context.Context, name string, kind Kind, ignoreMissing bool) (Ref, error)

	DeployTemplate(ctx context.Context, spec DeploySpec) (Ref, error)
	Reconfigure(ctx context.Context, vm Ref, settings []guestinfo.Setting) error
	PowerOn(ctx context.Context, vm Ref) error
	PowerOff(ctx context.Context, vm Ref) error
	ShutdownGuest(ctx context.Context, vm Ref) error
	RebootGuest(ctx context.Context, vm Ref) error
	Destroy(ctx context.Context, vm Ref) error
	GuestNetworks(ctx context.Context, vm Ref) ([]NetworkInfo, error)
}

var _ Platform = (*Session)(nil)
