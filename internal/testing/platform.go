package testing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/imamik/corefleet/internal/guestinfo"
	"github.com/imamik/corefleet/internal/platform/vsphere"
)

// Names of the inventory created by WithDefaultInventory.
const (
	HostName         = "esx-01"
	DatastoreName    = "datastore1"
	ResourcePoolName = "Resources"
)

// FakePlatform is an in-memory vsphere.Platform. Every call is appended to
// Calls as "<Op> <name>". FailOn, when set, is consulted before each call and
// a non-nil result is returned as the call's error.
type FakePlatform struct {
	mu sync.Mutex

	Calls  []string
	FailOn func(op, name string) error

	objects   map[vsphere.Kind]map[string]vsphere.Ref
	libraries map[string]string   // name -> id
	items     map[string][]string // library id -> item names
	settings  map[string][]guestinfo.Setting
	powered   map[string]bool
	networks  map[string][]vsphere.NetworkInfo
	uploaded  map[string][]string // item name -> uploaded file names
	seq       int
}

var _ vsphere.Platform = (*FakePlatform)(nil)

// NewFakePlatform returns an empty inventory.
func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		objects:   make(map[vsphere.Kind]map[string]vsphere.Ref),
		libraries: make(map[string]string),
		items:     make(map[string][]string),
		settings:  make(map[string][]guestinfo.Setting),
		powered:   make(map[string]bool),
		networks:  make(map[string][]vsphere.NetworkInfo),
		uploaded:  make(map[string][]string),
	}
}

// WithDefaultInventory adds a host, a datastore and a resource pool.
func (f *FakePlatform) WithDefaultInventory() *FakePlatform {
	f.AddObject(vsphere.KindHostSystem, HostName)
	f.AddObject(vsphere.KindDatastore, DatastoreName)
	f.AddObject(vsphere.KindResourcePool, ResourcePoolName)
	return f
}

// WithLibrary adds a content library holding items.
func (f *FakePlatform) WithLibrary(name string, items ...string) *FakePlatform {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID("library")
	f.libraries[name] = id
	f.items[id] = append(f.items[id], items...)
	return f
}

// AddObject registers an inventory object and returns its reference.
func (f *FakePlatform) AddObject(kind vsphere.Kind, name string) vsphere.Ref {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addObject(kind, name)
}

// AddVM registers a powered off VM.
func (f *FakePlatform) AddVM(name string) vsphere.Ref {
	return f.AddObject(vsphere.KindVirtualMachine, name)
}

// SetGuestNetworks sets what GuestNetworks reports for vm.
func (f *FakePlatform) SetGuestNetworks(vm string, nets ...vsphere.NetworkInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.networks[vm] = nets
}

// Settings returns the last extra config applied to vm.
func (f *FakePlatform) Settings(vm string) []guestinfo.Setting {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.settings[vm])
}

// PoweredOn reports whether vm is running.
func (f *FakePlatform) PoweredOn(vm string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.powered[vm]
}

// HasVM reports whether vm exists.
func (f *FakePlatform) HasVM(vm string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[vsphere.KindVirtualMachine][vm]
	return ok
}

// Uploaded returns the files pushed into item.
func (f *FakePlatform) Uploaded(item string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.uploaded[item])
}

// CallsFor returns the recorded calls of op in order.
func (f *FakePlatform) CallsFor(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	prefix := op + " "
	for _, c := range f.Calls {
		if len(c) > len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c[len(prefix):])
		}
	}
	return out
}

func (f *FakePlatform) record(op, name string) error {
	f.Calls = append(f.Calls, op+" "+name)
	if f.FailOn != nil {
		return f.FailOn(op, name)
	}
	return nil
}

func (f *FakePlatform) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *FakePlatform) addObject(kind vsphere.Kind, name string) vsphere.Ref {
	if f.objects[kind] == nil {
		f.objects[kind] = make(map[string]vsphere.Ref)
	}
	ref := vsphere.Ref{Kind: kind, ID: f.nextID(string(kind)), Name: name}
	f.objects[kind][name] = ref
	return ref
}

func (f *FakePlatform) Disconnect(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("Disconnect", "")
}

func (f *FakePlatform) FindLibrary(_ context.Context, name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FindLibrary", name); err != nil {
		return "", false, err
	}
	id, ok := f.libraries[name]
	return id, ok, nil
}

func (f *FakePlatform) CreateLibrary(_ context.Context, name, _ string, _ vsphere.Ref) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateLibrary", name); err != nil {
		return "", err
	}
	id := f.nextID("library")
	f.libraries[name] = id
	return id, nil
}

func (f *FakePlatform) LibraryItemExists(_ context.Context, libraryID, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("LibraryItemExists", name); err != nil {
		return false, err
	}
	return slices.Contains(f.items[libraryID], name), nil
}

// UploadLibraryItem reads every file from disk so progress hooks see the real
// sizes.
func (f *FakePlatform) UploadLibraryItem(_ context.Context, upload vsphere.ItemUpload) (string, error) {
	f.mu.Lock()
	if err := f.record("UploadLibraryItem", upload.Name); err != nil {
		f.mu.Unlock()
		return "", err
	}
	f.mu.Unlock()

	for _, name := range upload.Files {
		data, err := os.ReadFile(filepath.Join(upload.Dir, name))
		if err != nil {
			return "", err
		}
		if upload.BeforeFile != nil {
			upload.BeforeFile(name, int64(len(data)))
		}
		if upload.Progress != nil {
			upload.Progress(int64(len(data)))
		}
		if upload.AfterFile != nil {
			upload.AfterFile(name)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[upload.LibraryID] = append(f.items[upload.LibraryID], upload.Name)
	f.uploaded[upload.Name] = slices.Clone(upload.Files)
	return f.nextID("item"), nil
}

func (f *FakePlatform) Lookup(_ context.Context, name string, kind vsphere.Kind, ignoreMissing bool) (vsphere.Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Lookup", name); err != nil {
		return vsphere.Ref{}, err
	}
	if ref, ok := f.objects[kind][name]; ok {
		return ref, nil
	}
	if ignoreMissing {
		return vsphere.Ref{}, nil
	}
	return vsphere.Ref{}, &vsphere.NotFoundError{Kind: kind, Name: name}
}

func (f *FakePlatform) DeployTemplate(_ context.Context, spec vsphere.DeploySpec) (vsphere.Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeployTemplate", spec.Name); err != nil {
		return vsphere.Ref{}, err
	}
	if !slices.Contains(f.items[spec.LibraryID], spec.Template) {
		return vsphere.Ref{}, &vsphere.NotFoundError{Kind: "LibraryItem", Name: spec.Template}
	}
	return f.addObject(vsphere.KindVirtualMachine, spec.Name), nil
}

func (f *FakePlatform) Reconfigure(_ context.Context, vm vsphere.Ref, settings []guestinfo.Setting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Reconfigure", vm.Name); err != nil {
		return err
	}
	f.settings[vm.Name] = slices.Clone(settings)
	return nil
}

func (f *FakePlatform) PowerOn(_ context.Context, vm vsphere.Ref) error {
	return f.setPower("PowerOn", vm, true)
}

func (f *FakePlatform) PowerOff(_ context.Context, vm vsphere.Ref) error {
	return f.setPower("PowerOff", vm, false)
}

func (f *FakePlatform) ShutdownGuest(_ context.Context, vm vsphere.Ref) error {
	return f.setPower("ShutdownGuest", vm, false)
}

func (f *FakePlatform) RebootGuest(_ context.Context, vm vsphere.Ref) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("RebootGuest", vm.Name)
}

func (f *FakePlatform) setPower(op string, vm vsphere.Ref, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(op, vm.Name); err != nil {
		return err
	}
	f.powered[vm.Name] = on
	return nil
}

func (f *FakePlatform) Destroy(_ context.Context, vm vsphere.Ref) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Destroy", vm.Name); err != nil {
		return err
	}
	delete(f.objects[vsphere.KindVirtualMachine], vm.Name)
	delete(f.powered, vm.Name)
	return nil
}

func (f *FakePlatform) GuestNetworks(_ context.Context, vm vsphere.Ref) ([]vsphere.NetworkInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuestNetworks", vm.Name); err != nil {
		return nil, err
	}
	return slices.Clone(f.networks[vm.Name]), nil
}
