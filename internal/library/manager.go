package library

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/imamik/corefleet/internal/artifact"
	"github.com/imamik/corefleet/internal/platform/vsphere"
	"github.com/imamik/corefleet/internal/tracker"
	"github.com/imamik/corefleet/internal/util/naming"
)

// Platform is the content library surface of vCenter used by the Manager.
type Platform interface {
	FindLibrary(ctx context.Context, name string) (id string, found bool, err error)
	CreateLibrary(ctx context.Context, name, description string, datastore vsphere.Ref) (string, error)
	LibraryItemExists(ctx context.Context, libraryID, name string) (bool, error)
	UploadLibraryItem(ctx context.Context, upload vsphere.ItemUpload) (string, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithURLTemplate overrides DefaultURLTemplate.
func WithURLTemplate(template string) Option {
	return func(m *Manager) {
		if template != "" {
			m.urlTemplate = template
		}
	}
}

// WithHTTPClient sets the client used to download the OVA.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = c
	}
}

// WithWorkspaceRoot sets the parent of the temporary download directory.
// An empty root uses the system temporary directory.
func WithWorkspaceRoot(root string) Option {
	return func(m *Manager) {
		m.workspaceRoot = root
	}
}

// Manager tracks the CoreOS content library and its channel templates.
type Manager struct {
	platform Platform
	tracker  *tracker.Tracker
	pipeline *artifact.Pipeline

	urlTemplate   string
	httpClient    *http.Client
	workspaceRoot string

	mu        sync.Mutex
	libraryID string
	ready     bool
	templates map[string]*Template
}

// NewManager creates a Manager reporting steps to t.
func NewManager(p Platform, t *tracker.Tracker, opts ...Option) *Manager {
	m := &Manager{
		platform:    p,
		tracker:     t,
		urlTemplate: DefaultURLTemplate,
		httpClient:  http.DefaultClient,
		templates:   make(map[string]*Template, len(Channels)),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, ch := range Channels {
		m.templates[ch] = &Template{Channel: ch}
	}
	m.pipeline = artifact.NewPipeline(
		artifact.WithHTTPClient(m.httpClient),
		artifact.WithProgress(t),
	)
	return m
}

// EnsureLibrary finds the library called name and creates it on datastore
// when it does not exist. Channel state is refreshed afterwards.
func (m *Manager) EnsureLibrary(ctx context.Context, datastore vsphere.Ref, name string) (string, error) {
	m.tracker.StartStep(false, fmt.Sprintf("Check library '%s' exists", name), "mag_right")
	id, found, err := m.platform.FindLibrary(ctx, name)
	if err != nil {
		return "", err
	}

	if found {
		m.tracker.FinishStep("Library found.")
	} else {
		m.tracker.FinishStep("Library not found.")
		m.tracker.StartStep(false, fmt.Sprintf("Create new content library %s", name), "heavy_plus_sign")
		id, err = m.platform.CreateLibrary(ctx, name, naming.LibraryDescription, datastore)
		if err != nil {
			return "", err
		}
		m.tracker.FinishStep()
	}

	m.setLibrary(id)
	if err := m.RefreshChannelStatus(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// OpenLibrary finds an existing library without creating it.
func (m *Manager) OpenLibrary(ctx context.Context, name string) (string, error) {
	m.tracker.StartStep(false, fmt.Sprintf("Check library '%s' exists", name), "mag_right")
	id, found, err := m.platform.FindLibrary(ctx, name)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &vsphere.NotFoundError{Kind: "ContentLibrary", Name: name}
	}
	m.tracker.FinishStep("Library found.")

	m.setLibrary(id)
	if err := m.RefreshChannelStatus(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Manager) setLibrary(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.libraryID = id
	m.ready = true
}

// RefreshChannelStatus queries the template of every channel and marks each
// one validated. An absent template is a valid result.
func (m *Manager) RefreshChannelStatus(ctx context.Context) error {
	libraryID, ok := m.LibraryID()
	if !ok {
		return ErrLibraryNotReady
	}

	for _, ch := range Channels {
		exists, err := m.platform.LibraryItemExists(ctx, libraryID, naming.Template(ch))
		if err != nil {
			return fmt.Errorf("failed to check %s template: %w", ch, err)
		}

		m.mu.Lock()
		t := m.templates[ch]
		t.Available = AvailabilityAbsent
		if exists {
			t.Available = AvailabilityPresent
		}
		t.Validated = true
		m.mu.Unlock()
	}
	return nil
}

// EnsureChannelItem uploads the template of channel when it is missing.
// Precondition failures are returned as errors. Failures while downloading,
// unpacking or uploading are reported to the tracker and returned in the
// result with StatusUnavailable.
func (m *Manager) EnsureChannelItem(ctx context.Context, channel string) (BootstrapResult, error) {
	m.tracker.StartStep(false, "Validate CoreOS content can be setup", "mag_right")
	libraryID, err := m.checkSetup(channel)
	if err != nil {
		return BootstrapResult{}, err
	}
	m.tracker.FinishStep()

	m.tracker.StartStep(false, "Setup content library item for CoreOS OVA", "wrench")
	exists, err := m.platform.LibraryItemExists(ctx, libraryID, naming.Template(channel))
	if err != nil {
		return BootstrapResult{}, err
	}
	if exists {
		m.tracker.FinishStep("Content item already exists")
		m.setAvailable(channel)
		return BootstrapResult{Channel: channel, Status: StatusSkipped}, nil
	}
	m.tracker.FinishStep()

	if err := m.bootstrap(ctx, libraryID, channel); err != nil {
		m.tracker.ReportError(err.Error())
		return BootstrapResult{Channel: channel, Status: StatusUnavailable, Err: err}, nil
	}
	m.setAvailable(channel)
	return BootstrapResult{Channel: channel, Status: StatusReady}, nil
}

func (m *Manager) checkSetup(channel string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.templates[channel]
	if !ok {
		return "", unknownChannel(channel)
	}
	if !m.ready {
		return "", ErrLibraryNotReady
	}
	if !t.Validated {
		return "", fmt.Errorf("%w: %s", ErrChannelNotValidated, channel)
	}
	return m.libraryID, nil
}

func (m *Manager) setAvailable(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[channel].Available = AvailabilityPresent
}

// bootstrap downloads, unpacks and uploads the OVA inside a workspace that is
// removed afterwards.
func (m *Manager) bootstrap(ctx context.Context, libraryID, channel string) error {
	ws, err := artifact.NewWorkspace(m.workspaceRoot, "corefleet-"+channel+"-")
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	ova := ws.Path(ovaFilename)
	m.tracker.StartStep(true, "Download CoreOS OVA", "arrow_down_small")
	result, err := m.pipeline.Fetch(ctx, m.DownloadURL(channel), ova, false)
	if err != nil {
		return err
	}
	if !result.Completed {
		return errors.New("download failed")
	}
	m.tracker.FinishStep()

	m.tracker.StartStep(true, "Untar OVA", "eight_spoked_asterisk")
	if _, err := m.pipeline.Extract(ctx, ova, ws.Dir()); err != nil {
		return err
	}
	// Drop the archive before the upload.
	_ = os.Remove(ova)

	files, err := m.pipeline.LocateRequiredFiles(ws.Dir(), []string{"*.vmdk", "*.ovf"})
	if err != nil {
		return err
	}
	m.tracker.FinishStep()

	m.tracker.StartStep(false, "Create library item for OVA upload", "heavy_plus_sign")
	_, err = m.platform.UploadLibraryItem(ctx, vsphere.ItemUpload{
		LibraryID:   libraryID,
		Name:        naming.Template(channel),
		Description: naming.TemplateDescription(channel),
		Dir:         ws.Dir(),
		Files:       []string{files["*.ovf"], files["*.vmdk"]},
		BeforeFile: func(name string, size int64) {
			m.tracker.StartStep(true, "Upload "+name, "arrow_double_up")
			m.tracker.SetProgressTotal(size)
		},
		Progress:  m.tracker.Tick,
		AfterFile: func(string) { m.tracker.FinishStep() },
	})
	return err
}

// CheckDeployable reports whether a VM can be deployed from channel.
func (m *Manager) CheckDeployable(channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.templates[channel]
	if !ok {
		return unknownChannel(channel)
	}
	if !m.ready {
		return ErrLibraryNotReady
	}
	if t.Available != AvailabilityPresent {
		return fmt.Errorf("%w: %s", ErrTemplateUnavailable, channel)
	}
	return nil
}

// LibraryID returns the library ID once EnsureLibrary or OpenLibrary succeeded.
func (m *Manager) LibraryID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.libraryID, m.ready
}

// Templates returns a snapshot of the channel states in channel order.
func (m *Manager) Templates() []Template {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Template, 0, len(Channels))
	for _, ch := range Channels {
		out = append(out, *m.templates[ch])
	}
	return out
}

// DownloadURL returns the OVA location for channel.
func (m *Manager) DownloadURL(channel string) string {
	return DownloadURL(m.urlTemplate, channel)
}
