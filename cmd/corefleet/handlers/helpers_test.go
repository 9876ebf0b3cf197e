package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/corefleet/internal/config"
	"github.com/imamik/corefleet/internal/platform/vsphere"
	testutil "github.com/imamik/corefleet/internal/testing"
)

// harness swaps the factories of this package for in-memory fakes and
// restores them when the test ends.
type harness struct {
	fake      *testutil.FakePlatform
	out       *bytes.Buffer
	logs      *bytes.Buffer
	opts      *Options
	dir       string
	connected *vsphere.Options
}

func newHarness(t *testing.T, fake *testutil.FakePlatform) *harness {
	t.Helper()

	origStdout, origStderr := stdout, stderr
	origCreds, origTimeouts := loadCredentials, loadTimeouts
	origConnect, origRunner := connectPlatform, newRunner
	t.Cleanup(func() {
		stdout, stderr = origStdout, origStderr
		loadCredentials, loadTimeouts = origCreds, origTimeouts
		connectPlatform, newRunner = origConnect, origRunner
	})

	h := &harness{
		fake: fake,
		out:  &bytes.Buffer{},
		logs: &bytes.Buffer{},
		opts: DefaultOptions(),
		dir:  t.TempDir(),
	}
	stdout, stderr = h.out, h.logs
	loadCredentials = func(string) (*config.Credentials, error) {
		return &config.Credentials{Host: "vcenter.example.com", Username: "admin", Password: "secret"}, nil
	}
	loadTimeouts = func() *config.Timeouts { return &config.Timeouts{} }
	connectPlatform = func(_ context.Context, opts vsphere.Options) (vsphere.Platform, error) {
		h.connected = &opts
		return fake, nil
	}
	return h
}

// writeJSON stores v as name inside the harness directory.
func (h *harness) writeJSON(t *testing.T, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return testutil.WriteFile(t, h.dir, name, string(data))
}

// definitions writes an environment of two DHCP workers plus the default
// subnet and host.
func (h *harness) definitions(t *testing.T) (envFile, subnetFile, hostFile string) {
	t.Helper()
	cloudInit := testutil.WriteFile(t, h.dir, "worker.yaml", "#cloud-config\nhostname: ##HOSTNAME##\n")
	env := testutil.NewEnvironmentBuilder("prod").WithRole("worker", 2, cloudInit).Build()
	return h.writeJSON(t, "env.json", env),
		h.writeJSON(t, "subnet.json", testutil.DefaultSubnet()),
		h.writeJSON(t, "host.json", testutil.DefaultHost())
}

func (h *harness) path(name string) string {
	return filepath.Join(h.dir, name)
}
