package handlers

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/corefleet/internal/library"
	testutil "github.com/imamik/corefleet/internal/testing"
)

func serveOVA(t *testing.T, status int) string {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range map[string]string{
		"coreos_production_vmware_ova.ovf":        "<Envelope/>",
		"coreos_production_vmware_ova_image.vmdk": "disk-bytes",
	} {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/{channel}.ova"
}

func TestCoreOSSetup(t *testing.T) {
	fake := testutil.NewFakePlatform().WithDefaultInventory()
	h := newHarness(t, fake)
	h.opts.OVAURL = serveOVA(t, http.StatusOK)

	err := CoreOSSetup(context.Background(), h.opts, testutil.DatastoreName, "coreos")
	require.NoError(t, err)

	assert.Equal(t, []string{"coreos"}, fake.CallsFor("CreateLibrary"))
	assert.Equal(t, []string{
		"coreos_production_vmware_ova.ovf",
		"coreos_production_vmware_ova_image.vmdk",
	}, fake.Uploaded("coreos-stable"))
	assert.Contains(t, h.out.String(), "Upload coreos_production_vmware_ova.ovf")
}

func TestCoreOSSetup_ExistingTemplate(t *testing.T) {
	fake := testutil.NewFakePlatform().WithDefaultInventory().WithLibrary("coreos", "coreos-stable")
	h := newHarness(t, fake)

	err := CoreOSSetup(context.Background(), h.opts, testutil.DatastoreName, "coreos")
	require.NoError(t, err)
	assert.Empty(t, fake.CallsFor("CreateLibrary"))
	assert.Empty(t, fake.CallsFor("UploadLibraryItem"))
	assert.Contains(t, h.out.String(), "Content item already exists")
}

func TestCoreOSSetup_DownloadFailure(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		wantErr bool
	}{
		{name: "reported only", strict: false},
		{name: "strict fails the run", strict: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakePlatform().WithDefaultInventory()
			h := newHarness(t, fake)
			h.opts.OVAURL = serveOVA(t, http.StatusNotFound)
			h.opts.Strict = tt.strict

			err := CoreOSSetup(context.Background(), h.opts, testutil.DatastoreName, "coreos")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to set up stable template")
			} else {
				require.NoError(t, err)
			}
			assert.Empty(t, fake.CallsFor("UploadLibraryItem"))
			assert.Contains(t, fake.Calls, "Disconnect ")
		})
	}
}

func TestCoreOSSetup_Preconditions(t *testing.T) {
	t.Run("unknown channel", func(t *testing.T) {
		h := newHarness(t, testutil.NewFakePlatform())
		h.opts.Stream = "edge"

		err := CoreOSSetup(context.Background(), h.opts, testutil.DatastoreName, "coreos")
		require.ErrorIs(t, err, library.ErrUnknownChannel)
		assert.Nil(t, h.connected)
	})

	t.Run("missing datastore", func(t *testing.T) {
		fake := testutil.NewFakePlatform()
		h := newHarness(t, fake)

		err := CoreOSSetup(context.Background(), h.opts, "nvme-01", "coreos")
		require.Error(t, err)
		assert.Empty(t, fake.CallsFor("FindLibrary"))
	})
}
