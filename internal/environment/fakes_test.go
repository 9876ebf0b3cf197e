package environment

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/corefleet/internal/guestinfo"
	testutil "github.com/imamik/corefleet/internal/testing"
	"github.com/imamik/corefleet/internal/tracker"
)

type fakeTemplates struct {
	libraryID string
	err       error
}

func (f fakeTemplates) CheckDeployable(string) error { return f.err }

func (f fakeTemplates) LibraryID() (string, bool) { return f.libraryID, f.libraryID != "" }

// newFixture returns a platform with the default inventory and a library
// holding the stable template.
func newFixture(t *testing.T) (*testutil.FakePlatform, fakeTemplates) {
	t.Helper()
	fake := testutil.NewFakePlatform().WithDefaultInventory().WithLibrary("coreos", "coreos-stable")
	id, found, err := fake.FindLibrary(context.Background(), "coreos")
	require.NoError(t, err)
	require.True(t, found)
	fake.Calls = nil
	return fake, fakeTemplates{libraryID: id}
}

func cloudConfig(t *testing.T) string {
	t.Helper()
	return testutil.WriteFile(t, t.TempDir(), "cloud-config.yaml", "#cloud-config\nhostname: ##HOSTNAME##\n")
}

func setting(settings []guestinfo.Setting, key string) (string, bool) {
	i := slices.IndexFunc(settings, func(s guestinfo.Setting) bool { return s.Key == key })
	if i < 0 {
		return "", false
	}
	return settings[i].Value, true
}

func stepsOf(tr *tracker.Tracker) []tracker.Step {
	return tr.Steps()
}
