package environment

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/corefleet/internal/config"
	"github.com/imamik/corefleet/internal/guestinfo"
	testutil "github.com/imamik/corefleet/internal/testing"
)

func TestPlan(t *testing.T) {
	t.Parallel()
	source := testutil.WriteFile(t, t.TempDir(), "etcd.yaml", "name: ##NAME## ##NAME##\n")

	env := testutil.NewEnvironmentBuilder("prod").
		WithRole("etcd", 2, source).
		WithReplacements(config.Replacement{Name: "NAME", ReplaceValue: "etcd"}).
		Build()

	tests := []struct {
		mode guestinfo.SubstitutionMode
		want string
	}{
		{guestinfo.SubstituteFirst, "name: etcd ##NAME##\n"},
		{guestinfo.SubstituteAll, "name: etcd etcd\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.mode.String(), func(t *testing.T) {
			t.Parallel()
			plan, err := Plan(env, testutil.DefaultSubnet(), tt.mode)
			require.NoError(t, err)
			require.Len(t, plan, 2)
			assert.Equal(t, "prod-etcd-01", plan[0].Name)
			assert.Equal(t, "etcd", plan[1].Role)

			settings := plan[0].Settings
			last := settings[len(settings)-1]
			assert.Equal(t, "guestinfo.coreos.config.data", last.Key)
			decoded, err := base64.StdEncoding.DecodeString(last.Value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(decoded))
		})
	}
}

func TestPlan_InvalidStaticAddress(t *testing.T) {
	t.Parallel()
	subnet := testutil.DefaultSubnet()
	subnet.SubnetMask = "255.0.255.0"

	env := testutil.NewEnvironmentBuilder("prod").WithStaticRole("lb", 1, "lb.yaml", "10.0.0.10").Build()
	_, err := Plan(env, subnet, guestinfo.SubstituteFirst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to configure network of prod-lb-01")
}
