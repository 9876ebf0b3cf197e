package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	testutil "github.com/imamik/corefleet/internal/testing"
)

func TestEnvPlan(t *testing.T) {
	h := newHarness(t, testutil.NewFakePlatform())
	envFile, subnetFile, _ := h.definitions(t)

	require.NoError(t, EnvPlan(h.opts, envFile, subnetFile))
	assert.Nil(t, h.connected, "plan must not connect")

	var doc planDocument
	require.NoError(t, yaml.Unmarshal(h.out.Bytes(), &doc))
	assert.Equal(t, "prod", doc.Environment)
	assert.Equal(t, "first", doc.Substitute)
	require.Len(t, doc.Machines, 2)

	for i, vm := range workers {
		m := doc.Machines[i]
		assert.Equal(t, vm, m.Name)
		assert.Equal(t, "worker", m.Role)
		require.NotEmpty(t, m.Settings)
		assert.Equal(t, "guestinfo.hostname", m.Settings[0].Key)
		assert.Equal(t, vm, m.Settings[0].Value)
		assert.Equal(t, "guestinfo.coreos.config.data", m.Settings[len(m.Settings)-1].Key)
	}
}

func TestEnvPlan_Errors(t *testing.T) {
	tests := []struct {
		name       string
		substitute string
		subnet     string
		wantErr    string
	}{
		{name: "unknown substitution", substitute: "some", wantErr: "unknown substitution mode"},
		{name: "missing subnet", substitute: "all", subnet: "missing.json", wantErr: "failed to read file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testutil.NewFakePlatform())
			envFile, subnetFile, _ := h.definitions(t)
			h.opts.Substitute = tt.substitute
			if tt.subnet != "" {
				subnetFile = h.path(tt.subnet)
			}

			err := EnvPlan(h.opts, envFile, subnetFile)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Zero(t, h.out.Len())
		})
	}
}
