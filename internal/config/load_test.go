package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEnvironment_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "env.json", `{
		"Name": "prod",
		"Description": "production",
		"Machines": [
			{"Name": "etcd", "Count": 3, "CloudInitSource": "/srv/etcd.yml"},
			{"Name": "worker", "Count": 2, "CloudInitSource": "/srv/worker.yml",
			 "StaticIP": "10.0.0.50",
			 "CloudInitReplace": [{"Name": "TOKEN", "ReplaceValue": "abc"}]}
		]
	}`)

	env, err := LoadEnvironment(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", env.Name)
	require.Len(t, env.Machines, 2)
	assert.Equal(t, "etcd", env.Machines[0].Name)
	assert.Equal(t, 3, env.Machines[0].Count)
	assert.Equal(t, "10.0.0.50", env.Machines[1].StaticIP)
	assert.Equal(t, []Replacement{{Name: "TOKEN", ReplaceValue: "abc"}}, env.Machines[1].CloudInitReplace)
	assert.Equal(t, 5, env.TotalMachines())
}

func TestLoadEnvironment_JSONCWithComments(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "env.jsonc", `{
		// single-role environment
		"Name": "dev",
		"Machines": [
			{"Name": "core", "Count": 1, "CloudInitSource": "/srv/core.yml"},
		],
	}`)

	env, err := LoadEnvironment(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", env.Name)
	require.Len(t, env.Machines, 1)
}

func TestLoadEnvironment_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "env.yaml", `
Name: stage
Machines:
  - Name: worker
    Count: 2
    CloudInitSource: /srv/worker.yml
`)

	env, err := LoadEnvironment(path)
	require.NoError(t, err)
	assert.Equal(t, "stage", env.Name)
	assert.Equal(t, 2, env.Machines[0].Count)
}

func TestLoadEnvironment_ResolvesRelativeCloudInit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "env.json", `{"Name":"dev","Machines":[{"Name":"core","Count":1,"CloudInitSource":"configs/core.yml"}]}`)

	env, err := LoadEnvironment(path)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "configs", "core.yml"), env.Machines[0].CloudInitSource)
}

func TestLoadEnvironment_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "malformed json",
			content: `{"Name": `,
			wantMsg: "failed to parse",
		},
		{
			name:    "static ip given as cidr",
			content: `{"Name":"p","Machines":[{"Name":"a","Count":1,"CloudInitSource":"/x","StaticIP":"10.0.0.5/24"}]}`,
			wantMsg: "must be a single address, not a CIDR",
		},
		{
			name:    "negative count",
			content: `{"Name":"p","Machines":[{"Name":"a","Count":-1,"CloudInitSource":"/x"}]}`,
			wantMsg: "must not be negative",
		},
		{
			name:    "duplicate role",
			content: `{"Name":"p","Machines":[{"Name":"a","Count":1,"CloudInitSource":"/x"},{"Name":"a","Count":1,"CloudInitSource":"/x"}]}`,
			wantMsg: "duplicate role",
		},
		{
			name:    "missing name",
			content: `{"Machines":[]}`,
			wantMsg: "Name: is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "env.json", tt.content)
			_, err := LoadEnvironment(path)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestLoadEnvironment_ZeroCountNeedsNoSource(t *testing.T) {
	path := writeFile(t, t.TempDir(), "env.json", `{"Name":"p","Machines":[{"Name":"spare","Count":0}]}`)
	env, err := LoadEnvironment(path)
	require.NoError(t, err)
	assert.Equal(t, 0, env.TotalMachines())
}

func TestLoadSubnet(t *testing.T) {
	path := writeFile(t, t.TempDir(), "subnet.json", `{
		"GatewayIP": "10.0.0.1",
		"DNSServers": ["10.0.0.2", "8.8.8.8"],
		"SubnetIP": "10.0.0.0",
		"SubnetMask": "255.255.255.0"
	}`)

	subnet, err := LoadSubnet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.2", "8.8.8.8"}, subnet.DNSServers)

	network, err := subnet.Network()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/24", network.String())
}

func TestLoadSubnet_InvalidMask(t *testing.T) {
	path := writeFile(t, t.TempDir(), "subnet.json", `{"GatewayIP":"10.0.0.1","SubnetIP":"10.0.0.0","SubnetMask":"255.0.255.0"}`)
	_, err := LoadSubnet(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-contiguous netmask")
}

func TestLoadHost(t *testing.T) {
	path := writeFile(t, t.TempDir(), "host.json", `{"Host":"esx01","Datastore":"ds1","ResourcePool":"pool"}`)
	host, err := LoadHost(path)
	require.NoError(t, err)
	assert.Equal(t, HostDefinition{Host: "esx01", Datastore: "ds1", ResourcePool: "pool"}, *host)

	path = writeFile(t, t.TempDir(), "host.json", `{"Host":"esx01","Datastore":"ds1"}`)
	_, err = LoadHost(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ResourcePool")
}

func TestLoadValidation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "validation.json", `{
		"ValidationCommands": [
			{"Roles": ["etcd"], "Command": "systemctl is-active etcd2", "Type": "expected-output",
			 "Value": "active", "Description": "etcd is running"}
		]
	}`)

	spec, err := LoadValidation(path)
	require.NoError(t, err)
	require.Len(t, spec.ValidationCommands, 1)

	cmd := spec.ValidationCommands[0]
	assert.Equal(t, ValidationTypeExpectedOutput, cmd.Type)
	assert.True(t, cmd.AppliesTo("etcd"))
	assert.False(t, cmd.AppliesTo("worker"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadHost(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
