package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "corefleet", cmd.Use)
	assert.Equal(t, "Provision CoreOS fleets on VMware vSphere", cmd.Short)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expectedSubcommands := []string{
		"coreos-setup",
		"env-create",
		"env-on",
		"env-off",
		"env-destroy",
		"env-reconfigure",
		"env-validate",
		"env-plan",
		"check-credentials",
		"version",
		"completion",
	}

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, expected := range expectedSubcommands {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
	assert.Len(t, cmd.Commands(), len(expectedSubcommands))
}

func TestRoot_GlobalFlagDefaults(t *testing.T) {
	cmd := Root()
	flags := cmd.PersistentFlags()

	tests := []struct {
		name string
		want string
	}{
		{name: "library", want: "coreos"},
		{name: "stream", want: "stable"},
		{name: "credentials", want: ".credentials.json"},
		{name: "insecure", want: "true"},
		{name: "output", want: "console"},
		{name: "substitute", want: "first"},
		{name: "strict", want: "false"},
		{name: "timeout", want: time.Duration(0).String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := flags.Lookup(tt.name)
			require.NotNil(t, f, "flag %s not registered", tt.name)
			assert.Equal(t, tt.want, f.DefValue)
		})
	}
}

func TestRoot_ArgumentCounts(t *testing.T) {
	tests := []struct {
		args []string
	}{
		{args: []string{"coreos-setup", "datastore1"}},
		{args: []string{"env-create", "env.json", "subnet.json"}},
		{args: []string{"env-on"}},
		{args: []string{"env-reconfigure", "env.json"}},
		{args: []string{"env-validate", "env.json", "subnet.json", "spec.json", "core"}},
		{args: []string{"check-credentials", "extra"}},
		{args: []string{"completion", "tcsh"}},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			cmd := Root()
			cmd.SetArgs(tt.args)
			assert.Error(t, cmd.Execute())
		})
	}
}
