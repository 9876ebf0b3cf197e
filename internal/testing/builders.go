package testing

import (
	"slices"

	"github.com/imamik/corefleet/internal/config"
)

// EnvironmentBuilder provides a fluent interface for constructing environment
// definitions. Each method returns a new builder (immutable) for chaining.
type EnvironmentBuilder struct {
	env config.EnvironmentDefinition
}

// NewEnvironmentBuilder creates a builder for an environment without roles.
func NewEnvironmentBuilder(name string) *EnvironmentBuilder {
	return &EnvironmentBuilder{env: config.EnvironmentDefinition{
		Name:        name,
		Description: "test environment " + name,
	}}
}

// WithRole adds a DHCP role.
func (b *EnvironmentBuilder) WithRole(name string, count int, cloudInit string) *EnvironmentBuilder {
	nb := b.clone()
	nb.env.Machines = append(nb.env.Machines, config.RoleDefinition{
		Name:            name,
		Count:           count,
		CloudInitSource: cloudInit,
	})
	return nb
}

// WithStaticRole adds a role whose machines share a static address.
func (b *EnvironmentBuilder) WithStaticRole(name string, count int, cloudInit, address string) *EnvironmentBuilder {
	nb := b.clone()
	nb.env.Machines = append(nb.env.Machines, config.RoleDefinition{
		Name:            name,
		Count:           count,
		CloudInitSource: cloudInit,
		StaticIP:        address,
	})
	return nb
}

// WithReplacements sets the cloud-config replacements of the last role.
func (b *EnvironmentBuilder) WithReplacements(subs ...config.Replacement) *EnvironmentBuilder {
	nb := b.clone()
	if n := len(nb.env.Machines); n > 0 {
		nb.env.Machines[n-1].CloudInitReplace = slices.Clone(subs)
	}
	return nb
}

// Build returns the constructed definition.
func (b *EnvironmentBuilder) Build() *config.EnvironmentDefinition {
	env := b.clone().env
	return &env
}

func (b *EnvironmentBuilder) clone() *EnvironmentBuilder {
	env := b.env
	env.Machines = make([]config.RoleDefinition, len(b.env.Machines))
	for i, role := range b.env.Machines {
		role.CloudInitReplace = slices.Clone(role.CloudInitReplace)
		env.Machines[i] = role
	}
	return &EnvironmentBuilder{env: env}
}

// DefaultSubnet returns a /24 subnet with one DNS server.
func DefaultSubnet() *config.SubnetDefinition {
	return &config.SubnetDefinition{
		GatewayIP:  "10.0.0.1",
		DNSServers: []string{"10.0.0.2"},
		SubnetIP:   "10.0.0.0",
		SubnetMask: "255.255.255.0",
	}
}

// DefaultHost returns a host definition matching WithDefaultInventory.
func DefaultHost() *config.HostDefinition {
	return &config.HostDefinition{
		Host:         HostName,
		Datastore:    DatastoreName,
		ResourcePool: ResourcePoolName,
	}
}
