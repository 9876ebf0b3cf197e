package environment

import (
	"fmt"

	"github.com/imamik/corefleet/internal/config"
	"github.com/imamik/corefleet/internal/guestinfo"
	"github.com/imamik/corefleet/internal/util/naming"
)

// Instance is one machine of an environment.
type Instance struct {
	Name  string
	Index int
	Role  config.RoleDefinition
}

// Instances lists the machines of env in visiting order.
func Instances(env *config.EnvironmentDefinition) []Instance {
	out := make([]Instance, 0, env.TotalMachines())
	for _, role := range env.Machines {
		for i := 0; i < role.Count; i++ {
			out = append(out, Instance{
				Name:  naming.VM(env.Name, role.Name, i),
				Index: i,
				Role:  role,
			})
		}
	}
	return out
}

// BuildConfig assembles the guestinfo of inst. A role with a static address
// gets a static interface, every other role DHCP.
func BuildConfig(inst Instance, subnet *config.SubnetDefinition, mode guestinfo.SubstitutionMode) (*guestinfo.Config, error) {
	cfg := guestinfo.New(inst.Name)
	cfg.SetSubstitutionMode(mode)

	if inst.Role.StaticIP != "" {
		if err := cfg.BuildStatic(inst.Role.StaticIP, subnet.GatewayIP, subnet.SubnetMask); err != nil {
			return nil, fmt.Errorf("failed to configure network of %s: %w", inst.Name, err)
		}
	} else {
		cfg.BuildDHCP()
	}
	cfg.SetDNS(subnet.DNSServers)

	if err := cfg.LoadCloudConfig(inst.Role.CloudInitSource, inst.Role.CloudInitReplace); err != nil {
		return nil, fmt.Errorf("failed to load cloud config of %s: %w", inst.Name, err)
	}
	return cfg, nil
}

// PlannedVM is the guestinfo one machine would receive.
type PlannedVM struct {
	Name     string              `yaml:"name"`
	Role     string              `yaml:"role"`
	Settings []guestinfo.Setting `yaml:"settings"`
}

// Plan builds the guestinfo of every machine without touching the platform.
func Plan(env *config.EnvironmentDefinition, subnet *config.SubnetDefinition, mode guestinfo.SubstitutionMode) ([]PlannedVM, error) {
	instances := Instances(env)
	out := make([]PlannedVM, 0, len(instances))
	for _, inst := range instances {
		cfg, err := BuildConfig(inst, subnet, mode)
		if err != nil {
			return nil, err
		}
		out = append(out, PlannedVM{Name: inst.Name, Role: inst.Role.Name, Settings: cfg.Settings()})
	}
	return out, nil
}
