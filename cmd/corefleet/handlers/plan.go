package handlers

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/imamik/corefleet/internal/environment"
)

// planDocument is the YAML rendered by EnvPlan.
type planDocument struct {
	Environment string                  `yaml:"environment"`
	Substitute  string                  `yaml:"substitute"`
	Machines    []environment.PlannedVM `yaml:"machines"`
}

// EnvPlan prints the guestinfo every machine of the environment would get,
// without connecting to vCenter.
func EnvPlan(opts *Options, envFile, subnetFile string) error {
	mode, err := substitutionMode(opts)
	if err != nil {
		return err
	}
	env, err := loadEnvironment(envFile)
	if err != nil {
		return err
	}
	subnet, err := loadSubnet(subnetFile)
	if err != nil {
		return err
	}

	machines, err := environment.Plan(env, subnet, mode)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(planDocument{Environment: env.Name, Substitute: mode.String(), Machines: machines}); err != nil {
		return fmt.Errorf("failed to render plan: %w", err)
	}
	return enc.Close()
}
